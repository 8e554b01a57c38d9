package server

import (
	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterUser handles POST /my/user
// @Summary Create the caller's user record on first login
// @Description Answers 201 when the record was created and 200 when it already existed
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{email=string,name=string} true "Identity claims"
// @Success 200 {object} models.Profile
// @Success 201 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /my/user [post]
func (s *Server) RegisterUser(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	subject, _ := auth.SubjectFrom(c.UserContext())
	user, created, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Subject: subject,
		Email:   req.Email,
		Name:    req.Name,
	})
	if err != nil {
		return respondError(c, err, "Error creating user")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(user.Profile())
}

// GetMyProfile handles GET /my/user
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /my/user [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), actorID(c))
	if err != nil {
		return respondError(c, err, "Error fetching user")
	}
	return c.JSON(user.Profile())
}

// UpdateMyProfile handles PUT /my/user
// @Summary Update the caller's name and bio
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,bio=string} true "Profile"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /my/user [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ActorID: actorID(c),
		Name:    req.Name,
		Bio:     req.Bio,
	})
	if err != nil {
		return respondError(c, err, "Error updating user")
	}
	return c.JSON(user.Profile())
}

// GetMyBookmarks handles GET /my/user/bookmarks
// @Summary List the caller's bookmarked articles
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Article
// @Failure 401 {object} models.ErrorResponse
// @Router /my/user/bookmarks [get]
func (s *Server) GetMyBookmarks(c *fiber.Ctx) error {
	articles, err := s.userService.ListBookmarks(c.UserContext(), actorID(c))
	if err != nil {
		return respondError(c, err, "Error fetching bookmarks")
	}
	if articles == nil {
		articles = []*models.Article{}
	}
	return c.JSON(articles)
}

// AddBookmark handles POST /my/user/bookmarks
// @Summary Bookmark an article
// @Description Adding an article that is already bookmarked is a no-op
// @Tags bookmarks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{id=string} true "Article to bookmark"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /my/user/bookmarks [post]
func (s *Server) AddBookmark(c *fiber.Ctx) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.AddBookmark(c.UserContext(), actorID(c), models.ID(req.ID))
	if err != nil {
		return respondError(c, err, "Error adding bookmark")
	}
	return c.JSON(user.Profile())
}

// RemoveBookmark handles DELETE /my/user/bookmarks/:id
// @Summary Remove a bookmark
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 200 {object} models.Profile
// @Failure 401 {object} models.ErrorResponse
// @Router /my/user/bookmarks/{id} [delete]
func (s *Server) RemoveBookmark(c *fiber.Ctx) error {
	user, err := s.userService.RemoveBookmark(c.UserContext(), actorID(c), pathID(c, "id"))
	if err != nil {
		return respondError(c, err, "Error removing bookmark")
	}
	return c.JSON(user.Profile())
}

// GetUserProfile handles GET /users/:id
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.PublicProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), pathID(c, "id"))
	if err != nil {
		return respondError(c, err, "Error fetching user")
	}
	return c.JSON(user.Public())
}
