package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// articleRequest is accepted as JSON or as multipart form fields next to an
// optional imageFile part. An author sent by the client is ignored.
type articleRequest struct {
	Title    string `json:"title" form:"title"`
	Category string `json:"category" form:"category"`
	Content  string `json:"content" form:"content"`
}

// GetArticles handles GET /articles
// @Summary List articles
// @Description Newest first, five per page
// @Tags articles
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} service.ArticleList
// @Failure 500 {object} models.ErrorResponse
// @Router /articles [get]
func (s *Server) GetArticles(c *fiber.Ctx) error {
	return s.listArticles(c, service.ListArticlesInput{Kind: service.ListAll}, "Failed to get articles")
}

// SearchArticles handles GET /articles/search
// @Summary Search articles
// @Description Case-insensitive regular expression match on title or content
// @Tags articles
// @Produce json
// @Param searchQuery query string false "Pattern"
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} service.ArticleList
// @Failure 404 {object} service.ArticleList
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/search [get]
func (s *Server) SearchArticles(c *fiber.Ctx) error {
	return s.listArticles(c, service.ListArticlesInput{
		Kind:  service.ListSearch,
		Query: c.Query("searchQuery"),
	}, "Failed to search articles")
}

// GetArticlesByCategory handles GET /articles/category/:id
// @Summary List articles in a category
// @Tags articles
// @Produce json
// @Param id path string true "Category ID"
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} service.ArticleList
// @Failure 404 {object} service.ArticleList
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/category/{id} [get]
func (s *Server) GetArticlesByCategory(c *fiber.Ctx) error {
	return s.listArticles(c, service.ListArticlesInput{
		Kind:       service.ListByCategory,
		CategoryID: pathID(c, "id"),
	}, "Failed to get articles")
}

// GetArticlesByAuthor handles GET /articles/user/:id
// @Summary List articles by author
// @Tags articles
// @Produce json
// @Param id path string true "User ID"
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} service.ArticleList
// @Failure 404 {object} service.ArticleList
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/user/{id} [get]
func (s *Server) GetArticlesByAuthor(c *fiber.Ctx) error {
	return s.listArticles(c, service.ListArticlesInput{
		Kind:     service.ListByAuthor,
		AuthorID: pathID(c, "id"),
	}, "Failed to get articles")
}

// GetMyArticles handles GET /articles/me
// @Summary List the caller's articles
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} service.ArticleList
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/me [get]
func (s *Server) GetMyArticles(c *fiber.Ctx) error {
	return s.listArticles(c, service.ListArticlesInput{
		Kind:     service.ListMine,
		PageSize: c.QueryInt("pageSize", 0),
	}, "Failed to get articles")
}

func (s *Server) listArticles(c *fiber.Ctx, in service.ListArticlesInput, fallback string) error {
	in.Page = c.QueryInt("page", 1)
	in.ActorID = actorID(c)

	list, err := s.articleService.ListArticles(c.UserContext(), in)
	if err != nil {
		return respondError(c, err, fallback)
	}
	if list.NotFound {
		return c.Status(fiber.StatusNotFound).JSON(list)
	}
	return c.JSON(list)
}

// GetCategories handles GET /articles/categories
// @Summary List categories
// @Tags articles
// @Produce json
// @Success 200 {array} models.Category
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.articleService.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to get categories")
	}
	return c.JSON(categories)
}

// GetArticle handles GET /articles/:id
// @Summary Get an article
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} models.Article
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/{id} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	article, err := s.articleService.GetArticle(c.UserContext(), pathID(c, "id"))
	if err != nil {
		return respondError(c, err, "Failed to get article")
	}
	return c.JSON(article)
}

// CreateArticle handles POST /articles
// @Summary Create an article
// @Description JSON or multipart/form-data with an optional imageFile part
// @Tags articles
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param category formData string true "Category ID"
// @Param content formData string true "Rich text content"
// @Param imageFile formData file false "Cover image"
// @Success 201 {object} models.Article
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	image, err := formImage(c)
	if err != nil {
		return respondError(c, err, "Failed to create article")
	}

	article, err := s.articleService.CreateArticle(c.UserContext(), service.CreateArticleInput{
		ActorID:    actorID(c),
		Title:      req.Title,
		CategoryID: models.ID(req.Category),
		Content:    req.Content,
		Image:      image,
	})
	if err != nil {
		return respondError(c, err, "Failed to create article")
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UploadImage handles POST /articles/upload-image
// @Summary Upload a standalone image
// @Tags articles
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param imageFile formData file true "Image"
// @Success 201 {string} string "Image URL"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/upload-image [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	image, err := formImage(c)
	if err != nil {
		return respondError(c, err, "Failed to upload image")
	}

	url, err := s.articleService.UploadCoverImage(c.UserContext(), actorID(c), image)
	if err != nil {
		return respondError(c, err, "Failed to upload image")
	}
	return c.Status(fiber.StatusCreated).JSON(url)
}

// UpdateArticle handles PUT /articles/:id
// @Summary Update an article
// @Description Only the author may update. A new imageFile replaces the cover image.
// @Tags articles
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param title formData string true "Title"
// @Param category formData string true "Category ID"
// @Param content formData string true "Rich text content"
// @Param imageFile formData file false "Cover image"
// @Success 200 {object} models.Article
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/{id} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	image, err := formImage(c)
	if err != nil {
		return respondError(c, err, "Failed to update article")
	}

	article, err := s.articleService.UpdateArticle(c.UserContext(), service.UpdateArticleInput{
		ActorID:    actorID(c),
		ID:         pathID(c, "id"),
		Title:      req.Title,
		CategoryID: models.ID(req.Category),
		Content:    req.Content,
		Image:      image,
	})
	if err != nil {
		return respondError(c, err, "Failed to update article")
	}
	return c.JSON(article)
}

// DeleteArticle handles DELETE /articles/:id
// @Summary Delete an article
// @Description Removes the article, its cover image and its comments
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /articles/{id} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	err := s.articleService.DeleteArticle(c.UserContext(), service.DeleteArticleInput{
		ActorID: actorID(c),
		ID:      pathID(c, "id"),
	})
	if err != nil {
		return respondError(c, err, "Failed to delete article")
	}
	return c.JSON(fiber.Map{"message": "Article deleted"})
}
