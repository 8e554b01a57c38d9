package server

import (
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /articles/:articleId/comments
// @Summary List comments of an article
// @Tags comments
// @Produce json
// @Param articleId path string true "Article ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{articleId}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListComments(c.UserContext(), pathID(c, "articleId"))
	if err != nil {
		return respondCommentError(c, err, "Failed to get comments")
	}
	return c.JSON(comments)
}

// CreateComment handles POST /articles/:articleId/comments
// @Summary Comment on an article
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param articleId path string true "Article ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{articleId}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		ActorID:   actorID(c),
		ArticleID: pathID(c, "articleId"),
		Content:   req.Content,
	})
	if err != nil {
		return respondCommentError(c, err, "Failed to create comment")
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PATCH /articles/:articleId/comments/:commentId
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param articleId path string true "Article ID"
// @Param commentId path string true "Comment ID"
// @Param request body object{content=string} true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{articleId}/comments/{commentId} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		ActorID:   actorID(c),
		ArticleID: pathID(c, "articleId"),
		CommentID: pathID(c, "commentId"),
		Content:   req.Content,
	})
	if err != nil {
		return respondCommentError(c, err, "Failed to update comment")
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /articles/:articleId/comments/:commentId
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param articleId path string true "Article ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{articleId}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		ActorID:   actorID(c),
		ArticleID: pathID(c, "articleId"),
		CommentID: pathID(c, "commentId"),
	})
	if err != nil {
		return respondCommentError(c, err, "Failed to delete comment")
	}
	return c.JSON(fiber.Map{"message": "Success"})
}
