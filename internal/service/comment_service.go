package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// CommentService manages comments nested under an article. Every operation
// resolves the parent article first, so a missing article is always a 404
// even when the comment ID is also wrong.
type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
}

type CreateCommentInput struct {
	ActorID   models.ID
	ArticleID models.ID
	Content   string
}

type UpdateCommentInput struct {
	ActorID   models.ID
	ArticleID models.ID
	CommentID models.ID
	Content   string
}

type DeleteCommentInput struct {
	ActorID   models.ID
	ArticleID models.ID
	CommentID models.ID
}

func NewCommentService(comments repository.CommentRepository, articles repository.ArticleRepository) *CommentService {
	return &CommentService{comments: comments, articles: articles}
}

// ListComments returns the article's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, articleID models.ID) ([]*models.Comment, error) {
	if err := s.articleExists(ctx, articleID); err != nil {
		return nil, err
	}
	return s.comments.ListByArticle(ctx, articleID)
}

// CreateComment stores a comment by the actor. Author and article come from
// the caller's identity and the path, never from the body.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := s.articleExists(ctx, in.ArticleID); err != nil {
		return nil, err
	}
	content, err := commentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: in.ActorID, ArticleID: in.ArticleID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// UpdateComment replaces the content of the actor's own comment.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.authorize(ctx, commentRef{in.ActorID, in.ArticleID, in.CommentID}, "update")
	if err != nil {
		return nil, err
	}
	if comment.Content, err = commentContent(in.Content); err != nil {
		return nil, err
	}

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, commentLookupErr(err, in.CommentID)
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// DeleteComment hard-deletes the actor's own comment.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.authorize(ctx, commentRef{in.ActorID, in.ArticleID, in.CommentID}, "delete")
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return commentLookupErr(err, comment.ID)
	}
	middleware.Logger.InfoContext(ctx, "comment deleted",
		slog.String("comment_id", comment.ID.String()),
		slog.String("article_id", comment.ArticleID.String()),
	)
	return nil
}

type commentRef struct {
	actor, article, comment models.ID
}

// authorize loads ref.comment, checks it hangs under ref.article and that
// ref.actor wrote it. A comment under another article reads as not found.
func (s *CommentService) authorize(ctx context.Context, ref commentRef, action string) (*models.Comment, error) {
	if err := s.articleExists(ctx, ref.article); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, ref.comment)
	if err != nil {
		return nil, commentLookupErr(err, ref.comment)
	}
	if comment.ArticleID != ref.article {
		return nil, models.NewNotFoundError("Comment", ref.comment)
	}
	if !auth.IsOwner(ref.actor, comment.UserID) {
		return nil, models.NewForbiddenError("You can only " + action + " your own comments")
	}
	return comment, nil
}

func (s *CommentService) articleExists(ctx context.Context, id models.ID) error {
	_, err := s.articles.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.NewNotFoundError("Article", id)
	}
	return err
}

func commentLookupErr(err error, id models.ID) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.NewNotFoundError("Comment", id)
	}
	return err
}

func commentContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", models.NewValidationError("Content is required",
			models.FieldError{Field: "content", Message: "Content is required"})
	}
	return content, nil
}
