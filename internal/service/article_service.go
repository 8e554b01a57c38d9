// Package service contains the business logic behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/featureflags"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
	"inkwell/internal/sanitize"
)

// ListKind selects which articles a listing returns.
type ListKind int

const (
	ListAll ListKind = iota
	ListByCategory
	ListByAuthor
	ListMine
	ListSearch
)

type ArticleService struct {
	articles   repository.ArticleRepository
	categories repository.CategoryRepository
	comments   repository.CommentRepository
	media      media.Host
	flags      *featureflags.Manager
}

type ListArticlesInput struct {
	Kind       ListKind
	Page       int
	PageSize   int
	CategoryID models.ID
	AuthorID   models.ID
	Query      string
	// ActorID is required for ListMine and feeds flag rollouts otherwise.
	ActorID models.ID
}

// ArticleList is one page of articles. NotFound marks a scoped listing
// (category, author or search) that matched nothing.
type ArticleList struct {
	PagingInfo pagination.Info   `json:"pagingInfo"`
	Articles   []*models.Article `json:"articles"`
	NotFound   bool              `json:"-"`
}

type CreateArticleInput struct {
	ActorID    models.ID
	Title      string
	CategoryID models.ID
	Content    string
	Image      *media.File
}

type UpdateArticleInput struct {
	ActorID    models.ID
	ID         models.ID
	Title      string
	CategoryID models.ID
	Content    string
	Image      *media.File
}

type DeleteArticleInput struct {
	ActorID models.ID
	ID      models.ID
}

func NewArticleService(
	articles repository.ArticleRepository,
	categories repository.CategoryRepository,
	comments repository.CommentRepository,
	host media.Host,
	flags *featureflags.Manager,
) *ArticleService {
	return &ArticleService{
		articles:   articles,
		categories: categories,
		comments:   comments,
		media:      host,
		flags:      flags,
	}
}

func (s *ArticleService) ListArticles(ctx context.Context, in ListArticlesInput) (*ArticleList, error) {
	filter, pageSize, err := s.listFilter(in)
	if err != nil {
		return nil, err
	}

	total, err := s.articles.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if total == 0 && reportsNotFound(in.Kind) {
		return &ArticleList{PagingInfo: pagination.Empty(), Articles: []*models.Article{}, NotFound: true}, nil
	}

	window := pagination.Paginate(in.Page, pageSize, total)
	if window.PastEnd(total) {
		return &ArticleList{PagingInfo: window.Info(total), Articles: []*models.Article{}}, nil
	}
	articles, err := s.articles.List(ctx, filter, window.PageSize, window.Skip)
	if err != nil {
		return nil, err
	}
	return &ArticleList{PagingInfo: window.Info(total), Articles: articles}, nil
}

// reportsNotFound is true for the scoped listings that answer 404 when empty.
// The caller's own listing and the unfiltered listing answer 200.
func reportsNotFound(kind ListKind) bool {
	switch kind {
	case ListByCategory, ListByAuthor, ListSearch:
		return true
	default:
		return false
	}
}

// listFilter maps a listing request onto the store predicate and page size.
func (s *ArticleService) listFilter(in ListArticlesInput) (repository.ArticleFilter, int, error) {
	size := pagination.ClampSize(in.PageSize, pagination.DefaultPageSize)
	switch in.Kind {
	case ListByCategory:
		return repository.ArticleFilter{Kind: repository.FilterCategory, CategoryID: in.CategoryID}, size, nil
	case ListByAuthor:
		return repository.ArticleFilter{Kind: repository.FilterAuthor, AuthorID: in.AuthorID}, size, nil
	case ListSearch:
		pattern := in.Query
		if s.flags.Enabled(featureflags.SearchEscapeRegex, in.ActorID.String()) {
			pattern = regexp.QuoteMeta(pattern)
		}
		return repository.ArticleFilter{Kind: repository.FilterSearch, Pattern: pattern}, size, nil
	case ListMine:
		if in.ActorID == "" {
			return repository.ArticleFilter{}, 0, models.NewUnauthorizedError("Authentication required")
		}
		size = pagination.ClampSize(in.PageSize, pagination.DefaultOwnPageSize)
		return repository.ArticleFilter{Kind: repository.FilterAuthor, AuthorID: in.ActorID}, size, nil
	default:
		return repository.ArticleFilter{Kind: repository.FilterNone}, size, nil
	}
}

func (s *ArticleService) GetArticle(ctx context.Context, id models.ID) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("Article", id)
		}
		return nil, err
	}
	return article, nil
}

func (s *ArticleService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categories.List(ctx)
}

func (s *ArticleService) CreateArticle(ctx context.Context, in CreateArticleInput) (*models.Article, error) {
	if in.ActorID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	title, content, categoryID, err := s.validateArticle(ctx, in.Title, in.Content, in.CategoryID)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		AuthorID:   in.ActorID,
		Title:      title,
		Content:    sanitize.HTML(content),
		CategoryID: categoryID,
	}
	if in.Image != nil {
		url, err := s.media.Upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		article.CoverImageURL = url
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	return s.articles.GetByID(ctx, article.ID)
}

func (s *ArticleService) UpdateArticle(ctx context.Context, in UpdateArticleInput) (*models.Article, error) {
	article, err := s.GetArticle(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !auth.IsOwner(in.ActorID, article.AuthorID) {
		return nil, models.NewForbiddenError("You can only update your own articles")
	}

	title, content, categoryID, err := s.validateArticle(ctx, in.Title, in.Content, in.CategoryID)
	if err != nil {
		return nil, err
	}
	content = sanitize.HTML(content)

	if in.Image != nil {
		url, err := s.media.Upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		if previous := article.CoverImageURL; previous != "" {
			if err := s.media.Delete(ctx, previous); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to delete replaced cover image",
					slog.String("article_id", article.ID.String()),
					slog.String("url", previous),
					slog.String("error", err.Error()),
				)
			}
		}
		article.CoverImageURL = url
	}

	article.Title = title
	article.Content = content
	article.CategoryID = categoryID
	if err := s.articles.Update(ctx, article); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("Article", in.ID)
		}
		return nil, err
	}
	return s.articles.GetByID(ctx, article.ID)
}

// DeleteArticle removes the article, then its cover image and comments.
// Cleanup failures are logged and counted but never returned.
func (s *ArticleService) DeleteArticle(ctx context.Context, in DeleteArticleInput) error {
	article, err := s.GetArticle(ctx, in.ID)
	if err != nil {
		return err
	}
	if !auth.IsOwner(in.ActorID, article.AuthorID) {
		return models.NewForbiddenError("You can only delete your own articles")
	}

	removed, err := s.articles.Delete(ctx, article.ID)
	if err != nil {
		return err
	}
	if removed != 1 {
		return nil
	}

	if article.CoverImageURL != "" {
		if err := s.media.Delete(ctx, article.CoverImageURL); err != nil {
			s.cleanupFailed(ctx, "image", article.ID, err)
		}
	}
	if _, err := s.comments.DeleteByArticle(ctx, article.ID); err != nil {
		s.cleanupFailed(ctx, "comments", article.ID, err)
	}
	return nil
}

func (s *ArticleService) cleanupFailed(ctx context.Context, step string, articleID models.ID, err error) {
	observability.CascadeCleanupFailures.WithLabelValues(step).Inc()
	middleware.Logger.ErrorContext(ctx, "article delete cleanup failed",
		slog.String("step", step),
		slog.String("article_id", articleID.String()),
		slog.String("error", err.Error()),
	)
}

// UploadCoverImage stores a standalone image and returns its URL.
func (s *ArticleService) UploadCoverImage(ctx context.Context, actorID models.ID, file *media.File) (string, error) {
	if actorID == "" {
		return "", models.NewUnauthorizedError("Authentication required")
	}
	if file == nil || len(file.Content) == 0 {
		return "", models.NewValidationError("No file uploaded", models.FieldError{Field: "imageFile", Message: "required"})
	}
	return s.media.Upload(ctx, *file)
}

// validateArticle trims and checks the editable fields and resolves the category.
func (s *ArticleService) validateArticle(ctx context.Context, title, content string, categoryID models.ID) (string, string, models.ID, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	categoryID = models.ID(strings.TrimSpace(categoryID.String()))

	var fields []models.FieldError
	if title == "" {
		fields = append(fields, models.FieldError{Field: "title", Message: "Title is required"})
	}
	if categoryID == "" {
		fields = append(fields, models.FieldError{Field: "category", Message: "Category is required"})
	}
	if content == "" {
		fields = append(fields, models.FieldError{Field: "content", Message: "Content is required"})
	}
	if len(fields) > 0 {
		return "", "", "", models.NewValidationError("Invalid article", fields...)
	}

	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", "", "", models.NewValidationError("Invalid article",
				models.FieldError{Field: "category", Message: "Category does not exist"})
		}
		return "", "", "", err
	}
	return title, content, categoryID, nil
}
