// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// FilterKind selects the predicate applied to an article listing.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterCategory
	FilterAuthor
	FilterSearch
)

// ArticleFilter is the predicate shared by Count and List so both see the same rows.
type ArticleFilter struct {
	Kind       FilterKind
	CategoryID models.ID
	AuthorID   models.ID
	// Pattern is a case-insensitive, unanchored regular expression matched
	// against title or content. Empty matches everything.
	Pattern string
}

// ArticleRepository defines the interface for article data operations.
// Returned articles have Author (ID and name only) and Category populated.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id models.ID) (*models.Article, error)
	Count(ctx context.Context, filter ArticleFilter) (int64, error)
	List(ctx context.Context, filter ArticleFilter, limit, offset int) ([]*models.Article, error)
	ListByIDs(ctx context.Context, ids []models.ID) ([]*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	// Delete returns the number of removed records.
	Delete(ctx context.Context, id models.ID) (int64, error)
}

// CategoryRepository defines interface for category operations.
type CategoryRepository interface {
	List(ctx context.Context) ([]*models.Category, error)
	GetByID(ctx context.Context, id models.ID) (*models.Category, error)
	// Ensure inserts the category unless one with the same slug exists, and
	// returns the stored record.
	Ensure(ctx context.Context, category *models.Category) (*models.Category, error)
}

// CommentRepository defines interface for comment operations.
// Returned comments have User (ID and name only) populated.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id models.ID) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID models.ID) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id models.ID) error
	DeleteByArticle(ctx context.Context, articleID models.ID) (int64, error)
	// DeleteOrphans removes comments whose article no longer exists.
	DeleteOrphans(ctx context.Context) (int64, error)
}

// UserRepository defines interface for user operations.
// Returned users carry their bookmark set, most recent first.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id models.ID) (*models.User, error)
	GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	AddBookmark(ctx context.Context, userID, articleID models.ID) error
	RemoveBookmark(ctx context.Context, userID, articleID models.ID) error
}

// Store bundles the repositories of one backend together with its lifecycle.
type Store interface {
	Articles() ArticleRepository
	Categories() CategoryRepository
	Comments() CommentRepository
	Users() UserRepository
	Driver() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
