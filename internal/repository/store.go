package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type gormStore struct {
	db         *gorm.DB
	articles   ArticleRepository
	categories CategoryRepository
	comments   CommentRepository
	users      UserRepository
}

// NewGormStore returns a Store backed by a relational database.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db:         db,
		articles:   NewArticleRepository(db),
		categories: NewCategoryRepository(db),
		comments:   NewCommentRepository(db),
		users:      NewUserRepository(db),
	}
}

func (s *gormStore) Articles() ArticleRepository { return s.articles }
func (s *gormStore) Categories() CategoryRepository { return s.categories }
func (s *gormStore) Comments() CommentRepository { return s.comments }
func (s *gormStore) Users() UserRepository { return s.users }
func (s *gormStore) Driver() string { return s.db.Dialector.Name() }

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps driver errors onto the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return false
}

// authorSummary limits a preloaded user to the fields shown next to content.
func authorSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}
