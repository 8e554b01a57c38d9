package repository

import (
	"context"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) driver() string {
	return r.db.Dialector.Name()
}

// Create inserts a user. A second user with the same auth0 subject yields ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery(r.driver(), "create", "users")()
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id models.ID) (*models.User, error) {
	return r.first(ctx, "get", "id = ?", id)
}

func (r *userRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	return r.first(ctx, "get_by_auth0_id", "auth0_id = ?", auth0ID)
}

func (r *userRepository) first(ctx context.Context, op, query string, arg any) (*models.User, error) {
	defer observability.TrackQuery(r.driver(), op, "users")()
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	if err := r.loadBookmarks(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) loadBookmarks(ctx context.Context, user *models.User) error {
	ids := []models.ID{}
	err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Pluck("article_id", &ids).Error
	if err != nil {
		return translateError(err)
	}
	user.BookmarkedIDs = ids
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery(r.driver(), "update", "users")()
	user.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Updates(map[string]any{
			"email":      user.Email,
			"name":       user.Name,
			"bio":        user.Bio,
			"updated_at": user.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddBookmark is idempotent.
func (r *userRepository) AddBookmark(ctx context.Context, userID, articleID models.ID) error {
	defer observability.TrackQuery(r.driver(), "add_bookmark", "bookmarks")()
	bookmark := &models.Bookmark{UserID: userID, ArticleID: articleID}
	return translateError(r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(bookmark).Error)
}

func (r *userRepository) RemoveBookmark(ctx context.Context, userID, articleID models.ID) error {
	defer observability.TrackQuery(r.driver(), "remove_bookmark", "bookmarks")()
	return translateError(r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.Bookmark{}).Error)
}
