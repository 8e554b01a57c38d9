package repository

import (
	"context"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) driver() string {
	return r.db.Dialector.Name()
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery(r.driver(), "create", "comments")()
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
}

func (r *commentRepository) GetByID(ctx context.Context, id models.ID) (*models.Comment, error) {
	defer observability.TrackQuery(r.driver(), "get", "comments")()
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User", authorSummary).Where("comments.id = ?", id).First(&comment).Error; err != nil {
		return nil, translateError(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByArticle(ctx context.Context, articleID models.ID) ([]*models.Comment, error) {
	defer observability.TrackQuery(r.driver(), "list", "comments")()
	comments := []*models.Comment{}
	err := r.db.WithContext(ctx).
		Preload("User", authorSummary).
		Where("article_id = ?", articleID).
		Order("created_at desc").
		Find(&comments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery(r.driver(), "update", "comments")()
	comment.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Comment{ID: comment.ID}).
		Updates(map[string]any{"content": comment.Content, "updated_at": comment.UpdatedAt})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id models.ID) error {
	defer observability.TrackQuery(r.driver(), "delete", "comments")()
	return translateError(r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{}).Error)
}

func (r *commentRepository) DeleteByArticle(ctx context.Context, articleID models.ID) (int64, error) {
	defer observability.TrackQuery(r.driver(), "delete_by_article", "comments")()
	res := r.db.WithContext(ctx).Where("article_id = ?", articleID).Delete(&models.Comment{})
	return res.RowsAffected, translateError(res.Error)
}

func (r *commentRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	defer observability.TrackQuery(r.driver(), "delete_orphans", "comments")()
	res := r.db.WithContext(ctx).
		Where("article_id NOT IN (?)", r.db.Model(&models.Article{}).Select("id")).
		Delete(&models.Comment{})
	return res.RowsAffected, translateError(res.Error)
}
