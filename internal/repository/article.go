package repository

import (
	"context"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// articleRepository implements ArticleRepository
type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) driver() string {
	return r.db.Dialector.Name()
}

// populated preloads the author summary and the full category.
func (r *articleRepository) populated(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author", authorSummary).
		Preload("Category")
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	defer observability.TrackQuery(r.driver(), "create", "articles")()
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(article).Error)
}

func (r *articleRepository) GetByID(ctx context.Context, id models.ID) (*models.Article, error) {
	defer observability.TrackQuery(r.driver(), "get", "articles")()
	var article models.Article
	if err := r.populated(ctx).Where("articles.id = ?", id).First(&article).Error; err != nil {
		return nil, translateError(err)
	}
	return &article, nil
}

func (r *articleRepository) Count(ctx context.Context, filter ArticleFilter) (int64, error) {
	defer observability.TrackQuery(r.driver(), "count", "articles")()
	var total int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Article{}), filter).Count(&total).Error
	return total, translateError(err)
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter, limit, offset int) ([]*models.Article, error) {
	defer observability.TrackQuery(r.driver(), "list", "articles")()
	articles := []*models.Article{}
	err := r.applyFilter(r.populated(ctx), filter).
		Order("articles.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	if err != nil {
		return nil, translateError(err)
	}
	return articles, nil
}

func (r *articleRepository) ListByIDs(ctx context.Context, ids []models.ID) ([]*models.Article, error) {
	articles := []*models.Article{}
	if len(ids) == 0 {
		return articles, nil
	}
	defer observability.TrackQuery(r.driver(), "list_by_ids", "articles")()
	err := r.populated(ctx).
		Where("articles.id IN ?", ids).
		Order("articles.created_at DESC").
		Find(&articles).Error
	if err != nil {
		return nil, translateError(err)
	}
	return articles, nil
}

// Update overwrites the mutable columns. It never recreates a row that was
// deleted concurrently.
func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	defer observability.TrackQuery(r.driver(), "update", "articles")()
	article.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Article{ID: article.ID}).
		Updates(map[string]any{
			"title":           article.Title,
			"content":         article.Content,
			"category_id":     article.CategoryID,
			"cover_image_url": article.CoverImageURL,
			"updated_at":      article.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id models.ID) (int64, error) {
	defer observability.TrackQuery(r.driver(), "delete", "articles")()
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Article{})
	return res.RowsAffected, translateError(res.Error)
}

func (r *articleRepository) applyFilter(db *gorm.DB, filter ArticleFilter) *gorm.DB {
	switch filter.Kind {
	case FilterCategory:
		return db.Where("articles.category_id = ?", filter.CategoryID)
	case FilterAuthor:
		return db.Where("articles.author_id = ?", filter.AuthorID)
	case FilterSearch:
		if filter.Pattern == "" {
			return db
		}
		return db.Where(r.matchExpr(), filter.Pattern, filter.Pattern)
	default:
		return db
	}
}

// matchExpr is the dialect's case-insensitive regular expression match.
func (r *articleRepository) matchExpr() string {
	if r.driver() == "postgres" {
		return "(articles.title ~* ? OR articles.content ~* ?)"
	}
	return "(articles.title REGEXP ? OR articles.content REGEXP ?)"
}
