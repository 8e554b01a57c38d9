package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	defer observability.TrackQuery(r.db.Dialector.Name(), "list", "categories")()
	categories := []*models.Category{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translateError(err)
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id models.ID) (*models.Category, error) {
	defer observability.TrackQuery(r.db.Dialector.Name(), "get", "categories")()
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

func (r *categoryRepository) Ensure(ctx context.Context, category *models.Category) (*models.Category, error) {
	defer observability.TrackQuery(r.db.Dialector.Name(), "ensure", "categories")()
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(category).Error; err != nil {
		return nil, translateError(err)
	}
	var stored models.Category
	if err := db.Where("slug = ?", category.Slug).First(&stored).Error; err != nil {
		return nil, translateError(err)
	}
	return &stored, nil
}
