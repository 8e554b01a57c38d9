package repository

import (
	"context"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
)

type cachedCategoryRepository struct {
	next  CategoryRepository
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedCategoryRepository serves List and GetByID through c for ttl.
// A non-positive ttl leaves reads uncached, but Ensure still invalidates the
// affected keys so servers that do cache see new categories.
func NewCachedCategoryRepository(next CategoryRepository, c *cache.Cache, ttl time.Duration) CategoryRepository {
	if !c.Enabled() {
		return next
	}
	return &cachedCategoryRepository{next: next, cache: c, ttl: ttl}
}

func (r *cachedCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	if r.ttl <= 0 {
		return r.next.List(ctx)
	}
	var categories []*models.Category
	err := r.cache.Aside(ctx, cache.CategoriesKey(), &categories, r.ttl, func() error {
		var err error
		categories, err = r.next.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *cachedCategoryRepository) GetByID(ctx context.Context, id models.ID) (*models.Category, error) {
	if r.ttl <= 0 {
		return r.next.GetByID(ctx, id)
	}
	var category models.Category
	err := r.cache.Aside(ctx, cache.CategoryKey(id), &category, r.ttl, func() error {
		found, err := r.next.GetByID(ctx, id)
		if err != nil {
			return err
		}
		category = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *cachedCategoryRepository) Ensure(ctx context.Context, category *models.Category) (*models.Category, error) {
	stored, err := r.next.Ensure(ctx, category)
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate(ctx, cache.CategoriesKey(), cache.CategoryKey(stored.ID))
	return stored, nil
}
