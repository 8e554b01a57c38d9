package repository

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedCategoryRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := f.store.Categories()
	cached := NewCachedCategoryRepository(base, cache.New(client), time.Minute)

	listed, err := cached.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, mr.Exists(cache.CategoriesKey()))

	// Writes that bypass the decorator stay invisible until invalidated.
	_, err = base.Ensure(ctx, &models.Category{Name: "Sport", Slug: "sport"})
	require.NoError(t, err)
	listed, err = cached.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = cached.Ensure(ctx, &models.Category{Name: "Travel", Slug: "travel"})
	require.NoError(t, err)
	listed, err = cached.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	got, err := cached.GetByID(ctx, f.travel.ID)
	require.NoError(t, err)
	assert.Equal(t, *f.travel, *got)
	assert.True(t, mr.Exists(cache.CategoryKey(f.travel.ID)))

	_, err = cached.GetByID(ctx, models.NewID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestNewCachedCategoryRepository_DisabledReturnsNext(t *testing.T) {
	f := newFixture(t)
	base := f.store.Categories()
	assert.Same(t, base, NewCachedCategoryRepository(base, cache.New(nil), time.Minute))
}

func TestCachedCategoryRepository_ZeroTTLOnlyInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set(cache.CategoriesKey(), "[]"))

	repo := NewCachedCategoryRepository(f.store.Categories(), cache.New(client), 0)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2, "reads go to the store")

	_, err = repo.Ensure(ctx, &models.Category{Name: "Sport", Slug: "sport"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.CategoriesKey()))
}
