package seed

import (
	"context"
	"strings"
	"testing"

	"inkwell/internal/database"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := database.OpenTestSQLite()
	require.NoError(t, err)
	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Travel":               "travel",
		"Personal Development": "personal-development",
		"  Food & Drink!  ":    "food-drink",
		"C++ / Go":             "c-go",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestLoadCategories(t *testing.T) {
	seeds, err := LoadCategories(strings.NewReader(`
categories:
  - name: Travel
  - name: Personal Development
    slug: growth
`))
	require.NoError(t, err)
	assert.Equal(t, []CategorySeed{
		{Name: "Travel", Slug: "travel"},
		{Name: "Personal Development", Slug: "growth"},
	}, seeds)
}

func TestLoadCategories_Rejects(t *testing.T) {
	_, err := LoadCategories(strings.NewReader("categories:\n  - name: ''\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadCategories(strings.NewReader("categories:\n  - name: Travel\n  - name: travel\n"))
	assert.ErrorContains(t, err, "duplicate slug")

	_, err = LoadCategories(strings.NewReader("categories: [unterminated"))
	assert.Error(t, err)
}

func TestLoadCategoriesFile_BundledSeeds(t *testing.T) {
	seeds, err := LoadCategoriesFile("../../seeds/categories.yml")
	require.NoError(t, err)
	assert.Len(t, seeds, len(DefaultCategories))
}

func TestCategories_Idempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := Categories(ctx, store.Categories(), DefaultCategories)
	require.NoError(t, err)
	second, err := Categories(ctx, store.Categories(), DefaultCategories)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	all, err := store.Categories().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultCategories))
}

func TestDemo(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := Categories(ctx, store.Categories(), DefaultCategories)
	require.NoError(t, err)

	res, err := Demo(ctx, store, DemoOptions{Users: 3, Articles: 7, CommentsPerArticle: 2, Seed: 42})
	require.NoError(t, err)
	assert.Len(t, res.Users, 3)
	assert.Len(t, res.Articles, 7)
	assert.Equal(t, 14, res.Comments)

	total, err := store.Articles().Count(ctx, repository.ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)

	comments, err := store.Comments().ListByArticle(ctx, res.Articles[0].ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestDemo_RequiresCategories(t *testing.T) {
	store := newStore(t)
	_, err := Demo(context.Background(), store, DemoOptions{Users: 1, Articles: 1})
	assert.ErrorContains(t, err, "seed categories first")
}

func TestSweepOrphans(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := Categories(ctx, store.Categories(), DefaultCategories)
	require.NoError(t, err)
	res, err := Demo(ctx, store, DemoOptions{Users: 1, Articles: 2, CommentsPerArticle: 3, Seed: 7})
	require.NoError(t, err)

	// Simulate a delete that stopped before the comment cascade.
	gone := res.Articles[0].ID
	rows, err := store.Articles().Delete(ctx, gone)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	removed, err := SweepOrphans(ctx, store.Comments())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	removed, err = SweepOrphans(ctx, store.Comments())
	require.NoError(t, err)
	assert.Zero(t, removed)

	kept, err := store.Comments().ListByArticle(ctx, res.Articles[1].ID)
	require.NoError(t, err)
	assert.Len(t, kept, 3)

	orphans, err := store.Comments().ListByArticle(ctx, gone)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
