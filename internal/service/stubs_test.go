package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// articleRepoStub is a stub for repository.ArticleRepository.
type articleRepoStub struct {
	createFn    func(context.Context, *models.Article) error
	getByIDFn   func(context.Context, models.ID) (*models.Article, error)
	countFn     func(context.Context, repository.ArticleFilter) (int64, error)
	listFn      func(context.Context, repository.ArticleFilter, int, int) ([]*models.Article, error)
	listByIDsFn func(context.Context, []models.ID) ([]*models.Article, error)
	updateFn    func(context.Context, *models.Article) error
	deleteFn    func(context.Context, models.ID) (int64, error)
}

func (s *articleRepoStub) Create(ctx context.Context, a *models.Article) error {
	return s.createFn(ctx, a)
}
func (s *articleRepoStub) GetByID(ctx context.Context, id models.ID) (*models.Article, error) {
	return s.getByIDFn(ctx, id)
}
func (s *articleRepoStub) Count(ctx context.Context, f repository.ArticleFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *articleRepoStub) List(ctx context.Context, f repository.ArticleFilter, limit, offset int) ([]*models.Article, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *articleRepoStub) ListByIDs(ctx context.Context, ids []models.ID) ([]*models.Article, error) {
	return s.listByIDsFn(ctx, ids)
}
func (s *articleRepoStub) Update(ctx context.Context, a *models.Article) error {
	return s.updateFn(ctx, a)
}
func (s *articleRepoStub) Delete(ctx context.Context, id models.ID) (int64, error) {
	return s.deleteFn(ctx, id)
}

func noopArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		createFn: func(_ context.Context, a *models.Article) error {
			if a.ID == "" {
				a.ID = models.NewID()
			}
			return nil
		},
		getByIDFn: func(_ context.Context, id models.ID) (*models.Article, error) {
			return &models.Article{ID: id}, nil
		},
		countFn: func(_ context.Context, _ repository.ArticleFilter) (int64, error) { return 0, nil },
		listFn: func(_ context.Context, _ repository.ArticleFilter, _, _ int) ([]*models.Article, error) {
			return []*models.Article{}, nil
		},
		listByIDsFn: func(_ context.Context, _ []models.ID) ([]*models.Article, error) { return []*models.Article{}, nil },
		updateFn:    func(_ context.Context, _ *models.Article) error { return nil },
		deleteFn:    func(_ context.Context, _ models.ID) (int64, error) { return 1, nil },
	}
}

// articleStore backs an articleRepoStub with a map so Create/GetByID round-trip.
func articleStore(seed ...*models.Article) (*articleRepoStub, map[models.ID]*models.Article) {
	rows := make(map[models.ID]*models.Article)
	for _, a := range seed {
		rows[a.ID] = a
	}
	repo := noopArticleRepo()
	repo.createFn = func(_ context.Context, a *models.Article) error {
		if a.ID == "" {
			a.ID = models.NewID()
		}
		cp := *a
		rows[a.ID] = &cp
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id models.ID) (*models.Article, error) {
		a, ok := rows[id]
		if !ok {
			return nil, models.ErrNotFound
		}
		cp := *a
		return &cp, nil
	}
	repo.updateFn = func(_ context.Context, a *models.Article) error {
		if _, ok := rows[a.ID]; !ok {
			return models.ErrNotFound
		}
		cp := *a
		rows[a.ID] = &cp
		return nil
	}
	repo.deleteFn = func(_ context.Context, id models.ID) (int64, error) {
		if _, ok := rows[id]; !ok {
			return 0, nil
		}
		delete(rows, id)
		return 1, nil
	}
	return repo, rows
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	listFn    func(context.Context) ([]*models.Category, error)
	getByIDFn func(context.Context, models.ID) (*models.Category, error)
	ensureFn  func(context.Context, *models.Category) (*models.Category, error)
}

func (s *categoryRepoStub) List(ctx context.Context) ([]*models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id models.ID) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) Ensure(ctx context.Context, c *models.Category) (*models.Category, error) {
	return s.ensureFn(ctx, c)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		listFn: func(_ context.Context) ([]*models.Category, error) { return []*models.Category{}, nil },
		getByIDFn: func(_ context.Context, id models.ID) (*models.Category, error) {
			return &models.Category{ID: id, Name: "Travel", Slug: "travel"}, nil
		},
		ensureFn: func(_ context.Context, c *models.Category) (*models.Category, error) { return c, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn          func(context.Context, *models.Comment) error
	getByIDFn         func(context.Context, models.ID) (*models.Comment, error)
	listByArticleFn   func(context.Context, models.ID) ([]*models.Comment, error)
	updateFn          func(context.Context, *models.Comment) error
	deleteFn          func(context.Context, models.ID) error
	deleteByArticleFn func(context.Context, models.ID) (int64, error)
	deleteOrphansFn   func(context.Context) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id models.ID) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByArticle(ctx context.Context, articleID models.ID) ([]*models.Comment, error) {
	return s.listByArticleFn(ctx, articleID)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, id models.ID) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) DeleteByArticle(ctx context.Context, articleID models.ID) (int64, error) {
	return s.deleteByArticleFn(ctx, articleID)
}
func (s *commentRepoStub) DeleteOrphans(ctx context.Context) (int64, error) {
	return s.deleteOrphansFn(ctx)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			if c.ID == "" {
				c.ID = models.NewID()
			}
			return nil
		},
		getByIDFn:         func(_ context.Context, id models.ID) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByArticleFn:   func(_ context.Context, _ models.ID) ([]*models.Comment, error) { return []*models.Comment{}, nil },
		updateFn:          func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:          func(_ context.Context, _ models.ID) error { return nil },
		deleteByArticleFn: func(_ context.Context, _ models.ID) (int64, error) { return 0, nil },
		deleteOrphansFn:   func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn         func(context.Context, *models.User) error
	getByIDFn        func(context.Context, models.ID) (*models.User, error)
	getByAuth0IDFn   func(context.Context, string) (*models.User, error)
	updateFn         func(context.Context, *models.User) error
	addBookmarkFn    func(context.Context, models.ID, models.ID) error
	removeBookmarkFn func(context.Context, models.ID, models.ID) error
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) GetByID(ctx context.Context, id models.ID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByAuth0ID(ctx context.Context, sub string) (*models.User, error) {
	return s.getByAuth0IDFn(ctx, sub)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error {
	return s.updateFn(ctx, u)
}
func (s *userRepoStub) AddBookmark(ctx context.Context, userID, articleID models.ID) error {
	return s.addBookmarkFn(ctx, userID, articleID)
}
func (s *userRepoStub) RemoveBookmark(ctx context.Context, userID, articleID models.ID) error {
	return s.removeBookmarkFn(ctx, userID, articleID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			if u.ID == "" {
				u.ID = models.NewID()
			}
			return nil
		},
		getByIDFn:        func(_ context.Context, id models.ID) (*models.User, error) { return &models.User{ID: id}, nil },
		getByAuth0IDFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, models.ErrNotFound },
		updateFn:         func(_ context.Context, _ *models.User) error { return nil },
		addBookmarkFn:    func(_ context.Context, _, _ models.ID) error { return nil },
		removeBookmarkFn: func(_ context.Context, _, _ models.ID) error { return nil },
	}
}

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppError(t, err, models.CodeValidation)
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeForbidden)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
