package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	travel := env.category(t, "Travel")
	u1, tok1 := env.user(t, "alice")
	_, tok2 := env.user(t, "bob")

	resp := env.do(t, http.MethodPost, "/articles", tok1, map[string]string{
		"title":    "Lisbon in spring",
		"category": travel.ID.String(),
		"content":  "<p>Trams and tiles.</p>",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Article](t, resp)
	require.NotEmpty(t, created.ID)
	require.NotNil(t, created.Author)
	assert.Equal(t, u1.ID, created.Author.ID)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Travel", created.Category.Name)

	path := "/articles/" + created.ID.String()
	update := map[string]string{
		"title":    "Lisbon in autumn",
		"category": travel.ID.String(),
		"content":  "<p>Still trams.</p>",
	}

	resp = env.do(t, http.MethodPut, path, tok2, update)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPut, path, tok1, update)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lisbon in autumn", decode[models.Article](t, resp).Title)

	resp = env.do(t, http.MethodDelete, path, tok2, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, path, tok1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Article deleted", decode[map[string]string](t, resp)["message"])

	resp = env.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, path, tok1, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateArticle_SanitizesAndIgnoresClientAuthor(t *testing.T) {
	env := newTestEnv(t)
	travel := env.category(t, "Travel")
	u1, tok1 := env.user(t, "alice")
	u2, _ := env.user(t, "bob")

	resp := env.do(t, http.MethodPost, "/articles", tok1, map[string]string{
		"title":    "Hello",
		"category": travel.ID.String(),
		"content":  `<p onclick="steal()">hi</p><script>alert(1)</script>`,
		"author":   u2.ID.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Article](t, resp)
	assert.Equal(t, "<p>hi</p>", created.Content)
	assert.Equal(t, u1.ID, created.Author.ID)
}

func TestCreateArticle_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.user(t, "alice")

	resp := env.do(t, http.MethodPost, "/articles", tok, map[string]string{"title": " "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, models.CodeValidation, body.Code)
	assert.Len(t, body.Errors, 3)

	resp = env.do(t, http.MethodPost, "/articles", tok, map[string]string{
		"title":    "t",
		"category": models.NewID().String(),
		"content":  "c",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/articles", "", map[string]string{"title": "t"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateArticle_MultipartWithImage(t *testing.T) {
	env := newTestEnv(t)
	travel := env.category(t, "Travel")
	_, tok := env.user(t, "alice")

	resp := env.doMultipart(t, http.MethodPost, "/articles", tok, map[string]string{
		"title":    "Porto",
		"category": travel.ID.String(),
		"content":  "<p>Bridges</p>",
	}, testutil.TinyPNG(t, 8, 8))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[models.Article](t, resp)
	assert.Equal(t, "https://media.test/inkwell/img1.webp", created.CoverImageURL)
	require.Len(t, env.media.Uploaded(), 1)
	assert.Equal(t, "cover.png", env.media.Uploaded()[0].Filename)
}

func TestUpdateArticle_ReplacesImage(t *testing.T) {
	env := newTestEnv(t)
	travel := env.category(t, "Travel")
	_, tok := env.user(t, "alice")
	fields := map[string]string{
		"title":    "Porto",
		"category": travel.ID.String(),
		"content":  "<p>Bridges</p>",
	}

	resp := env.doMultipart(t, http.MethodPost, "/articles", tok, fields, testutil.TinyPNG(t, 8, 8))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Article](t, resp)

	resp = env.doMultipart(t, http.MethodPut, "/articles/"+created.ID.String(), tok, fields, testutil.TinyPNG(t, 8, 8))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Article](t, resp)

	assert.Equal(t, "https://media.test/inkwell/img2.webp", updated.CoverImageURL)
	assert.Equal(t, []string{created.CoverImageURL}, env.media.Deleted())
}

func TestCreateArticle_MediaFailureIsOpaque(t *testing.T) {
	env := newTestEnv(t)
	travel := env.category(t, "Travel")
	_, tok := env.user(t, "alice")
	env.media.UploadErr = errors.New("cloud bucket unreachable")

	resp := env.doMultipart(t, http.MethodPost, "/articles", tok, map[string]string{
		"title":    "Porto",
		"category": travel.ID.String(),
		"content":  "<p>Bridges</p>",
	}, testutil.TinyPNG(t, 8, 8))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Failed to create article")
	assert.NotContains(t, body, "bucket")

	total, err := env.store.Articles().Count(context.Background(), repository.ArticleFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.user(t, "alice")

	resp := env.doMultipart(t, http.MethodPost, "/articles/upload-image", tok, nil, testutil.TinyPNG(t, 4, 4))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "https://media.test/inkwell/img1.webp", decode[string](t, resp))

	resp = env.doMultipart(t, http.MethodPost, "/articles/upload-image", tok, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.doMultipart(t, http.MethodPost, "/articles/upload-image", "", nil, testutil.TinyPNG(t, 4, 4))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListArticles(t *testing.T) {
	env := newTestEnv(t)
	travel := env.category(t, "Travel")
	sport := env.category(t, "Sport")
	u1, tok1 := env.user(t, "alice")
	u2, tok2 := env.user(t, "bob")

	t.Run("empty store", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[service.ArticleList](t, resp)
		assert.Empty(t, list.Articles)
		assert.Zero(t, list.PagingInfo.Total)

		resp = env.do(t, http.MethodGet, "/articles/category/"+travel.ID.String(), "", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		list = decode[service.ArticleList](t, resp)
		assert.NotNil(t, list.Articles)
		assert.Equal(t, 1, list.PagingInfo.Pages)

		resp = env.do(t, http.MethodGet, "/articles/me", tok1, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	for i := 0; i < 6; i++ {
		env.article(t, u1, travel, "Trip")
	}
	env.article(t, u2, sport, "Match report")

	t.Run("pages of five", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles?page=2", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[service.ArticleList](t, resp)
		assert.Len(t, list.Articles, 2)
		assert.Equal(t, int64(7), list.PagingInfo.Total)
		assert.Equal(t, 2, list.PagingInfo.Page)
		assert.Equal(t, 2, list.PagingInfo.Pages)
	})

	t.Run("huge page is empty", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles?page=1844674407370955163", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[service.ArticleList](t, resp)
		assert.Empty(t, list.Articles)
		assert.Equal(t, 1844674407370955163, list.PagingInfo.Page)
		assert.Equal(t, int64(7), list.PagingInfo.Total)
	})

	t.Run("author shows id and name only", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[struct {
			Articles []struct {
				Author map[string]any `json:"author"`
			} `json:"articles"`
		}](t, resp)
		require.NotEmpty(t, list.Articles)
		for _, a := range list.Articles {
			assert.ElementsMatch(t, []string{"_id", "name"}, mapKeys(a.Author))
		}
	})

	t.Run("by category", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles/category/"+sport.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[service.ArticleList](t, resp)
		require.Len(t, list.Articles, 1)
		assert.Equal(t, "Match report", list.Articles[0].Title)
	})

	t.Run("by author", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles/user/"+u2.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[service.ArticleList](t, resp).Articles, 1)

		resp = env.do(t, http.MethodGet, "/articles/user/"+models.NewID().String(), "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("mine uses a larger page", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles/me", tok1, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[service.ArticleList](t, resp)
		assert.Len(t, list.Articles, 6)
		assert.Equal(t, 1, list.PagingInfo.Pages)

		resp = env.do(t, http.MethodGet, "/articles/me?pageSize=4&page=2", tok1, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[service.ArticleList](t, resp).Articles, 2)

		resp = env.do(t, http.MethodGet, "/articles/me", tok2, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[service.ArticleList](t, resp).Articles, 1)
	})

	t.Run("search", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/articles/search?searchQuery=MATCH", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[service.ArticleList](t, resp).Articles, 1)

		resp = env.do(t, http.MethodGet, "/articles/search?searchQuery=zeppelin", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetCategories(t *testing.T) {
	env := newTestEnv(t)
	env.category(t, "Travel")
	env.category(t, "Sport")

	resp := env.do(t, http.MethodGet, "/articles/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Category](t, resp), 2)
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
