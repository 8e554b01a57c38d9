package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/docs"
	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "server-test-secret-0123456789abcdef"

type testEnv struct {
	app   *fiber.App
	store repository.Store
	media *testutil.MediaStub
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithRedis(t, nil)
}

func newTestEnvWithRedis(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, rdb, nil)
}

func newTestEnvWithConfig(t *testing.T, rdb *redis.Client, adjust func(*config.Config)) *testEnv {
	t.Helper()
	db, err := database.OpenTestSQLite()
	require.NoError(t, err)
	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	host := testutil.NewMediaStub()
	cfg := &config.Config{Env: "test", AllowedOrigins: "*", MediaMaxUploadMB: 5}
	if adjust != nil {
		adjust(cfg)
	}
	s, err := NewServerWithDeps(cfg, Deps{
		Store:    store,
		Redis:    rdb,
		Verifier: auth.NewHMACVerifier(testSecret, "", ""),
		Media:    host,
	})
	require.NoError(t, err)

	return &testEnv{app: s.NewApp(), store: store, media: host}
}

// user creates a local user for name and returns it with a token for its subject.
func (e *testEnv) user(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	subject := "auth0|" + name
	u := &models.User{Auth0ID: subject, Email: name + "@example.com", Name: name}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u, testutil.SignedToken(t, testSecret, subject, "", "")
}

func (e *testEnv) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := e.store.Categories().Ensure(context.Background(), &models.Category{
		Name: name,
		Slug: strings.ToLower(name),
	})
	require.NoError(t, err)
	return c
}

func (e *testEnv) article(t *testing.T, author *models.User, category *models.Category, title string) *models.Article {
	t.Helper()
	a := &models.Article{
		AuthorID:   author.ID,
		CategoryID: category.ID,
		Title:      title,
		Content:    "<p>" + title + "</p>",
	}
	require.NoError(t, e.store.Articles().Create(context.Background(), a))
	return a
}

// do sends a JSON request. body may be nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

// doMultipart sends fields plus an optional imageFile part.
func (e *testEnv) doMultipart(t *testing.T, method, path, token string, fields map[string]string, image []byte) *http.Response {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile(imageField, "cover.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(t, req, token)
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestNewServerWithDeps_RequiresDeps(t *testing.T) {
	cfg := &config.Config{Env: "test"}
	_, err := NewServerWithDeps(cfg, Deps{})
	assert.ErrorContains(t, err, "store is required")
}

func TestWelcome(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome", decode[map[string]string](t, resp)["message"])
}

func TestHealthChecks(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		env := newTestEnv(t)
		resp := env.do(t, http.MethodGet, "/health/live", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("ready without redis", func(t *testing.T) {
		env := newTestEnv(t)
		resp := env.do(t, http.MethodGet, "/health/ready", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "healthy", body.Checks["store"])
		assert.Equal(t, "sqlite", body.Checks["driver"])
		assert.Equal(t, "unavailable", body.Checks["redis"])
	})

	t.Run("ready tracks redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		env := newTestEnvWithRedis(t, rdb)

		resp := env.do(t, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		mr.Close()
		resp = env.do(t, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/articles/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authorization required", decode[models.ErrorResponse](t, resp).Error)

	resp = env.do(t, http.MethodGet, "/articles/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired token", decode[models.ErrorResponse](t, resp).Error)

	wrongKey := testutil.SignedToken(t, "some-other-secret-0123456789abcdef", "auth0|eve", "", "")
	resp = env.do(t, http.MethodGet, "/articles/me", wrongKey, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid token, but no local user for the subject yet.
	stranger := testutil.SignedToken(t, testSecret, "auth0|stranger", "", "")
	resp = env.do(t, http.MethodGet, "/articles/me", stranger, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouteLimits_FollowConfiguredEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	prod := newTestEnvWithConfig(t, rdb, func(cfg *config.Config) { cfg.Env = "production" })
	resp := prod.do(t, http.MethodGet, "/articles/search?searchQuery=x", "", nil)
	assert.Equal(t, "60", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", resp.Header.Get("X-RateLimit-Remaining"))

	dev := newTestEnvWithRedis(t, rdb)
	resp = dev.do(t, http.MethodGet, "/articles/search?searchQuery=x", "", nil)
	assert.Equal(t, "60", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestAPIDocsCoverEveryRoute(t *testing.T) {
	env := newTestEnv(t)

	var spec struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &spec))

	checked := 0
	for _, r := range env.app.GetRoutes(true) {
		if r.Method == http.MethodHead || !documentedPrefix(r.Path) {
			continue
		}
		path := strings.TrimSuffix(r.Path, "/")
		for _, p := range r.Params {
			path = strings.Replace(path, ":"+p, "{"+p+"}", 1)
		}
		ops, ok := spec.Paths[path]
		if assert.True(t, ok, "undocumented path %s", path) {
			assert.Contains(t, ops, strings.ToLower(r.Method), "undocumented %s %s", r.Method, path)
		}
		checked++
	}
	assert.Greater(t, checked, 20)
}

func documentedPrefix(path string) bool {
	for _, prefix := range []string{"/articles", "/my/", "/users/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
