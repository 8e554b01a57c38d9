// Package server contains the HTTP handlers for the blog API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/auth"
	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Deps are the process-wide clients a Server is built from.
type Deps struct {
	Store    repository.Store
	Redis    *redis.Client
	Verifier auth.Verifier
	Media    media.Host
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          repository.Store
	redis          *redis.Client
	verifier       auth.Verifier
	media          media.Host
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	limiter        *middleware.Limiter
	articleService *service.ArticleService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer connects every backing service selected by cfg and builds a Server on top.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, Deps{
		Store:    rt.Store,
		Redis:    rt.Redis,
		Verifier: rt.Verifier,
		Media:    rt.Media,
	})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Redis is optional.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("server: store is required")
	case deps.Verifier == nil:
		return nil, errors.New("server: token verifier is required")
	case deps.Media == nil:
		return nil, errors.New("server: media host is required")
	}

	s := &Server{
		config:         cfg,
		store:          deps.Store,
		redis:          deps.Redis,
		verifier:       deps.Verifier,
		media:          deps.Media,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		limiter:        middleware.NewLimiter(deps.Redis, cfg.IsProduction()),
	}

	if names := s.featureFlags.Names(); len(names) > 0 {
		middleware.Logger.Info("feature flags loaded", slog.Any("flags", names))
	}

	articles := deps.Store.Articles()
	categories := repository.NewCachedCategoryRepository(deps.Store.Categories(), cache.New(deps.Redis), cfg.CategoryCacheTTL)
	s.articleService = service.NewArticleService(articles, categories, deps.Store.Comments(), deps.Media, s.featureFlags)
	s.commentService = service.NewCommentService(deps.Store.Comments(), articles)
	s.userService = service.NewUserService(deps.Store.Users(), articles)

	return s, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell API",
		BodyLimit:    s.bodyLimit(),
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// bodyLimit leaves room for the multipart envelope around the largest allowed image.
func (s *Server) bodyLimit() int {
	mb := s.config.MediaMaxUploadMB
	if mb <= 0 {
		mb = media.DefaultMaxUploadMB
	}
	return (mb + 1) * 1024 * 1024
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Cover images are loaded cross-origin by the frontend.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Welcome)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Inkwell API Metrics",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.media.(*media.LocalHost); ok {
		app.Static("/media", local.Dir(), fiber.Static{MaxAge: 86400})
	}

	actor := s.ActorRequired()

	articles := app.Group("/articles")
	articles.Get("/", s.GetArticles)
	articles.Get("/search", s.limiter.Handler(middleware.SearchLimit), s.SearchArticles)
	articles.Get("/categories", s.GetCategories)
	articles.Get("/category/:id", s.GetArticlesByCategory)
	articles.Get("/user/:id", s.GetArticlesByAuthor)
	articles.Get("/me", actor, s.GetMyArticles)
	articles.Post("/", actor, s.limiter.Handler(middleware.CreateArticleLimit), s.CreateArticle)
	articles.Post("/upload-image", actor, s.UploadImage)

	// Define specific /:articleId/comments routes BEFORE generic /:id route
	articles.Get("/:articleId/comments", s.GetComments)
	articles.Post("/:articleId/comments", actor, s.limiter.Handler(middleware.CreateCommentLimit), s.CreateComment)
	articles.Patch("/:articleId/comments/:commentId", actor, s.UpdateComment)
	articles.Delete("/:articleId/comments/:commentId", actor, s.DeleteComment)

	articles.Get("/:id", s.GetArticle)
	articles.Put("/:id", actor, s.UpdateArticle)
	articles.Delete("/:id", actor, s.DeleteArticle)

	me := app.Group("/my/user")
	// Registration needs a verified token but no local user yet.
	me.Post("/", s.TokenRequired(), s.RegisterUser)
	me.Get("/", actor, s.GetMyProfile)
	me.Put("/", actor, s.UpdateMyProfile)
	me.Get("/bookmarks", actor, s.GetMyBookmarks)
	me.Post("/bookmarks", actor, s.AddBookmark)
	me.Delete("/bookmarks/:id", actor, s.RemoveBookmark)

	app.Get("/users/:id", s.GetUserProfile)
}

// Welcome handles GET /
func (s *Server) Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome"})
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks. Redis only backs rate
// limiting, so a missing client is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
		middleware.Logger.WarnContext(ctx, "store ping failed", slog.String("error", err.Error()))
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store":  storeStatus,
			"driver": s.store.Driver(),
			"redis":  redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port, building the app first if NewApp
// has not been called.
func (s *Server) Start() error {
	if s.app == nil {
		s.NewApp()
	}
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server and closes the store and Redis clients.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
