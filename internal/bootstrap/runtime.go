// Package bootstrap connects the backing services selected by configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/docstore"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Runtime holds the process-wide clients. Redis may be nil.
type Runtime struct {
	Store    repository.Store
	Redis    *redis.Client
	Verifier auth.Verifier
	Media    media.Host
}

// InitRuntime connects the store, Redis, the token verifier and the media host.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	verifier, err := auth.NewVerifier(ctx, auth.Options{
		JWKSURL:    cfg.AuthJWKSURL,
		HMACSecret: cfg.AuthHMACSecret,
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
	})
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("token verifier: %w", err)
	}

	host, err := NewMediaHost(cfg)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("media host: %w", err)
	}

	// May be nil if unreachable; rate limiting then fails open.
	rdb := database.ConnectRedis(cfg.RedisURL)

	return &Runtime{
		Store:    store,
		Redis:    rdb,
		Verifier: verifier,
		Media:    host,
	}, nil
}

// OpenStore connects the store named by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case config.DriverMongo:
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("document store connection failed: %w", err)
		}
		middleware.Logger.InfoContext(ctx, "Document store connected", slog.String("database", cfg.MongoDatabase))
		return store, nil
	default:
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		return repository.NewGormStore(db), nil
	}
}

// NewMediaHost builds the media host named by cfg.MediaDriver.
func NewMediaHost(cfg *config.Config) (media.Host, error) {
	switch strings.ToLower(cfg.MediaDriver) {
	case config.MediaCloudinary:
		host, err := media.NewCloudinaryHost(cfg.CloudinaryURL, cfg.MediaFolder, cfg.MediaMaxUploadMB)
		if err != nil {
			return nil, err
		}
		return host, nil
	case config.MediaLocal, "":
		host, err := media.NewLocalHost(cfg.MediaDir, cfg.MediaBaseURL, cfg.MediaMaxUploadMB)
		if err != nil {
			return nil, err
		}
		return host, nil
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.MediaDriver)
	}
}
