// Package database opens the relational store and the Redis client.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// gormConfig leaves foreign keys out of the schema. Article and category
// references are checked by the services, and an article is removed before
// its comments.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                                   newQueryLogger(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// PostgresDSN builds a key/value connection string. SSL is off unless
// DB_SSLMODE says otherwise.
func PostgresDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + cfg.DBHost,
		"port=" + cfg.DBPort,
		"user=" + cfg.DBUser,
		"password=" + cfg.DBPassword,
		"dbname=" + cfg.DBName,
		"sslmode=" + sslMode,
	}
	return strings.Join(parts, " ")
}

// Connect opens the relational store named by cfg.StoreDriver. Postgres is
// retried with a linear backoff while it starts up. The schema is migrated
// outside production.
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	open := func() (*gorm.DB, error) {
		if strings.EqualFold(cfg.StoreDriver, config.DriverSQLite) {
			return OpenSQLite(cfg.SQLitePath)
		}
		db, err := gorm.Open(postgres.Open(PostgresDSN(cfg)), gormConfig())
		if err != nil {
			return nil, err
		}
		if err := pingDB(ctx, db); err != nil {
			closeDB(db)
			return nil, err
		}
		return db, nil
	}

	db, err := withRetry(ctx, connectAttempts, connectBackoff, open)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.StoreDriver, err)
	}
	middleware.Logger.InfoContext(ctx, "Database connected", slog.String("driver", db.Dialector.Name()))

	if !cfg.IsProduction() {
		if err := Migrate(db); err != nil {
			closeDB(db)
			return nil, err
		}
	}
	if err := configurePool(db); err != nil {
		closeDB(db)
		return nil, err
	}
	return db, nil
}

func withRetry(ctx context.Context, attempts int, backoff time.Duration, open func() (*gorm.DB, error)) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := open()
		if err == nil {
			return db, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		middleware.Logger.WarnContext(ctx, "database not ready, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}
	return nil, lastErr
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Migrate creates or updates the tables for users, categories, articles,
// comments and bookmarks.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Article{},
		&models.Comment{},
		&models.Bookmark{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

// SQLite gets one connection so in-memory databases stay shared and writers
// never see SQLITE_BUSY.
var pools = map[string]poolSettings{
	"sqlite":   {maxOpen: 1, maxIdle: 1},
	"postgres": {maxOpen: 25, maxIdle: 5, maxLifetime: 5 * time.Minute},
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql pool: %w", err)
	}
	p, ok := pools[db.Dialector.Name()]
	if !ok {
		p = pools["postgres"]
	}
	sqlDB.SetMaxOpenConns(p.maxOpen)
	sqlDB.SetMaxIdleConns(p.maxIdle)
	sqlDB.SetConnMaxLifetime(p.maxLifetime)
	return nil
}
