package database

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOpenTestSQLite_MigratesSchema(t *testing.T) {
	db, err := OpenTestSQLite()
	require.NoError(t, err)

	for _, m := range []any{&models.User{}, &models.Category{}, &models.Article{}, &models.Comment{}, &models.Bookmark{}} {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestOpenTestSQLite_IsolatedPerCall(t *testing.T) {
	a, err := OpenTestSQLite()
	require.NoError(t, err)
	b, err := OpenTestSQLite()
	require.NoError(t, err)

	require.NoError(t, a.Create(&models.Category{Name: "Travel", Slug: "travel"}).Error)

	var n int64
	require.NoError(t, b.Model(&models.Category{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSQLiteRegexp(t *testing.T) {
	db, err := OpenTestSQLite()
	require.NoError(t, err)

	var matched int
	require.NoError(t, db.Raw("SELECT ? REGEXP ?", "say Hello world", "hello").Scan(&matched).Error)
	assert.Equal(t, 1, matched)

	require.NoError(t, db.Raw("SELECT ? REGEXP ?", "goodbye", "hello").Scan(&matched).Error)
	assert.Equal(t, 0, matched)

	err = db.Raw("SELECT ? REGEXP ?", "x", "(").Scan(&matched).Error
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "inkwell"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=inkwell sslmode=disable", dsn)

	dsn = PostgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "inkwell", DBSSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client := ConnectRedis(mr.Addr())
	require.NotNil(t, client)
	_ = client.Close()

	client = ConnectRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, client)
	_ = client.Close()

	assert.Nil(t, ConnectRedis("redis://%%bad"))
	assert.Nil(t, ConnectRedis(""))
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("cache:6380")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)

	opts, err = redisOptions("redis://:secret@cache:6379/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestConnect_SQLiteFile(t *testing.T) {
	cfg := &config.Config{
		Env:         "development",
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "inkwell.db"),
	}
	db, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(db) })

	assert.True(t, db.Migrator().HasTable(&models.Article{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestWithRetry(t *testing.T) {
	calls := 0
	db, err := withRetry(context.Background(), 3, time.Millisecond, func() (*gorm.DB, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return &gorm.DB{}, nil
	})
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = withRetry(context.Background(), 2, time.Millisecond, func() (*gorm.DB, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 2, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = withRetry(ctx, 5, time.Hour, func() (*gorm.DB, error) {
		return nil, errors.New("connection refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := middleware.Logger
	middleware.Logger = middleware.NewLogger(&buf, "test", "debug")
	t.Cleanup(func() { middleware.Logger = prev })

	l := newQueryLogger(logger.Warn)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, nil)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), sql, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "syntax error")

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Empty(t, buf.String())
}
