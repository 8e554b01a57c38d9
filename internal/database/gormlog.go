package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/middleware"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// queryLogger sends GORM output through middleware.Logger so SQL lines carry
// the request ID of the handler that issued them.
type queryLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

func newQueryLogger(level logger.LogLevel) *queryLogger {
	return &queryLogger{level: level, slow: slowQueryThreshold}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, logger.Info, slog.LevelInfo, fmt.Sprintf(msg, args...))
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, logger.Warn, slog.LevelWarn, fmt.Sprintf(msg, args...))
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, logger.Error, slog.LevelError, fmt.Sprintf(msg, args...))
}

func (l *queryLogger) emit(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, attrs ...slog.Attr) {
	if l.level < min {
		return
	}
	middleware.Logger.LogAttrs(ctx, level, msg, attrs...)
}

// Trace logs failed queries at error and slow queries at warn. Not-found
// lookups are expected and stay silent.
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow
	if !failed && !slow && l.level < logger.Info {
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	switch {
	case failed:
		l.emit(ctx, logger.Error, slog.LevelError, "query failed", append(attrs, slog.String("error", err.Error()))...)
	case slow:
		l.emit(ctx, logger.Warn, slog.LevelWarn, "slow query", attrs...)
	default:
		l.emit(ctx, logger.Info, slog.LevelDebug, "query", attrs...)
	}
}
