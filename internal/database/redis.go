package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// redisObserver counts failed commands and traces each command as a client
// span. A cache miss (redis.Nil) is not a failure.
type redisObserver struct{}

func (redisObserver) DialHook(next redis.DialHook) redis.DialHook { return next }

func (redisObserver) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.StartClientSpan(ctx, "redis", cmd.Name())
		err := next(ctx, cmd)
		observeRedis(cmd.Name(), err)
		observability.EndSpan(span, redisFailure(err))
		return err
	}
}

func (redisObserver) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.StartClientSpan(ctx, "redis", "pipeline")
		err := next(ctx, cmds)
		observeRedis("pipeline", err)
		observability.EndSpan(span, redisFailure(err))
		return err
	}
}

func redisFailure(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func observeRedis(operation string, err error) {
	if redisFailure(err) != nil {
		observability.RedisErrorRate.WithLabelValues(operation).Inc()
	}
}

// redisOptions accepts a bare host:port or a redis:// (rediss://) URL.
func redisOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// ConnectRedis returns a client for addr, or nil when addr is empty, invalid
// or unreachable. Callers treat a nil client as "no Redis": rate limits follow
// their fail policy and category reads go to the store.
func ConnectRedis(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	opts, err := redisOptions(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, continuing without redis", slog.String("error", err.Error()))
		return nil
	}

	client := redis.NewClient(opts)
	client.AddHook(redisObserver{})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, continuing without redis",
			slog.String("addr", opts.Addr),
			slog.String("error", err.Error()),
		)
		_ = client.Close()
		return nil
	}
	middleware.Logger.Info("Redis connected", slog.String("addr", opts.Addr), slog.Int("db", opts.DB))
	return client
}
