package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// CodeRateLimited marks responses rejected by a Limit.
const CodeRateLimited = "RATE_LIMITED"

// Limit is a fixed-window request quota for one kind of request.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	// FailClosed answers 503 while the counter store is unreachable instead
	// of letting requests through.
	FailClosed bool
}

// Quotas for the write-heavy and scan-heavy endpoints.
var (
	SearchLimit        = Limit{Name: "search", Max: 60, Window: time.Minute}
	CreateArticleLimit = Limit{Name: "create_article", Max: 10, Window: time.Minute}
	CreateCommentLimit = Limit{Name: "create_comment", Max: 20, Window: time.Minute}
)

var errNoCounterStore = errors.New("rate limit counter store unavailable")

// Quota is the state of a caller's window after one counted request.
type Quota struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts Limits in Redis. When enforce is false every request is
// allowed without touching Redis; the server enables it from the same
// configured environment that switches on the global limiter.
type Limiter struct {
	rdb     *redis.Client
	enforce bool
}

// NewLimiter returns a Limiter over rdb, which may be nil.
func NewLimiter(rdb *redis.Client, enforce bool) *Limiter {
	return &Limiter{rdb: rdb, enforce: enforce}
}

// Take counts one request by caller against l.
func (lm *Limiter) Take(ctx context.Context, l Limit, caller string) (Quota, error) {
	if !lm.enforce {
		return Quota{Allowed: true, Remaining: l.Max, ResetIn: l.Window}, nil
	}
	rdb := lm.rdb
	if rdb == nil {
		return Quota{}, errNoCounterStore
	}

	key := fmt.Sprintf("rl:%s:%s", l.Name, caller)
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return Quota{}, err
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, l.Window).Err(); err != nil {
			return Quota{}, err
		}
	}

	resetIn, err := rdb.PTTL(ctx, key).Result()
	if err != nil || resetIn <= 0 {
		resetIn = l.Window
	}
	return Quota{
		Allowed:   count <= int64(l.Max),
		Remaining: max(l.Max-int(count), 0),
		ResetIn:   resetIn,
	}, nil
}

// Handler enforces l per caller. The caller is the resolved user when
// Locals("userID") is set and the client IP otherwise.
func (lm *Limiter) Handler(l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(string); ok && uid != "" {
			caller = "user:" + uid
		}

		quota, err := lm.Take(c.UserContext(), l, caller)
		if err != nil {
			if l.FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("limit", l.Name),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Rate limit unavailable",
					Code:  CodeRateLimited,
				})
			}
			Logger.DebugContext(c.UserContext(), "rate limit skipped", slog.String("limit", l.Name), slog.String("error", err.Error()))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
		if !quota.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(quota.ResetIn.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  CodeRateLimited,
			})
		}
		return c.Next()
	}
}
