// Package middleware provides HTTP middleware and the process-wide structured logger.
package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process-wide structured logger. Handlers, services and stores
// log through it with the request context so request metadata is attached.
var Logger *slog.Logger

func init() {
	Logger = NewLogger(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

// NewLogger builds a logger writing JSON in production and text elsewhere.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(&scopeHandler{handler})
}

// SetupLogger replaces Logger once configuration is loaded.
func SetupLogger(env, level string) {
	Logger = NewLogger(os.Stdout, env, level)
	slog.SetDefault(Logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type scopeKey struct{}

// requestScope is the per-request metadata carried on the context.
type requestScope struct {
	requestID string
	traceID   string
	userID    string
}

func scopeFrom(ctx context.Context) requestScope {
	s, _ := ctx.Value(scopeKey{}).(requestScope)
	return s
}

// scopeHandler appends the request scope to every record logged with a request context.
type scopeHandler struct {
	slog.Handler
}

func (h *scopeHandler) Handle(ctx context.Context, r slog.Record) error {
	s := scopeFrom(ctx)
	if s.requestID != "" {
		r.AddAttrs(slog.String("request_id", s.requestID))
	}
	if s.traceID != "" {
		r.AddAttrs(slog.String("trace_id", s.traceID))
	}
	if s.userID != "" {
		r.AddAttrs(slog.String("user_id", s.userID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *scopeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &scopeHandler{h.Handler.WithAttrs(attrs)}
}

func (h *scopeHandler) WithGroup(name string) slog.Handler {
	return &scopeHandler{h.Handler.WithGroup(name)}
}

// ContextMiddleware copies the request and trace IDs from Fiber locals onto
// the user context. It must run after requestid and tracing.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		s := scopeFrom(ctx)
		if rid, ok := c.Locals("requestid").(string); ok {
			s.requestID = rid
		}
		if tid, ok := c.Locals("traceID").(string); ok {
			s.traceID = tid
		}
		c.SetUserContext(context.WithValue(ctx, scopeKey{}, s))
		return c.Next()
	}
}

// WithUserID tags ctx with the acting user's ID for logging.
func WithUserID(ctx context.Context, userID string) context.Context {
	s := scopeFrom(ctx)
	s.userID = userID
	return context.WithValue(ctx, scopeKey{}, s)
}

// StructuredLogger logs one line per request. Server errors log at error,
// client errors at warn and health checks at debug.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusInternalServerError {
				status = fiber.StatusInternalServerError
			}
		}

		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", len(c.Response().Body())),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		level := slog.LevelInfo
		switch {
		case status >= fiber.StatusInternalServerError:
			level = slog.LevelError
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		case strings.HasPrefix(c.Path(), "/health"):
			level = slog.LevelDebug
		}
		Logger.LogAttrs(c.UserContext(), level, "request", attrs...)
		return err
	}
}
