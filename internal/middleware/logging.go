package middleware

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func init() {
	Logger = newLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	slog.SetDefault(Logger)
}

func newLogger(env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(&ctxHandler{handler})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// WithUserID attaches the authenticated user to both the Fiber locals and the
// request context so log records emitted further down carry user_id.
func WithUserID(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

// RequestContext lifts the request and trace IDs set by earlier middleware
// into the request context so handlers and services log with them.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = context.WithValue(ctx, RequestIDKey, rid)
		}
		if tid, ok := c.Locals("traceID").(string); ok && tid != "" {
			ctx = context.WithValue(ctx, TraceIDKey, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// probePaths are logged at debug so orchestrator polling does not drown
// out API traffic.
var probePaths = map[string]struct{}{
	"/health": {}, "/health/live": {}, "/health/ready": {}, "/metrics": {},
}

// AccessLog writes one record per request. The route template is logged
// next to the concrete path so per-endpoint queries stay cheap.
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", len(c.Response().Body())),
		}
		if route := c.Route(); route != nil && route.Path != "" {
			fields = append(fields, slog.String("route", route.Path))
		}

		ctx := c.UserContext()
		switch {
		case err != nil:
			Logger.ErrorContext(ctx, "request failed", append(fields, slog.String("error", err.Error()))...)
		case status >= fiber.StatusInternalServerError:
			Logger.ErrorContext(ctx, "request failed", fields...)
		case isProbe(c.Path()):
			Logger.DebugContext(ctx, "probe", fields...)
		case status >= fiber.StatusBadRequest:
			Logger.WarnContext(ctx, "request rejected", fields...)
		default:
			Logger.InfoContext(ctx, "request processed", fields...)
		}
		return err
	}
}

func isProbe(path string) bool {
	_, ok := probePaths[path]
	return ok
}
