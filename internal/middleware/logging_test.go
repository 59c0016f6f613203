package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" warning "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

// captureLogs swaps the package logger for a JSON logger over a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(&ctxHandler{slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
	t.Cleanup(func() { Logger = prev })
	return &buf
}

func TestAccessLog(t *testing.T) {
	buf := captureLogs(t)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		return c.Next()
	})
	app.Use(RequestContext(), AccessLog())
	app.Get("/api/styles/:slug", func(c *fiber.Ctx) error {
		WithUserID(c, 9)
		return c.SendString("ok")
	})
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/styles/dusk-1a2b", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "request processed", record["msg"])
	assert.Equal(t, "/api/styles/:slug", record["route"])
	assert.Equal(t, "/api/styles/dusk-1a2b", record["path"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.EqualValues(t, 9, record["user_id"])

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "DEBUG", record["level"])
}

func TestAccessLog_WarnsOnClientErrors(t *testing.T) {
	buf := captureLogs(t)

	app := fiber.New()
	app.Use(AccessLog())
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "request rejected", record["msg"])
}
