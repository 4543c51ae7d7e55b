package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "a", 1)
	AddAttributes(ctx, map[string]any{
		"nested": map[string]any{"x": 1},
	})
	AddAttributes(ctx, map[string]any{
		"nested": map[string]any{"y": 2},
	})
	AddError(ctx, errors.New("boom"))

	assert.Equal(t, 1, GetAttribute[int](ctx, "a"))
	assert.Equal(t, "", GetAttribute[string](ctx, "a"), "wrong type yields zero value")
	assert.EqualError(t, GetError(ctx), "boom")
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, GetAttributes(ctx)["nested"])
}

func TestContextAttributes_NoStore(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "a", 1)
	assert.Nil(t, GetAttributes(ctx))
	assert.Equal(t, 0, GetAttribute[int](ctx, "a"))
}

func TestContextWithSlog_Idempotent(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddUser(ctx, "u1")
	again := ContextWithSlog(ctx)
	assert.Equal(t, "u1", GetAttribute[string](again, UserAttributeKey))
}

func TestTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewAttributesHandler(NewTextHandler(&buf, WithColor(false), WithLevel(slog.LevelDebug)))
	logger := slog.New(h).With("component", "test")

	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "request", "r1")
	AddError(ctx, errors.New("boom"))
	logger.InfoContext(ctx, "hello", "count", 2)

	line := buf.String()
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "hello")
	assert.Contains(t, line, `error="boom"`)
	assert.Contains(t, line, "component=test")
	assert.Contains(t, line, "count=2")
	assert.Contains(t, line, "request=r1")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTextHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTextHandler(&buf, WithColor(false), WithLevel(slog.LevelWarn)))
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestTextHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTextHandler(&buf, WithColor(false))).WithGroup("app")
	logger.Info("grouped", "key", "v")

	assert.Contains(t, buf.String(), "app.key=v")
}

func TestSlogChiMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewAttributesHandler(NewTextHandler(&buf, WithColor(false)))))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := SlogChiMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/x", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "GET /api/tasks/x 404 Not Found")
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(200))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(404))
	assert.Equal(t, LevelError, HTTPStatusToLevel(503))
	assert.Equal(t, slog.LevelWarn, LevelWarn.SlogLevel())
}
