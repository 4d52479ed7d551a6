package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttributesAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")

	ctx := WithAttrs(context.Background(), slog.String("request_id", "r-1"))
	ctx = WithAttrs(ctx, slog.String("session_id", "s-1"))
	logger.InfoContext(ctx, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "r-1", rec["request_id"])
	assert.Equal(t, "s-1", rec["session_id"])
	assert.Equal(t, "v", rec["k"])
}

func TestWithAttrsDoesNotShareBacking(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	base := WithAttrs(context.Background(), slog.String("a", "1"))
	_ = WithAttrs(base, slog.String("b", "2"))
	logger.InfoContext(base, "only a")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "1", rec["a"])
	assert.NotContains(t, rec, "b")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
}
