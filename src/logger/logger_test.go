package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel(" WARNING ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	level, ok = ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestContextHelpersUseContextualLogger(t *testing.T) {
	var buf bytes.Buffer
	ctxLogger := slog.New(slog.NewJSONHandler(&buf, nil)).With("requestID", "req-1")
	ctx := ToContext(context.Background(), ctxLogger)

	InfoFromContext(ctx, "run completed", "installations", 2)
	WarnFromContext(ctx, "bad body")
	ErrorFromContext(ctx, "run failed", "error", "disk")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, float64(2), entries[0]["installations"])
	assert.Equal(t, "WARN", entries[1]["level"])
	assert.Equal(t, "ERROR", entries[2]["level"])
	for _, e := range entries {
		assert.Equal(t, "req-1", e["requestID"])
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, L, FromContext(context.Background()))
}
