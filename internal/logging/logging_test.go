package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSONWithFileScope(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "debug", JSON: true, Output: &buf})
	t.Cleanup(func() { Configure(Options{}) })

	File("/src/a.js", "Server").Debug("applied")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "applied", rec["msg"])
	assert.Equal(t, "/src/a.js", rec["file"])
	assert.Equal(t, "Server", rec["target"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestInitFromEnv(t *testing.T) {
	t.Setenv("ACTIONKIT_LOG_LEVEL", "error")
	t.Setenv("ACTIONKIT_LOG_JSON", "true")
	InitFromEnv()
	t.Cleanup(func() { Configure(Options{}) })
	assert.False(t, L().Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, L().Enabled(t.Context(), slog.LevelError))
}
