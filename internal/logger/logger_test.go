package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ProductionWritesJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Init(Options{Output: &buf})

	slog.Debug("hidden")
	slog.Info("object reclaimed", "user_id", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "object reclaimed", record["msg"])
	assert.Equal(t, "vinnodrive", record["service"])
	assert.Equal(t, float64(7), record["user_id"])
}

func TestInit_DevelopmentLogsDebug(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Init(Options{Development: true, Output: &buf})

	slog.Debug("staging file", "path", "/tmp/x")
	assert.Contains(t, buf.String(), "staging file")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
