// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for the logging setup.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNew_JSONWithServiceTag(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Config{Format: FormatJSON, Service: "compiler", Writer: &buf})
	require.NoError(t, err)
	defer closer()

	logger.Info("compile started", "pack_id", "acme_q3")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "compile started", record["msg"])
	assert.Equal(t, "compiler", record["service"])
	assert.Equal(t, "acme_q3", record["pack_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Config{Level: "warn", Format: FormatJSON, Writer: &buf})
	require.NoError(t, err)
	defer closer()

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_FileMirror(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, closer, err := New(Config{Format: FormatJSON, Service: "compiler", LogDir: dir, Writer: &buf})
	require.NoError(t, err)

	logger.Info("mirrored line")
	require.NoError(t, closer())

	entries, err := filepath.Glob(filepath.Join(dir, "compiler_*.log"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "mirrored line")
	assert.Contains(t, buf.String(), "mirrored line", "primary writer still receives output")
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Config{Format: FormatText, Writer: &buf})
	require.NoError(t, err)
	defer closer()

	logger.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}
