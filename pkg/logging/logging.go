// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging configures structured logging for Meridian components.
//
// Built on log/slog. The service emits JSON to stdout for container log
// collection; the CLI emits human-readable text to stderr. Either can
// additionally mirror to a per-service log file.
//
// This package does NOT redact sensitive data. Callers must not log
// document contents, API keys, or prompt text.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format selects the output encoding.
type Format string

const (
	// FormatJSON is one JSON object per line, for log collectors.
	FormatJSON Format = "json"
	// FormatText is slog's key=value text output, for terminals.
	FormatText Format = "text"
)

// Config configures a logger. The zero value means: info level, JSON to
// stdout, no file mirror.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", or "error".
	Level string

	// Format selects JSON or text encoding.
	Format Format

	// Service tags every record and names the log file.
	Service string

	// LogDir, when set, mirrors output to <LogDir>/<Service>_<date>.log.
	// The directory is created if missing.
	LogDir string

	// Writer overrides the primary output. Defaults to stdout for JSON
	// and stderr for text.
	Writer io.Writer
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New builds a logger from cfg. The returned close function flushes and
// closes the file mirror (a no-op without one) and must be called on
// shutdown.
func New(cfg Config) (*slog.Logger, func() error, error) {
	w := cfg.Writer
	if w == nil {
		if cfg.Format == FormatText {
			w = os.Stderr
		} else {
			w = os.Stdout
		}
	}

	closer := func() error { return nil }
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0750); err != nil {
			return nil, nil, fmt.Errorf("create log directory %s: %w", cfg.LogDir, err)
		}
		name := fmt.Sprintf("%s_%s.log", serviceOrDefault(cfg.Service), time.Now().UTC().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closer = f.Close
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger, closer, nil
}

// Setup builds a logger for service from the MERIDIAN_LOG_LEVEL and
// MERIDIAN_LOG_DIR environment variables and installs it as the slog
// default.
func Setup(service string) (func() error, error) {
	logger, closer, err := New(Config{
		Level:   os.Getenv("MERIDIAN_LOG_LEVEL"),
		Format:  FormatJSON,
		Service: service,
		LogDir:  os.Getenv("MERIDIAN_LOG_DIR"),
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

func serviceOrDefault(s string) string {
	if s == "" {
		return "meridian"
	}
	return s
}
