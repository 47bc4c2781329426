// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompt.txt
var defaultPrompt string

// LoadPrompt returns the analyst prompt text for this deployment.
// MERIDIAN_PROMPT_PATH overrides the embedded default; the file's exact bytes
// become the prompt, and with it the config_hash of every subsequent run.
func LoadPrompt() (string, error) {
	path := os.Getenv("MERIDIAN_PROMPT_PATH")
	if path == "" {
		return defaultPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return string(data), nil
}

// mediaTypes maps document file extensions to the media type sent to the
// inference backend. Unlisted extensions degrade to octet-stream, which
// text-only backends will skip with a warning.
var mediaTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".eml":  "message/rfc822",
	".json": "application/json",
}

func mediaTypeFor(filename string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return "application/octet-stream"
}
