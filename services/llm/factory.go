// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// NewClientFromEnv selects an inference backend from MERIDIAN_LLM_BACKEND:
// "anthropic" (default, PDF-capable), "openai", or "ollama".
func NewClientFromEnv() (LLMClient, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("MERIDIAN_LLM_BACKEND")))
	if backend == "" {
		backend = "anthropic"
	}

	slog.Info("Selecting inference backend", "backend", backend)
	switch backend {
	case "anthropic":
		return NewAnthropicClient()
	case "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown inference backend %q (want anthropic, openai, or ollama)", backend)
	}
}
