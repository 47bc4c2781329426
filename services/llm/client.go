// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm is the inference gateway: the one opaque, time-bounded remote
// call in the compile pipeline. Everything it returns is untrusted until it
// passes the verifier.
package llm

import "context"

// Document is one source file handed to the model alongside the prompt.
type Document struct {
	DocID     string
	Bytes     []byte
	MediaType string
}

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
//
// Generate must respect ctx: the caller bounds the call with a deadline and
// treats expiry exactly like any other inference failure. Backends that
// cannot ingest a document's media type natively degrade to inlining what
// they can and must not fail silently.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, docs []Document, params GenerationParams) (string, error)

	// Model returns the backend's model identifier for run provenance.
	Model() string
}
