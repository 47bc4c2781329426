// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// inlineChunkSize bounds one document chunk when inlining text sources.
	inlineChunkSize = 4000
	// inlineMaxChunks caps how much of one oversized document is inlined.
	// Beyond this a source is truncated with an explicit marker rather than
	// blowing the context window.
	inlineMaxChunks = 8
)

// textMediaTypes lists media types a text-only backend can inline.
var textMediaTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"message/rfc822":   true,
	"application/json": true,
}

// InlineDocuments renders text-representable documents into one labeled
// blob for backends without native document ingestion. Returns the blob and
// the doc ids that could not be represented.
//
// Oversized documents are split on natural boundaries and truncated at
// inlineMaxChunks with a visible marker, so the model never sees a silently
// cut-off sentence.
func InlineDocuments(docs []Document) (string, []string) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(inlineChunkSize),
		textsplitter.WithChunkOverlap(0),
	)

	var sb strings.Builder
	var skipped []string

	for _, doc := range docs {
		if !textMediaTypes[doc.MediaType] {
			skipped = append(skipped, doc.DocID)
			continue
		}

		chunks, err := splitter.SplitText(string(doc.Bytes))
		if err != nil || len(chunks) == 0 {
			chunks = []string{string(doc.Bytes)}
		}
		truncated := false
		if len(chunks) > inlineMaxChunks {
			chunks = chunks[:inlineMaxChunks]
			truncated = true
		}

		fmt.Fprintf(&sb, "<document id=%q type=%q>\n", doc.DocID, doc.MediaType)
		sb.WriteString(strings.Join(chunks, "\n"))
		if truncated {
			sb.WriteString("\n[... document truncated ...]")
		}
		sb.WriteString("\n</document>\n\n")
	}

	return strings.TrimRight(sb.String(), "\n"), skipped
}
