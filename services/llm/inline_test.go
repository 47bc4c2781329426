// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for document inlining.

package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineDocuments_LabelsTextSources(t *testing.T) {
	docs := []Document{
		{DocID: "cfo_email", Bytes: []byte("we moved 200k on Friday"), MediaType: "message/rfc822"},
		{DocID: "notes", Bytes: []byte("# Meeting notes"), MediaType: "text/markdown"},
	}

	blob, skipped := InlineDocuments(docs)
	assert.Empty(t, skipped)
	assert.Contains(t, blob, `<document id="cfo_email" type="message/rfc822">`)
	assert.Contains(t, blob, "we moved 200k on Friday")
	assert.Contains(t, blob, `<document id="notes"`)
}

func TestInlineDocuments_SkipsBinarySources(t *testing.T) {
	docs := []Document{
		{DocID: "scan", Bytes: []byte{0x25, 0x50, 0x44, 0x46}, MediaType: "application/pdf"},
		{DocID: "memo", Bytes: []byte("text"), MediaType: "text/plain"},
	}

	blob, skipped := InlineDocuments(docs)
	assert.Equal(t, []string{"scan"}, skipped)
	assert.Contains(t, blob, "memo")
	assert.NotContains(t, blob, "scan")
}

func TestInlineDocuments_TruncatesOversizedSource(t *testing.T) {
	huge := strings.Repeat("paragraph of filler text.\n\n", 5000)
	docs := []Document{{DocID: "dump", Bytes: []byte(huge), MediaType: "text/plain"}}

	blob, skipped := InlineDocuments(docs)
	require.Empty(t, skipped)
	assert.Contains(t, blob, "[... document truncated ...]")
	assert.Less(t, len(blob), len(huge))
}

func TestInlineDocuments_EmptyInput(t *testing.T) {
	blob, skipped := InlineDocuments(nil)
	assert.Empty(t, blob)
	assert.Empty(t, skipped)
}
