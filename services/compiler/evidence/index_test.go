// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for the evidence indexer.

package evidence

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

func testFindings() []datatypes.Finding {
	page := 2
	return []datatypes.Finding{
		{
			ID: "s1", Type: datatypes.SignalLiquidity, Summary: "a", Severity: datatypes.SeverityHigh,
			Evidence: []datatypes.EvidenceSpan{
				{Source: "bank_stmt.pdf", Quote: "Closing balance: 412,903.18", Page: &page},
				{Source: "cfo_email.eml", Quote: "we moved 200k on Friday"},
			},
		},
		{
			ID: "s2", Type: datatypes.SignalInventory, Summary: "b", Severity: datatypes.SeverityMedium,
			Evidence: []datatypes.EvidenceSpan{
				{Source: "count_sheet.pdf", Quote: "variance 8.2%"},
			},
		},
	}
}

func testConflicts() []datatypes.Conflict {
	return []datatypes.Conflict{
		{
			ID: "c1", Type: datatypes.ConflictCashAmount, Topic: "cash on hand",
			Claims: []datatypes.ConflictClaim{
				{Source: "bank_stmt.pdf", Value: "412,903", Quote: "Closing balance: 412,903.18"},
				{Source: "board_deck.pdf", Value: "1.1m", Quote: ""},
				{Source: "cfo_email.eml", Value: "600k", Quote: "around 600 in the operating account"},
			},
		},
	}
}

func TestIndex_OrderAndIDs(t *testing.T) {
	entries := Index(testFindings(), testConflicts())

	// 3 finding spans + 2 conflict claims with quotes.
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("ev_%d", i+1), e.ID)
	}
	assert.Equal(t, "bank_stmt", entries[0].DocID)
	assert.Equal(t, "cfo_email", entries[1].DocID)
	assert.Equal(t, "count_sheet", entries[2].DocID)
	// Conflict claims follow all finding spans; the empty-quote claim is skipped.
	assert.Equal(t, "bank_stmt", entries[3].DocID)
	assert.Equal(t, "cfo_email", entries[4].DocID)
}

func TestIndex_EmptyInputYieldsEmptyArrayNotNull(t *testing.T) {
	entries := Index(nil, nil)

	require.NotNil(t, entries)
	assert.Empty(t, entries)
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestIndex_Deterministic(t *testing.T) {
	first := Index(testFindings(), testConflicts())
	second := Index(testFindings(), testConflicts())
	assert.Equal(t, first, second)
}

func TestIndex_NoDeduplication(t *testing.T) {
	f := testFindings()[0]
	dup := f
	dup.ID = "s9"
	entries := Index([]datatypes.Finding{f, dup}, nil)

	require.Len(t, entries, 4)
	assert.Equal(t, entries[0].Quote, entries[2].Quote)
	assert.NotEqual(t, entries[0].ID, entries[2].ID)
}

func TestIndex_PreservesLocationFields(t *testing.T) {
	entries := Index(testFindings(), nil)
	require.NotEmpty(t, entries)
	require.NotNil(t, entries[0].Page)
	assert.Equal(t, 2, *entries[0].Page)
}

func TestDocID_StripsKnownExtensionsCaseInsensitive(t *testing.T) {
	cases := map[string]string{
		"bank_stmt.pdf":  "bank_stmt",
		"Bank_Stmt.PDF":  "Bank_Stmt",
		"notes.TXT":      "notes",
		"thread.eml":     "thread",
		"no_extension":   "no_extension",
		"archive.tar.gz": "archive.tar.gz", // unknown extension is kept
	}
	for in, want := range cases {
		assert.Equal(t, want, DocID(in), "source %q", in)
	}
}
