// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for run assembly and content hashing.

package run

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

func baseParams() Params {
	return Params{
		PackID: "acme_q3",
		Inputs: []datatypes.DocumentInput{
			{DocID: "bank_stmt", Filename: "bank_stmt.pdf", SHA256: HashBytes([]byte("pdf bytes")), Type: "application/pdf"},
		},
		Model:      "claude-3-5-sonnet-20240620",
		PromptText: "extract signals",
		Now:        time.Date(2025, 11, 3, 14, 22, 8, 0, time.UTC),
	}
}

func TestAssemble_RunIDAndMeta(t *testing.T) {
	rec, err := Assemble(baseParams())
	require.NoError(t, err)

	assert.Equal(t, "20251103T142208Z_acme_q3", rec.RunMeta.RunID)
	assert.Equal(t, "acme_q3", rec.RunMeta.PackID)
	assert.Equal(t, "claude-3-5-sonnet-20240620", rec.RunMeta.Model)
	assert.Len(t, rec.RunMeta.ConfigHash, 12)
	assert.True(t, rec.RunMeta.CreatedAt.Equal(time.Date(2025, 11, 3, 14, 22, 8, 0, time.UTC)))
}

func TestAssemble_NormalizesToUTC(t *testing.T) {
	p := baseParams()
	loc := time.FixedZone("EST", -5*3600)
	p.Now = time.Date(2025, 11, 3, 9, 22, 8, 0, loc)

	rec, err := Assemble(p)
	require.NoError(t, err)
	assert.Equal(t, "20251103T142208Z_acme_q3", rec.RunMeta.RunID)
}

func TestAssemble_EmptyListsSerializeAsArrays(t *testing.T) {
	// A run with no verified signals still persists every list field as a
	// JSON array; null lists break consumers in other languages.
	rec, err := Assemble(baseParams())
	require.NoError(t, err)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	for _, field := range []string{"signals", "conflicts", "drops", "next_checks", "evidence"} {
		assert.Contains(t, string(raw), `"`+field+`":[]`)
	}
}

func TestAssemble_RejectsMissingPackID(t *testing.T) {
	p := baseParams()
	p.PackID = ""
	_, err := Assemble(p)
	assert.Error(t, err)
}

func TestAssemble_RejectsEmptyInputs(t *testing.T) {
	p := baseParams()
	p.Inputs = nil
	_, err := Assemble(p)
	assert.Error(t, err)
}

func TestAssemble_RejectsUnhashedInput(t *testing.T) {
	p := baseParams()
	p.Inputs[0].SHA256 = ""
	_, err := Assemble(p)
	assert.Error(t, err)
}

func TestConfigHash_StableAndSensitive(t *testing.T) {
	a := ConfigHash("You are a signal extractor.")
	b := ConfigHash("You are a signal extractor.")
	c := ConfigHash("You are a signal extractor!")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 12)
}

func TestHashBytes_SingleByteChangesDigest(t *testing.T) {
	doc := []byte("quarterly report contents")
	mutated := append([]byte(nil), doc...)
	mutated[0] ^= 1

	assert.NotEqual(t, HashBytes(doc), HashBytes(mutated))
}

func TestHashBytes_FilenameIndependent(t *testing.T) {
	// Identity is content, not filename: the same bytes hash identically no
	// matter what the inputs are called.
	bytes := []byte("identical content")
	a := datatypes.DocumentInput{DocID: "a", Filename: "report_v1.pdf", SHA256: HashBytes(bytes)}
	b := datatypes.DocumentInput{DocID: "b", Filename: "final_FINAL.pdf", SHA256: HashBytes(bytes)}

	assert.Equal(t, a.SHA256, b.SHA256)
}
