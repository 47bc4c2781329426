// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for the evidence verifier.

package verify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

func groundedFinding(id string) datatypes.Finding {
	return datatypes.Finding{
		ID:       id,
		Type:     datatypes.SignalLiquidity,
		Summary:  "cash balance overstated",
		Severity: datatypes.SeverityHigh,
		Evidence: []datatypes.EvidenceSpan{
			{Source: "bank_stmt.pdf", Quote: "Closing balance: 412,903.18"},
		},
	}
}

func ungroundedFinding(id string) datatypes.Finding {
	f := groundedFinding(id)
	f.Evidence = nil
	return f
}

func TestVerify_AcceptsGroundedFindingUnchanged(t *testing.T) {
	in := groundedFinding("s1")
	res := Verify([]datatypes.Finding{in}, nil)

	require.Len(t, res.Accepted, 1)
	assert.Equal(t, in, res.Accepted[0])
	assert.Empty(t, res.Drops)
}

func TestVerify_DemotesZeroEvidenceFinding(t *testing.T) {
	res := Verify([]datatypes.Finding{ungroundedFinding("s1")}, nil)

	assert.Empty(t, res.Accepted)
	require.Len(t, res.Drops, 1)
	d := res.Drops[0]
	assert.Equal(t, "D_s1", d.ID)
	assert.Equal(t, datatypes.DropMissingEvidence, d.Reason)
	assert.Equal(t, "cash balance overstated", d.What)
	assert.Equal(t, "manual review required", d.WouldFix)
}

func TestVerify_DemotesEmptyQuote(t *testing.T) {
	f := groundedFinding("s2")
	f.Evidence = append(f.Evidence, datatypes.EvidenceSpan{Source: "notes.pdf", Quote: ""})

	res := Verify([]datatypes.Finding{f}, nil)

	assert.Empty(t, res.Accepted)
	require.Len(t, res.Drops, 1)
	assert.Equal(t, "D_s2", res.Drops[0].ID)
	assert.Contains(t, res.Drops[0].Detail, "empty")
}

func TestVerify_PassThroughDropsAfterSynthesized(t *testing.T) {
	prior := datatypes.Drop{
		ID:     "d9",
		What:   "insurance schedule referenced but not attached",
		Reason: datatypes.DropReferencedNotAttached,
	}
	res := Verify([]datatypes.Finding{ungroundedFinding("s1")}, []datatypes.Drop{prior})

	require.Len(t, res.Drops, 2)
	assert.Equal(t, "D_s1", res.Drops[0].ID)
	assert.Equal(t, prior, res.Drops[1])
}

// Scenario from the harness contract: 10 candidates, 2 without evidence.
func TestVerify_TenCandidatesTwoEmpty(t *testing.T) {
	var candidates []datatypes.Finding
	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("s%d", i)
		if i == 3 || i == 7 {
			candidates = append(candidates, ungroundedFinding(id))
		} else {
			candidates = append(candidates, groundedFinding(id))
		}
	}
	prior := []datatypes.Drop{{ID: "d1", What: "x", Reason: datatypes.DropAmbiguous}}

	res := Verify(candidates, prior)

	assert.Len(t, res.Accepted, 8)
	require.Len(t, res.Drops, len(prior)+2)
	assert.Equal(t, "D_s3", res.Drops[0].ID)
	assert.Equal(t, "D_s7", res.Drops[1].ID)
}

// Fuzz-style sweep: every zero-evidence candidate is demoted and the total
// count is conserved.
func TestVerify_CountConservation(t *testing.T) {
	for n := 0; n < 50; n++ {
		var candidates []datatypes.Finding
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("s%d", i)
			if i%3 == 0 {
				candidates = append(candidates, ungroundedFinding(id))
			} else {
				candidates = append(candidates, groundedFinding(id))
			}
		}
		res := Verify(candidates, nil)
		assert.Equal(t, n, len(res.Accepted)+len(res.Drops), "candidates must be conserved for n=%d", n)
		for _, d := range res.Drops {
			assert.Equal(t, datatypes.DropMissingEvidence, d.Reason)
		}
	}
}

func TestVerify_Deterministic(t *testing.T) {
	candidates := []datatypes.Finding{
		groundedFinding("a"), ungroundedFinding("b"), groundedFinding("c"),
	}
	first := Verify(candidates, nil)
	second := Verify(candidates, nil)
	assert.Equal(t, first, second)
}
