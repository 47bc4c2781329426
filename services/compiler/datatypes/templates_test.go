// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for the check template catalog.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTemplate_CaseInsensitive(t *testing.T) {
	for _, id := range []string{"bank_confirm", "BANK_CONFIRM", " Bank_Confirm "} {
		tpl, ok := LookupTemplate(id)
		require.True(t, ok, id)
		assert.Equal(t, "bank_confirm", tpl.ID)
	}
}

func TestLookupTemplate_Unknown(t *testing.T) {
	_, ok := LookupTemplate("summon_wizard")
	assert.False(t, ok)
	assert.False(t, KnownTemplateID("summon_wizard"))
}

func TestRenderQuestion_FillsSlots(t *testing.T) {
	tpl, ok := LookupTemplate("inventory_count")
	require.True(t, ok)

	q := RenderQuestion(tpl, map[string]string{
		"location": "Reno warehouse",
		"scope":    "finished goods",
	})
	assert.Equal(t, "Schedule a physical count at Reno warehouse covering finished goods.", q)
}

func TestRenderQuestion_MissingSlotLeftVerbatim(t *testing.T) {
	tpl, ok := LookupTemplate("mgmt_followup")
	require.True(t, ok)

	q := RenderQuestion(tpl, map[string]string{"person": "the CFO"})
	assert.Equal(t, "Ask the CFO to clarify {topic} in writing.", q)
}

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, Severity("spicy").Rank(), SeverityLow.Rank(), "unknown sorts last")
}
