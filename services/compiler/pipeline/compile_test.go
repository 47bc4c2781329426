// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for the compile orchestrator.

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/catalog"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/store"
	"github.com/MeridianIntel/MeridianDesk/services/llm"
)

// goodResponse exercises every verifier path: s1 is grounded, s2 has no
// evidence and must be demoted, d1 passes through after the demotion.
const goodResponse = `{
  "signals": [
    {
      "id": "s1",
      "type": "liquidity",
      "summary": "Operating account holds 203,450.10 USD",
      "severity": "high",
      "evidence": [
        {"source": "bank_stmt.txt", "quote": "Closing balance 203,450.10", "page": 1}
      ],
      "value": "203450.10",
      "unit": "USD"
    },
    {
      "id": "s2",
      "type": "operations",
      "summary": "Warehouse move planned for Q4",
      "severity": "low",
      "evidence": []
    }
  ],
  "conflicts": [
    {
      "id": "c1",
      "type": "cash_amount",
      "topic": "available cash",
      "claims": [
        {"source": "bank_stmt.txt", "value": "203450.10", "quote": "Closing balance 203,450.10"},
        {"source": "cfo_email.eml", "value": "1200000", "quote": "we have 1.2M available"}
      ],
      "flags": ["unknown_definition"]
    }
  ],
  "drops": [
    {
      "id": "d1",
      "what": "Audited statements referenced in the email",
      "reason": "REFERENCED_NOT_ATTACHED",
      "would_fix": "attach the audit PDF"
    }
  ],
  "next_checks": [
    {
      "priority": 1,
      "owner": "controller",
      "template": "bank_confirm",
      "slots": {"bank": "First National", "date": "2025-09-30"}
    }
  ]
}`

type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, docs []llm.Document, params llm.GenerationParams) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeClient) Model() string { return "fake-model-1" }

// failingSaveStore wraps a real store and fails every Save.
type failingSaveStore struct {
	store.RunStore
}

func (failingSaveStore) Save(ctx context.Context, packID string, rec *datatypes.RunRecord) error {
	return errors.New("disk full")
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "bank_stmt.txt"),
		[]byte("Closing balance 203,450.10"), 0640))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "cfo_email.eml"),
		[]byte("we have 1.2M available"), 0640))

	manifest := `packs:
  - id: acme_q3
    name: "Acme Q3 bundle"
    files:
      - doc_id: bank_stmt
        path: docs/bank_stmt.txt
      - doc_id: cfo_email
        path: docs/cfo_email.eml
      - doc_id: missing_ledger
        path: docs/ledger.csv
  - id: ghost_pack
    name: "Everything missing"
    files:
      - doc_id: nowhere
        path: docs/nowhere.pdf
`
	path := filepath.Join(root, "packs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0640))

	cat, err := catalog.Load(path, []string{root})
	require.NoError(t, err)
	return cat
}

func testStore(t *testing.T) *store.FileStore {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestCompile_SuccessPersistsAndReturnsPack(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)
	client := &fakeClient{response: goodResponse}
	orch := New(cat, st, client, "analyst prompt")

	pk, err := orch.Compile(context.Background(), "acme_q3")
	require.NoError(t, err)

	assert.Equal(t, "acme_q3", pk.CaseID)
	assert.False(t, pk.Cached)
	require.Len(t, pk.Signals, 1)
	assert.Equal(t, "s1", pk.Signals[0].ID)

	// Ungrounded s2 demoted ahead of the pass-through drop.
	require.Len(t, pk.Drops, 2)
	assert.Equal(t, "D_s2", pk.Drops[0].ID)
	assert.Equal(t, datatypes.DropMissingEvidence, pk.Drops[0].Reason)
	assert.Equal(t, "d1", pk.Drops[1].ID)

	rec, err := st.LoadLatest(context.Background(), "acme_q3")
	require.NoError(t, err)
	assert.Equal(t, "fake-model-1", rec.RunMeta.Model)
	assert.Contains(t, rec.RunMeta.RunID, "_acme_q3")
	assert.Len(t, rec.Inputs, 2, "missing ledger is skipped, not fatal")
	assert.NotEmpty(t, rec.Evidence)
	for _, in := range rec.Inputs {
		assert.Len(t, in.SHA256, 64)
	}
}

func TestCompile_FallbackServesCachedRun(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)

	// Prime the cache with a successful run.
	okClient := &fakeClient{response: goodResponse}
	_, err := New(cat, st, okClient, "analyst prompt").Compile(context.Background(), "acme_q3")
	require.NoError(t, err)

	broken := &fakeClient{err: errors.New("connection refused")}
	pk, err := New(cat, st, broken, "analyst prompt").Compile(context.Background(), "acme_q3")
	require.NoError(t, err)

	assert.True(t, pk.Cached)
	assert.Equal(t, "acme_q3", pk.CaseID)
	require.Len(t, pk.Signals, 1)
	assert.Equal(t, "s1", pk.Signals[0].ID)
}

func TestCompile_FallbackMissSurfacesOriginalError(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)
	broken := &fakeClient{err: errors.New("upstream exploded")}

	_, err := New(cat, st, broken, "analyst prompt").Compile(context.Background(), "acme_q3")
	require.Error(t, err)
	assert.Equal(t, KindNoCachedRun, KindOf(err))
	assert.ErrorContains(t, err, "upstream exploded")
}

func TestCompile_TimeoutClassifiedAndChained(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)
	slow := &fakeClient{err: context.DeadlineExceeded}

	_, err := New(cat, st, slow, "analyst prompt").Compile(context.Background(), "acme_q3")
	require.Error(t, err)
	assert.Equal(t, KindNoCachedRun, KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompile_MalformedResponseFallsBack(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)

	_, err := New(cat, st, &fakeClient{response: goodResponse}, "analyst prompt").
		Compile(context.Background(), "acme_q3")
	require.NoError(t, err)

	garbled := &fakeClient{response: "I'm sorry, I can't produce JSON today."}
	pk, err := New(cat, st, garbled, "analyst prompt").Compile(context.Background(), "acme_q3")
	require.NoError(t, err)
	assert.True(t, pk.Cached)
}

func TestCompile_MalformedResponseNoCacheIsMalformedChain(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)
	garbled := &fakeClient{response: "no json here"}

	_, err := New(cat, st, garbled, "analyst prompt").Compile(context.Background(), "acme_q3")
	require.Error(t, err)
	assert.Equal(t, KindNoCachedRun, KindOf(err))
	assert.ErrorIs(t, err, datatypes.ErrMalformedResponse)
}

func TestCompile_PersistFailureIsSwallowed(t *testing.T) {
	cat := testCatalog(t)
	st := failingSaveStore{RunStore: testStore(t)}
	client := &fakeClient{response: goodResponse}

	pk, err := New(cat, st, client, "analyst prompt").Compile(context.Background(), "acme_q3")
	require.NoError(t, err, "a persistence failure must not fail the compile")
	assert.Equal(t, "acme_q3", pk.CaseID)
	assert.False(t, pk.Cached)
}

func TestCompile_ZeroReadableDocumentsIsFatal(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)
	client := &fakeClient{response: goodResponse}

	_, err := New(cat, st, client, "analyst prompt").Compile(context.Background(), "ghost_pack")
	require.Error(t, err)
	assert.Equal(t, KindNoArtifacts, KindOf(err))
	assert.Zero(t, client.calls, "inference must not run on an empty bundle")
}

func TestCompile_UnknownPack(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)
	client := &fakeClient{response: goodResponse}

	_, err := New(cat, st, client, "analyst prompt").Compile(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, KindUnknownPack, KindOf(err))

	var unknown *catalog.UnknownPackError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Known, "acme_q3")

	exists, err := st.Exists(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCompile_ClockControlsRunID(t *testing.T) {
	cat := testCatalog(t)
	st := testStore(t)
	fixed := time.Date(2025, 11, 3, 14, 22, 8, 0, time.UTC)

	orch := New(cat, st, &fakeClient{response: goodResponse}, "analyst prompt",
		WithClock(func() time.Time { return fixed }))
	_, err := orch.Compile(context.Background(), "acme_q3")
	require.NoError(t, err)

	rec, err := st.LoadLatest(context.Background(), "acme_q3")
	require.NoError(t, err)
	assert.Equal(t, "20251103T142208Z_acme_q3", rec.RunMeta.RunID)
}
