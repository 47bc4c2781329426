// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the wire and persistence types for the compile
// pipeline: document inputs, evidence-backed findings, conflicts, drops,
// next checks, and the run record that ties one compile cycle together.
//
// Identity rules:
//   - A DocumentInput is identified by its content hash, not its filename.
//   - A Finding without at least one non-empty quote is not a valid Finding;
//     the verify package enforces this before anything is persisted.
package datatypes

import "time"

// DocumentInput is one identified source file fed to inference.
//
// SHA256 is computed over the raw file bytes at load time, before the bytes
// are transmitted anywhere. It is the system's notion of "what the model
// actually saw"; filenames are unstable across packs and carry no identity.
type DocumentInput struct {
	DocID     string `json:"doc_id"`
	Filename  string `json:"filename"`
	SHA256    string `json:"sha256"`
	Type      string `json:"type"`
	PageCount *int   `json:"page_count,omitempty"`
}

// EvidenceSpan points into a DocumentInput. Quote is a verbatim substring of
// the source document and is the sole unit of evidentiary truth here: it is
// never synthesized, only copied.
type EvidenceSpan struct {
	Source string    `json:"source" validate:"required"`
	Quote  string    `json:"quote" validate:"required"`
	Page   *int      `json:"page,omitempty"`
	Line   *int      `json:"line,omitempty"`
	BBox   []float64 `json:"bbox,omitempty" validate:"omitempty,len=4"`
}

// Finding is a typed, evidence-backed claim extracted from the source
// documents. The accepted set never contains a Finding with zero evidence.
type Finding struct {
	ID               string         `json:"id" validate:"required"`
	Type             SignalType     `json:"type" validate:"signaltype"`
	Summary          string         `json:"summary" validate:"required"`
	Severity         Severity       `json:"severity" validate:"severity"`
	SeverityReason   string         `json:"severity_reason,omitempty"`
	Owner            string         `json:"owner,omitempty"`
	Evidence         []EvidenceSpan `json:"evidence"`
	RecommendedCheck string         `json:"recommended_check,omitempty"`
	Value            string         `json:"value,omitempty"`
	Unit             string         `json:"unit,omitempty"`
	BlockerFor       []string       `json:"blocker_for,omitempty"`
}

// Drop records a rejected or unverifiable candidate claim.
type Drop struct {
	ID       string     `json:"id" validate:"required"`
	What     string     `json:"what" validate:"required"`
	Reason   DropReason `json:"reason" validate:"dropreason"`
	Detail   string     `json:"detail,omitempty"`
	WouldFix string     `json:"would_fix,omitempty"`
}

// ConflictClaim is one source's position inside a Conflict.
type ConflictClaim struct {
	Source     string `json:"source" validate:"required"`
	Value      string `json:"value" validate:"required"`
	Quote      string `json:"quote,omitempty"`
	Definition string `json:"definition,omitempty"`
	ValueDate  string `json:"value_date,omitempty"`
	Page       *int   `json:"page,omitempty"`
}

// Conflict is a disagreement between sources on one topic. No claim is ever
// marked authoritative; resolution is a human follow-up.
type Conflict struct {
	ID           string          `json:"id" validate:"required"`
	Type         ConflictType    `json:"type" validate:"conflicttype"`
	Topic        string          `json:"topic" validate:"required"`
	Claims       []ConflictClaim `json:"claims" validate:"min=2,dive"`
	Flags        []ConflictFlag  `json:"flags,omitempty" validate:"dive,conflictflag"`
	HowToResolve string          `json:"how_to_resolve,omitempty"`
}

// NextCheck is an actionable follow-up. Template names an entry in the fixed
// check-template catalog; Slots carries the case-specific values that fill
// the template's placeholders. Priority is ascending, 1 runs first.
type NextCheck struct {
	Priority int               `json:"priority" validate:"min=1"`
	Owner    string            `json:"owner,omitempty"`
	Template string            `json:"template" validate:"checktemplate"`
	Question string            `json:"question,omitempty"`
	DoneWhen string            `json:"done_when,omitempty"`
	Slots    map[string]string `json:"slots,omitempty"`
}

// EvidenceEntry is one row of the flattened, citation-addressable evidence
// list. Entries are citations, not unique facts: the same quote used in two
// contexts yields two entries with distinct ids.
type EvidenceEntry struct {
	ID    string    `json:"id"`
	DocID string    `json:"doc_id"`
	Page  *int      `json:"page,omitempty"`
	Line  *int      `json:"line,omitempty"`
	BBox  []float64 `json:"bbox,omitempty"`
	Quote string    `json:"quote"`
}

// RunMeta identifies one compile cycle.
type RunMeta struct {
	RunID      string    `json:"run_id"`
	PackID     string    `json:"pack_id"`
	Model      string    `json:"model"`
	ConfigHash string    `json:"config_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunRecord is the immutable unit of persistence: everything one compile
// cycle produced, keyed by pack with "latest" semantics in the run store.
// It is read-only after assembly.
type RunRecord struct {
	RunMeta    RunMeta         `json:"run_meta"`
	Inputs     []DocumentInput `json:"inputs"`
	Signals    []Finding       `json:"signals"`
	Conflicts  []Conflict      `json:"conflicts"`
	Drops      []Drop          `json:"drops"`
	NextChecks []NextCheck     `json:"next_checks"`
	Evidence   []EvidenceEntry `json:"evidence"`
}

// CandidateResponse is the expected shape of a parsed inference response.
// Nothing in it is trusted until it passes the verifier.
type CandidateResponse struct {
	Signals    []Finding   `json:"signals"`
	Conflicts  []Conflict  `json:"conflicts"`
	Drops      []Drop      `json:"drops"`
	NextChecks []NextCheck `json:"next_checks"`
}

// SignalPack is the client-facing projection of a run, returned by the
// compile endpoint. Cached is set only when the response was served from the
// run store after a live inference failure.
type SignalPack struct {
	CaseID      string      `json:"case_id"`
	ProcessedAt time.Time   `json:"processed_at"`
	Signals     []Finding   `json:"signals"`
	Drops       []Drop      `json:"drops"`
	Conflicts   []Conflict  `json:"conflicts"`
	NextChecks  []NextCheck `json:"next_checks"`
	Cached      bool        `json:"_cached,omitempty"`
}

// PackFromRun projects a RunRecord into the SignalPack response shape.
func PackFromRun(rec *RunRecord) SignalPack {
	return SignalPack{
		CaseID:      rec.RunMeta.PackID,
		ProcessedAt: rec.RunMeta.CreatedAt,
		Signals:     rec.Signals,
		Drops:       rec.Drops,
		Conflicts:   rec.Conflicts,
		NextChecks:  rec.NextChecks,
	}
}
