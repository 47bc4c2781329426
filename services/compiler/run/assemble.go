// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package run assembles the immutable, content-addressed record of one
// compile cycle. Assembly either fully succeeds or returns an error; no
// partial record is ever handed out.
package run

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

// configHashLen is the number of hex characters kept from the prompt digest.
// Short enough to read in a report header, long enough that two prompt
// wordings in the same project won't collide in practice.
const configHashLen = 12

// runIDFormat is the timestamp layout used in run ids. Resolution is one
// second: two runs for the same pack issued within the same second produce
// the same run id. Known limitation, acceptable for an interactive harness
// where a compile cycle takes tens of seconds.
const runIDFormat = "20060102T150405Z"

// Params carries everything Assemble needs for one cycle.
type Params struct {
	PackID     string
	Inputs     []datatypes.DocumentInput
	Signals    []datatypes.Finding
	Conflicts  []datatypes.Conflict
	Drops      []datatypes.Drop
	NextChecks []datatypes.NextCheck
	Evidence   []datatypes.EvidenceEntry
	Model      string
	PromptText string
	Now        time.Time
}

// Assemble builds the RunRecord for one compile cycle.
//
// run_id is the UTC timestamp plus the pack id, so records sort
// chronologically per pack. config_hash digests the exact prompt text in
// force for the run: change one character of the prompt and later runs are
// attributable to the new wording.
func Assemble(p Params) (*datatypes.RunRecord, error) {
	if p.PackID == "" {
		return nil, errors.New("pack id is required")
	}
	if len(p.Inputs) == 0 {
		return nil, errors.New("at least one document input is required")
	}
	for _, in := range p.Inputs {
		if in.SHA256 == "" {
			return nil, fmt.Errorf("input %s has no content hash", in.DocID)
		}
	}

	created := p.Now.UTC()
	rec := &datatypes.RunRecord{
		RunMeta: datatypes.RunMeta{
			RunID:      created.Format(runIDFormat) + "_" + p.PackID,
			PackID:     p.PackID,
			Model:      p.Model,
			ConfigHash: ConfigHash(p.PromptText),
			CreatedAt:  created,
		},
		Inputs:     p.Inputs,
		Signals:    orEmpty(p.Signals),
		Conflicts:  orEmpty(p.Conflicts),
		Drops:      orEmpty(p.Drops),
		NextChecks: orEmpty(p.NextChecks),
		Evidence:   orEmpty(p.Evidence),
	}
	return rec, nil
}

// orEmpty replaces a nil slice with an empty one so every list field of the
// record serializes as a JSON array, never null. Consumers in other
// languages should not have to special-case a missing list.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ConfigHash returns the short deterministic digest of the prompt text.
func ConfigHash(promptText string) string {
	sum := sha256.Sum256([]byte(promptText))
	return hex.EncodeToString(sum[:])[:configHashLen]
}

// HashBytes returns the hex sha256 of raw document bytes. Identity of a
// document is this hash, never its filename.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
