// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package verify enforces the evidence invariant: no claim without a quote.
//
// The inference step is an untrusted generator that may hallucinate
// unevidenced claims. This package is the one place in the pipeline that can
// be relied on to keep ungrounded findings out of the accepted set, so it
// stays pure: no I/O, no clock, no logging side effects that alter behavior.
//
// Every finding demoted here becomes exactly one drop with reason
// MISSING_EVIDENCE and id "D_" + the finding's id. Counts are conserved:
// accepted + demoted == candidates.
package verify

import (
	"fmt"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

// Result is the verifier's output: the accepted findings and the final drop
// list (synthesized demotions first, pass-through candidate drops after).
type Result struct {
	Accepted []datatypes.Finding
	Drops    []datatypes.Drop
}

// Verify gates candidate findings on the evidence invariant.
//
// A finding is accepted unchanged when it carries at least one evidence span
// and every span's quote is a non-empty string. Anything else is excluded
// from the accepted set and demoted to a MISSING_EVIDENCE drop. Candidate
// drops (e.g. model-reported REFERENCED_NOT_ATTACHED items) pass through
// unchanged and are appended after the synthesized ones.
//
// Verify is deterministic: same inputs, same outputs, in the same order.
func Verify(candidates []datatypes.Finding, candidateDrops []datatypes.Drop) Result {
	res := Result{
		Accepted: make([]datatypes.Finding, 0, len(candidates)),
		Drops:    make([]datatypes.Drop, 0, len(candidateDrops)),
	}

	for _, f := range candidates {
		if grounded(f) {
			res.Accepted = append(res.Accepted, f)
			continue
		}
		res.Drops = append(res.Drops, demote(f))
	}

	res.Drops = append(res.Drops, candidateDrops...)
	return res
}

// grounded reports whether f satisfies the evidence invariant.
func grounded(f datatypes.Finding) bool {
	if len(f.Evidence) == 0 {
		return false
	}
	for _, span := range f.Evidence {
		if span.Quote == "" {
			return false
		}
	}
	return true
}

func demote(f datatypes.Finding) datatypes.Drop {
	detail := "finding carried no evidence spans"
	if len(f.Evidence) > 0 {
		detail = fmt.Sprintf("finding carried %d evidence span(s) but at least one quote was empty", len(f.Evidence))
	}
	return datatypes.Drop{
		ID:       "D_" + f.ID,
		What:     f.Summary,
		Reason:   datatypes.DropMissingEvidence,
		Detail:   detail,
		WouldFix: "manual review required",
	}
}
