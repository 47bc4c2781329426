// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedResponse is returned when an inference response cannot be
// parsed into the candidate schema at all. Callers treat it the same as any
// other inference failure.
var ErrMalformedResponse = errors.New("response does not match the candidate schema")

// candidateValidate is the validator instance for candidate payloads.
// Initialized in init() with the taxonomy validators.
var candidateValidate *validator.Validate

func init() {
	candidateValidate = validator.New()

	_ = candidateValidate.RegisterValidation("signaltype", func(fl validator.FieldLevel) bool {
		return SignalType(fl.Field().String()).Valid()
	})
	_ = candidateValidate.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return Severity(fl.Field().String()).Valid()
	})
	_ = candidateValidate.RegisterValidation("dropreason", func(fl validator.FieldLevel) bool {
		return DropReason(fl.Field().String()).Valid()
	})
	_ = candidateValidate.RegisterValidation("conflicttype", func(fl validator.FieldLevel) bool {
		return ConflictType(fl.Field().String()).Valid()
	})
	_ = candidateValidate.RegisterValidation("conflictflag", func(fl validator.FieldLevel) bool {
		return ConflictFlag(fl.Field().String()).Valid()
	})
	_ = candidateValidate.RegisterValidation("checktemplate", func(fl validator.FieldLevel) bool {
		return KnownTemplateID(fl.Field().String())
	})
}

// ParseCandidates parses a raw inference response into a CandidateResponse.
//
// The generator is untrusted: the payload is treated as an untyped document
// and promoted field by field. A payload that is not a JSON object with the
// expected top-level arrays fails with ErrMalformedResponse. An individually
// invalid item (unknown taxonomy value, missing required field) is rejected,
// never repaired: a bad finding surfaces as an AMBIGUOUS drop naming the
// violation, bad conflicts / drops / next checks are discarded with a log
// line.
//
// Evidence content is deliberately NOT validated here. Zero-evidence and
// empty-quote findings must reach the verifier intact so they are demoted
// with reason MISSING_EVIDENCE, which is the contract downstream consumers
// rely on.
func ParseCandidates(raw string) (*CandidateResponse, error) {
	body, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var cand CandidateResponse
	if err := json.Unmarshal([]byte(body), &cand); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := &CandidateResponse{}

	for _, f := range cand.Signals {
		if err := candidateValidate.Struct(f); err != nil {
			slog.Warn("Rejecting malformed candidate finding", "id", f.ID, "error", err)
			out.Drops = append(out.Drops, rejectedFindingDrop(f, err))
			continue
		}
		out.Signals = append(out.Signals, f)
	}

	for _, c := range cand.Conflicts {
		if err := candidateValidate.Struct(c); err != nil {
			slog.Warn("Discarding malformed candidate conflict", "id", c.ID, "error", err)
			continue
		}
		out.Conflicts = append(out.Conflicts, c)
	}

	for _, d := range cand.Drops {
		if err := candidateValidate.Struct(d); err != nil {
			slog.Warn("Discarding malformed candidate drop", "id", d.ID, "error", err)
			continue
		}
		out.Drops = append(out.Drops, d)
	}

	for _, nc := range cand.NextChecks {
		if err := candidateValidate.Struct(nc); err != nil {
			slog.Warn("Discarding malformed next check", "template", nc.Template, "error", err)
			continue
		}
		if nc.Question == "" {
			tpl, _ := LookupTemplate(nc.Template)
			nc.Question = RenderQuestion(tpl, nc.Slots)
		}
		out.NextChecks = append(out.NextChecks, nc)
	}

	return out, nil
}

// rejectedFindingDrop converts a structurally invalid finding into a drop so
// the rejection is visible in the run record instead of vanishing.
func rejectedFindingDrop(f Finding, cause error) Drop {
	id := f.ID
	if id == "" {
		id = "unidentified"
	}
	what := f.Summary
	if what == "" {
		what = "finding with no summary"
	}
	return Drop{
		ID:       "D_" + id,
		What:     what,
		Reason:   DropAmbiguous,
		Detail:   fmt.Sprintf("rejected at parse: %v", cause),
		WouldFix: "regenerate with valid taxonomy values",
	}
}

// extractJSONObject returns the outermost {...} region of raw, tolerating
// markdown code fences and prose around the object.
func extractJSONObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
