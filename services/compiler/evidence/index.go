// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package evidence flattens every quote used in a run into a single
// addressable list. Entries are citations, not unique facts: no
// deduplication happens here, because downstream rendering needs a distinct
// id per citation context.
package evidence

import (
	"fmt"
	"strings"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

// docExtensions are stripped from span sources when deriving a doc id.
// Sources conventionally carry the original filename ("bank_stmt.pdf").
var docExtensions = []string{".pdf", ".txt", ".md", ".eml", ".msg", ".docx", ".csv"}

// Index builds the flattened evidence list for one run.
//
// Emission order is fixed: for each accepted finding in original order, one
// entry per evidence span; then for each conflict in original order, one
// entry per claim carrying a non-empty quote. Ids are assigned in emission
// order as ev_1, ev_2, ... so indexing the same input twice yields an
// identical list.
func Index(accepted []datatypes.Finding, conflicts []datatypes.Conflict) []datatypes.EvidenceEntry {
	// Non-nil even when empty so the persisted record serializes the
	// evidence field as [], never null.
	entries := []datatypes.EvidenceEntry{}

	emit := func(docID, quote string, page, line *int, bbox []float64) {
		entries = append(entries, datatypes.EvidenceEntry{
			ID:    fmt.Sprintf("ev_%d", len(entries)+1),
			DocID: docID,
			Page:  page,
			Line:  line,
			BBox:  bbox,
			Quote: quote,
		})
	}

	for _, f := range accepted {
		for _, span := range f.Evidence {
			emit(DocID(span.Source), span.Quote, span.Page, span.Line, span.BBox)
		}
	}

	for _, c := range conflicts {
		for _, claim := range c.Claims {
			if claim.Quote == "" {
				continue
			}
			emit(DocID(claim.Source), claim.Quote, claim.Page, nil, nil)
		}
	}

	return entries
}

// DocID derives a document id from a span source by stripping a known file
// extension, case-insensitively. "Bank_Stmt.PDF" and "bank_stmt.pdf" both
// map to the same id modulo the original casing of the stem.
func DocID(source string) string {
	lower := strings.ToLower(source)
	for _, ext := range docExtensions {
		if strings.HasSuffix(lower, ext) {
			return source[:len(source)-len(ext)]
		}
	}
	return source
}
