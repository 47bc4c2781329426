// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "strings"

// CheckTemplate is one entry of the fixed next-check template catalog.
// Templates keep the follow-up taxonomy stable across unrelated runs; the
// per-run specifics travel in NextCheck.Slots.
//
// Question may contain {placeholder} markers filled from the slot map.
type CheckTemplate struct {
	ID       string
	Question string
	DoneWhen string
}

// checkTemplates is keyed by lowercase id; lookup is case-insensitive.
var checkTemplates = map[string]CheckTemplate{
	"bank_confirm": {
		ID:       "bank_confirm",
		Question: "Obtain a bank confirmation for {account} as of {date}.",
		DoneWhen: "Signed bank confirmation on file matching the stated balance.",
	},
	"ar_tieout": {
		ID:       "ar_tieout",
		Question: "Tie the {ledger} receivables balance to the aging report as of {date}.",
		DoneWhen: "Aging total reconciles to the ledger within rounding.",
	},
	"inventory_count": {
		ID:       "inventory_count",
		Question: "Schedule a physical count at {location} covering {scope}.",
		DoneWhen: "Count sheets signed off and variances explained.",
	},
	"contract_pull": {
		ID:       "contract_pull",
		Question: "Pull the executed {contract} and confirm the {clause} terms.",
		DoneWhen: "Executed copy on file; terms match the summary presented.",
	},
	"system_access": {
		ID:       "system_access",
		Question: "Obtain read access to {system} and export {report}.",
		DoneWhen: "Export received directly from the system of record.",
	},
	"mgmt_followup": {
		ID:       "mgmt_followup",
		Question: "Ask {person} to clarify {topic} in writing.",
		DoneWhen: "Written response received and filed with the pack.",
	},
	"doc_request": {
		ID:       "doc_request",
		Question: "Request {document} referenced in {source} but not attached.",
		DoneWhen: "Document received and hashed into the pack.",
	},
}

// LookupTemplate resolves a template id case-insensitively.
func LookupTemplate(id string) (CheckTemplate, bool) {
	t, ok := checkTemplates[strings.ToLower(strings.TrimSpace(id))]
	return t, ok
}

// KnownTemplateID reports whether id names a catalog entry.
func KnownTemplateID(id string) bool {
	_, ok := LookupTemplate(id)
	return ok
}

// RenderQuestion fills the template's {placeholder} markers from slots.
// Placeholders without a slot value are left verbatim so a reviewer can see
// what the model failed to supply.
func RenderQuestion(t CheckTemplate, slots map[string]string) string {
	q := t.Question
	for name, value := range slots {
		q = strings.ReplaceAll(q, "{"+name+"}", value)
	}
	return q
}
