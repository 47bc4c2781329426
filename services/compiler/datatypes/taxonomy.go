// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// The taxonomies below are closed sets. A new category requires a code
// change; the parser rejects values outside these sets rather than carrying
// them through as free text.

// SignalType categorizes a Finding.
type SignalType string

const (
	SignalLiquidity   SignalType = "liquidity"
	SignalReceivables SignalType = "receivables"
	SignalInventory   SignalType = "inventory"
	SignalQuality     SignalType = "quality"
	SignalLogistics   SignalType = "logistics"
	SignalLegal       SignalType = "legal"
	SignalOperations  SignalType = "operations"
)

var signalTypes = map[SignalType]bool{
	SignalLiquidity:   true,
	SignalReceivables: true,
	SignalInventory:   true,
	SignalQuality:     true,
	SignalLogistics:   true,
	SignalLegal:       true,
	SignalOperations:  true,
}

// Valid reports whether t is a known signal type.
func (t SignalType) Valid() bool { return signalTypes[t] }

// SignalTypes lists all signal types in their canonical report order.
func SignalTypes() []SignalType {
	return []SignalType{
		SignalLiquidity,
		SignalReceivables,
		SignalInventory,
		SignalQuality,
		SignalLogistics,
		SignalLegal,
		SignalOperations,
	}
}

// Severity is the ordered finding severity: critical > high > medium > low.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool { _, ok := severityRank[s]; return ok }

// Rank returns the sort rank of s; lower ranks are more severe. Unknown
// severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Severities lists all severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// DropReason states why a candidate claim was rejected.
type DropReason string

const (
	// DropMissingEvidence marks findings demoted by the verifier.
	DropMissingEvidence DropReason = "MISSING_EVIDENCE"
	// DropAmbiguous marks claims the model (or the parser) could not pin to
	// a single reading.
	DropAmbiguous DropReason = "AMBIGUOUS"
	// DropReferencedNotAttached marks claims about documents that were
	// referenced in the sources but not part of the pack.
	DropReferencedNotAttached DropReason = "REFERENCED_NOT_ATTACHED"
)

var dropReasons = map[DropReason]bool{
	DropMissingEvidence:       true,
	DropAmbiguous:             true,
	DropReferencedNotAttached: true,
}

// Valid reports whether r is a known drop reason.
func (r DropReason) Valid() bool { return dropReasons[r] }

// ConflictType categorizes a Conflict. Coarser than signal types on purpose:
// a conflict is about what kind of fact the sources disagree on.
type ConflictType string

const (
	ConflictCashDefinition ConflictType = "cash_definition"
	ConflictCashAmount     ConflictType = "cash_amount"
	ConflictQuantity       ConflictType = "quantity"
	ConflictDate           ConflictType = "date"
	ConflictTerms          ConflictType = "terms"
)

var conflictTypes = map[ConflictType]bool{
	ConflictCashDefinition: true,
	ConflictCashAmount:     true,
	ConflictQuantity:       true,
	ConflictDate:           true,
	ConflictTerms:          true,
}

// Valid reports whether t is a known conflict type.
func (t ConflictType) Valid() bool { return conflictTypes[t] }

// ConflictFlag is a structural warning attached to a conflict.
type ConflictFlag string

const (
	FlagValueDateMismatch ConflictFlag = "value_date_mismatch"
	FlagUnknownDefinition ConflictFlag = "unknown_definition"
	FlagBlocksDownstream  ConflictFlag = "blocks_downstream"
)

var conflictFlags = map[ConflictFlag]bool{
	FlagValueDateMismatch: true,
	FlagUnknownDefinition: true,
	FlagBlocksDownstream:  true,
}

// Valid reports whether f is a known conflict flag.
func (f ConflictFlag) Valid() bool { return conflictFlags[f] }
