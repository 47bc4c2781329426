// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided identifiers that end up
// in file paths and store keys. Using these validators prevents path
// traversal and key-collision tricks from request input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern matches valid pack and document identifiers.
// Allows: lowercase letters, digits, underscores, hyphens; must start with a
// letter or digit. Max length: 64 characters.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

// ValidatePackID validates a pack identifier before it is used as a store
// key or a file name.
//
// Valid pack ids:
//   - 1-64 characters
//   - lowercase letters a-z, digits 0-9
//   - underscores and hyphens after the first character
//
// Returns an error if the id is invalid.
//
// Example:
//
//	if err := validation.ValidatePackID(packID); err != nil {
//	    return nil, fmt.Errorf("invalid pack id: %w", err)
//	}
//	// Safe to use as a store key
func ValidatePackID(id string) error {
	if id == "" {
		return fmt.Errorf("pack id cannot be empty")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid pack id: %q (must be 1-64 lowercase alphanumeric chars, underscores, or hyphens)", id)
	}
	return nil
}

// ValidateDocID validates a document identifier declared in a pack manifest.
// Doc ids follow the same rules as pack ids.
func ValidateDocID(id string) error {
	if id == "" {
		return fmt.Errorf("doc id cannot be empty")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid doc id: %q (must be 1-64 lowercase alphanumeric chars, underscores, or hyphens)", id)
	}
	return nil
}

// SanitizePackID normalizes and validates a pack identifier.
// Returns the lowercase id if valid, or an error if invalid.
func SanitizePackID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if err := ValidatePackID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
