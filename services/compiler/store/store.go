// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store persists run records keyed by pack id with "latest"
// semantics: each successful save overwrites the previous latest for that
// pack, and no history beyond latest is guaranteed.
//
// Two backends implement the same contract:
//
//   - FileStore: one JSON file per pack, published atomically via
//     write-temp-then-rename. This is the default and matches the exported
//     run-record file contract.
//   - BadgerStore: an embedded BadgerDB keyspace for deployments that
//     already run one.
//
// Readers must never observe a partially written record; both backends
// publish atomically.
package store

import (
	"context"
	"errors"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

// ErrRunNotFound is returned by LoadLatest when no run exists for a pack.
var ErrRunNotFound = errors.New("no run recorded for pack")

// RunStore is the pack_id -> latest RunRecord contract. Implementations are
// safe for concurrent use; concurrent saves to the same pack resolve to
// last-writer-wins.
type RunStore interface {
	// Save durably persists rec as the latest run for packID, creating any
	// missing storage location.
	Save(ctx context.Context, packID string, rec *datatypes.RunRecord) error

	// LoadLatest returns the latest run for packID, or ErrRunNotFound.
	LoadLatest(ctx context.Context, packID string) (*datatypes.RunRecord, error)

	// Exists reports whether a run is recorded for packID.
	Exists(ctx context.Context, packID string) (bool, error)
}
