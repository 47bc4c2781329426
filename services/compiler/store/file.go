// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

// FileStore keeps one JSON file per pack under a root directory:
// <root>/<pack_id>.json. Saves write to a temp file in the same directory
// and rename over the target, so a concurrent reader sees either the old
// record or the new one, never a torn write.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed run store rooted at dir. The directory
// is created on first save if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	return &FileStore{root: dir}, nil
}

func (s *FileStore) path(packID string) string {
	// Pack ids are validated upstream, but never trust them as path input.
	safe := strings.ReplaceAll(packID, string(os.PathSeparator), "_")
	return filepath.Join(s.root, safe+".json")
}

// Save implements RunStore.
func (s *FileStore) Save(ctx context.Context, packID string, rec *datatypes.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0750); err != nil {
		return fmt.Errorf("create store directory %s: %w", s.root, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}

	target := s.path(packID)
	tmp, err := os.CreateTemp(s.root, "."+packID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write run record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync run record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("publish run record: %w", err)
	}
	return nil
}

// LoadLatest implements RunStore.
func (s *FileStore) LoadLatest(ctx context.Context, packID string) (*datatypes.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(packID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pack %s: %w", packID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("read run record: %w", err)
	}

	var rec datatypes.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode run record for pack %s: %w", packID, err)
	}
	return &rec, nil
}

// Exists implements RunStore.
func (s *FileStore) Exists(ctx context.Context, packID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(packID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

var _ RunStore = (*FileStore)(nil)
