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
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

// runKeyPrefix namespaces run-record keys inside the badger keyspace so the
// database can host other data later without collisions.
const runKeyPrefix = "run/latest/"

// BadgerConfig configures the embedded BadgerDB backend.
type BadgerConfig struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory disables disk persistence. Useful for tests.
	InMemory bool

	// SyncWrites forces fsync on every commit. On for production.
	SyncWrites bool

	// Logger receives BadgerDB's internal log lines. Nil silences them.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns production defaults: durable writes at path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// badgerSlog adapts slog.Logger to BadgerDB's Logger interface.
type badgerSlog struct {
	logger *slog.Logger
}

func (l *badgerSlog) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerSlog) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerSlog) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerSlog) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore is a RunStore over an embedded BadgerDB. A record is published
// in a single transaction commit, so readers never see a torn value.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if needed) the BadgerDB at cfg.Path.
// Callers own the returned store and must Close it.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerSlog{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenInMemoryBadgerStore opens a throwaway in-memory store for tests.
func OpenInMemoryBadgerStore() (*BadgerStore, error) {
	return OpenBadgerStore(BadgerConfig{InMemory: true})
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func runKey(packID string) []byte {
	return []byte(runKeyPrefix + packID)
}

// Save implements RunStore.
func (s *BadgerStore) Save(ctx context.Context, packID string, rec *datatypes.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(packID), data)
	})
	if err != nil {
		return fmt.Errorf("save run record for pack %s: %w", packID, err)
	}
	return nil
}

// LoadLatest implements RunStore.
func (s *BadgerStore) LoadLatest(ctx context.Context, packID string) (*datatypes.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec datatypes.RunRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(packID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("pack %s: %w", packID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run record for pack %s: %w", packID, err)
	}
	return &rec, nil
}

// Exists implements RunStore.
func (s *BadgerStore) Exists(ctx context.Context, packID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(runKey(packID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ RunStore = (*BadgerStore)(nil)
