// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog resolves pack identifiers to ordered document lists.
//
// Packs are declared in a YAML manifest:
//
//	packs:
//	  - id: acme_q3
//	    name: "Acme Q3 diligence bundle"
//	    files:
//	      - doc_id: bank_stmt
//	        path: acme/bank_stmt.pdf
//	      - doc_id: cfo_email
//	        path: acme/cfo_email.eml
//
// File paths are relative and resolved against one or more search roots at
// compile time; the catalog itself never touches document bytes.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MeridianIntel/MeridianDesk/pkg/validation"
)

// PackFile is one declared document of a pack.
type PackFile struct {
	DocID string `yaml:"doc_id" json:"doc_id"`
	Path  string `yaml:"path" json:"path"`
}

// Pack is a named, ordered bundle of source documents analyzed together.
type Pack struct {
	ID    string     `yaml:"id" json:"id"`
	Name  string     `yaml:"name" json:"name"`
	Files []PackFile `yaml:"files" json:"files"`
}

// Summary is the list-packs projection.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FileCount int    `json:"file_count"`
}

// UnknownPackError reports a pack id absent from the catalog. It carries the
// known ids so the client can correct the request.
type UnknownPackError struct {
	PackID string
	Known  []string
}

func (e *UnknownPackError) Error() string {
	return fmt.Sprintf("unknown pack %q (known packs: %v)", e.PackID, e.Known)
}

type manifest struct {
	Packs []Pack `yaml:"packs"`
}

// Catalog is a reloadable view over the pack manifest. Safe for concurrent
// use; Reload swaps the whole pack map under a write lock.
type Catalog struct {
	manifestPath string
	searchRoots  []string

	mu    sync.RWMutex
	packs map[string]Pack
	order []string
}

// Load reads the manifest at path and returns a catalog resolving document
// paths against searchRoots (tried in order).
func Load(path string, searchRoots []string) (*Catalog, error) {
	c := &Catalog{manifestPath: path, searchRoots: searchRoots}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the manifest. On any error the previous catalog contents
// stay in effect.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.manifestPath)
	if err != nil {
		return fmt.Errorf("read pack manifest %s: %w", c.manifestPath, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse pack manifest %s: %w", c.manifestPath, err)
	}

	packs := make(map[string]Pack, len(m.Packs))
	order := make([]string, 0, len(m.Packs))
	for _, p := range m.Packs {
		if err := validation.ValidatePackID(p.ID); err != nil {
			return fmt.Errorf("manifest pack %q: %w", p.ID, err)
		}
		if _, dup := packs[p.ID]; dup {
			return fmt.Errorf("manifest declares pack %q twice", p.ID)
		}
		for _, f := range p.Files {
			if err := validation.ValidateDocID(f.DocID); err != nil {
				return fmt.Errorf("manifest pack %q: %w", p.ID, err)
			}
		}
		packs[p.ID] = p
		order = append(order, p.ID)
	}

	c.mu.Lock()
	c.packs = packs
	c.order = order
	c.mu.Unlock()
	return nil
}

// ListPacks returns pack summaries in manifest order.
func (c *Catalog) ListPacks() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Summary, 0, len(c.order))
	for _, id := range c.order {
		p := c.packs[id]
		out = append(out, Summary{ID: p.ID, Name: p.Name, FileCount: len(p.Files)})
	}
	return out
}

// KnownIDs returns all pack ids, sorted.
func (c *Catalog) KnownIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.packs))
	for id := range c.packs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve returns the pack declaration for packID, or an UnknownPackError.
func (c *Catalog) Resolve(packID string) (Pack, error) {
	c.mu.RLock()
	p, ok := c.packs[packID]
	c.mu.RUnlock()
	if !ok {
		return Pack{}, &UnknownPackError{PackID: packID, Known: c.KnownIDs()}
	}
	return p, nil
}

// ResolvePath locates a declared file against the search roots, first hit
// wins. Returns an error when the file exists in no root.
func (c *Catalog) ResolvePath(f PackFile) (string, error) {
	for _, root := range c.searchRoots {
		candidate := filepath.Join(root, f.Path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("document %s (%s) not found under any search root", f.DocID, f.Path)
}

// logReloadResult is shared by the watcher goroutine.
func (c *Catalog) logReloadResult(err error) {
	if err != nil {
		slog.Error("Pack manifest reload failed, keeping previous catalog", "error", err)
		return
	}
	slog.Info("Pack manifest reloaded", "packs", len(c.ListPacks()))
}
