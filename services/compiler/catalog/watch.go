// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce batches editor write bursts into one reload.
const reloadDebounce = 250 * time.Millisecond

// Watch reloads the catalog whenever the manifest file changes on disk.
// Blocks until ctx is canceled; callers run it in its own goroutine.
//
// The watch is on the manifest's directory, not the file itself, because
// editors typically replace the file (write temp, rename) which would
// otherwise drop the watch after the first save.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(c.manifestPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Base(c.manifestPath)
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			c.logReloadResult(c.Reload())
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
