// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/soleks/botvar/internal/log"
)

// StartWatcher watches the settings document for external edits and
// folds them back into the cache via Reload. Events are debounced so an
// editor's write burst triggers a single reload. The watcher stops when
// ctx is cancelled.
func (s *Store) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: atomic writers replace the
	// document by rename, which a file-level watch loses track of.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch settings directory: %w", err)
	}

	s.logger.Info().
		Str(log.FieldEvent, "store.watcher_started").
		Str(log.FieldPath, s.path).
		Msg("watching settings document for changes")

	go s.watchLoop(ctx, watcher)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			s.logger.Info().Str(log.FieldEvent, "store.watcher_stopped").Msg("settings watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != documentName {
				continue
			}
			// Write and Create cover both in-place edits and the
			// rename performed by atomic writers.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					if err := s.Reload(); err != nil {
						s.logger.Error().Err(err).
							Str(log.FieldEvent, "store.auto_reload_failed").
							Msg("automatic reload failed")
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().Err(err).
				Str(log.FieldEvent, "store.watcher_error").
				Msg("settings watcher error")
		}
	}
}
