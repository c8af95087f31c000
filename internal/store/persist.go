// SPDX-License-Identifier: MIT

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/soleks/botvar/internal/log"
)

const (
	documentName = "config.json"
	backupSubdir = "backups"
	backupPrefix = "config_backup_"

	// maxBackups is the retention limit: after every save only the
	// newest snapshots up to this count survive.
	maxBackups = 7
)

func configPath(dir string) string {
	return filepath.Join(dir, documentName)
}

func backupPath(dir string) string {
	return filepath.Join(dir, backupSubdir)
}

func (s *Store) ensureDirs() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		return fmt.Errorf("mkdir backup dir: %w", err)
	}
	return nil
}

func (s *Store) documentExists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// loadToCache replaces the cache contents with the persisted settings.
func (s *Store) loadToCache() error {
	doc, err := readDocument(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cache = cloneSettings(doc.Settings)
	s.mu.Unlock()
	cachedSettings.Set(float64(len(doc.Settings)))
	return nil
}

// persist flushes the cache to disk: the current on-disk document keeps
// its created timestamp, gets the full cache as settings and fresh
// lastUpdated/sessionId metadata, and is backed up before the new
// revision replaces it atomically.
func (s *Store) persist() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.ensureDirs(); err != nil {
		return err
	}

	doc, err := readDocument(s.path)
	if err != nil {
		// Missing or corrupt document: start a fresh one rather than
		// losing the write.
		doc = newDocument(nil, s.sessionID, s.now())
	}

	s.mu.RLock()
	doc.Settings = cloneSettings(s.cache)
	s.mu.RUnlock()

	now := s.now()
	doc.Metadata.LastUpdated = now.UTC().Format(timestampLayout)
	doc.Metadata.SessionID = s.sessionID
	if doc.Metadata.Version == "" {
		doc.Metadata.Version = DocumentVersion
	}

	s.backupCurrent()

	if err := s.writeDocument(doc); err != nil {
		return err
	}

	saves.Inc()
	cachedSettings.Set(float64(len(doc.Settings)))
	return nil
}

// writeDocument writes the document via temp-file-then-rename so the
// canonical path is never observed half-written.
func (s *Store) writeDocument(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending document: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup pending document")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace document: %w", err)
	}
	return nil
}

// backupCurrent copies the current on-disk document into the backup
// directory and prunes old snapshots. Best-effort: failures are logged
// and the save proceeds without a backup.
func (s *Store) backupCurrent() {
	// #nosec G304 -- path is derived from the operator-provided data dir
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).
				Str(log.FieldEvent, "store.backup_read_failed").
				Msg("could not read document for backup")
		}
		return
	}

	name := backupPrefix + backupTimestamp(s.now().UTC().Format(timestampLayout)) + ".json"
	target := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(target, data, 0o640); err != nil {
		s.logger.Warn().Err(err).
			Str(log.FieldEvent, "store.backup_write_failed").
			Str(log.FieldPath, target).
			Msg("could not write backup")
		return
	}

	s.pruneBackups()
}

// backupTimestamp makes a timestamp filesystem-safe: colons and periods
// become dashes. The result still sorts chronologically.
func backupTimestamp(ts string) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}

// pruneBackups deletes every backup beyond the newest maxBackups,
// ordered by filename (which embeds the timestamp).
func (s *Store) pruneBackups() {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		s.logger.Warn().Err(err).
			Str(log.FieldEvent, "store.backup_list_failed").
			Msg("could not list backup directory")
		return
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			names = append(names, e.Name())
		}
	}
	if len(names) <= maxBackups {
		return
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, name := range names[maxBackups:] {
		if err := os.Remove(filepath.Join(s.backupDir, name)); err != nil {
			s.logger.Warn().Err(err).
				Str(log.FieldEvent, "store.backup_prune_failed").
				Str(log.FieldPath, name).
				Msg("could not delete old backup")
			continue
		}
		backupsPruned.Inc()
	}
}
