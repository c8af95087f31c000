// SPDX-License-Identifier: MIT

// Package store implements the runtime settings store: an in-memory
// key/value cache persisted as a JSON document with rotated backups and
// optionally mirrored to a remote config-var service.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/soleks/botvar/internal/log"
)

// Remote is the optional mirror for settings. Implemented by
// heroku.Client.
type Remote interface {
	// ConfigVars fetches the full remote key/value set.
	ConfigVars(ctx context.Context) (map[string]string, error)
	// SetVar pushes a single key/value pair.
	SetVar(ctx context.Context, key, value string) error
}

// Store owns the settings cache and its persistence. Construct one per
// process at startup and share it by injection; there is no teardown
// beyond normal process exit.
type Store struct {
	mu        sync.RWMutex
	saveMu    sync.Mutex // serializes the read-backup-write sequence
	cache     map[string]string
	defaults  map[string]string
	path      string
	backupDir string
	sessionID string
	logger    zerolog.Logger
	now       func() time.Time

	remoteMu sync.RWMutex
	remote   Remote
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store rooted at dir. defaults seeds the document at
// first creation; it is also consulted when Reload finds no document.
func New(dir string, defaults map[string]string, opts ...Option) *Store {
	s := &Store{
		cache:     map[string]string{},
		defaults:  defaults,
		path:      configPath(dir),
		backupDir: backupPath(dir),
		logger:    log.WithComponent("store"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessionID = newSessionID(s.now())
	return s
}

// newSessionID builds the per-process session identifier: launch
// timestamp plus a short random suffix. Regenerated every start, never
// persisted across restarts.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// SessionID returns the identifier generated for this process.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Path returns the canonical document path.
func (s *Store) Path() string {
	return s.path
}

// AttachRemote enables remote mirroring. Call after a successful
// connectivity probe; never call with a nil remote.
func (s *Store) AttachRemote(r Remote) {
	s.remoteMu.Lock()
	s.remote = r
	s.remoteMu.Unlock()
	s.logger.Info().Str(log.FieldEvent, "store.remote_attached").Msg("remote sync enabled")
}

// DetachRemote disables remote mirroring, returning the store to
// local-only operation.
func (s *Store) DetachRemote() {
	s.remoteMu.Lock()
	s.remote = nil
	s.remoteMu.Unlock()
	s.logger.Info().Str(log.FieldEvent, "store.remote_detached").Msg("remote sync disabled")
}

// RemoteAvailable reports whether a remote mirror is attached.
func (s *Store) RemoteAvailable() bool {
	s.remoteMu.RLock()
	defer s.remoteMu.RUnlock()
	return s.remote != nil
}

func (s *Store) currentRemote() Remote {
	s.remoteMu.RLock()
	defer s.remoteMu.RUnlock()
	return s.remote
}

// Init prepares the store: ensures the config and backup directories
// exist, creates the document with defaults when absent, and loads its
// settings into the cache. Init fails soft: every error is logged and
// the store continues with whatever state was achieved, down to an
// empty cache on total failure.
func (s *Store) Init() {
	if err := s.ensureDirs(); err != nil {
		s.logger.Error().Err(err).
			Str(log.FieldEvent, "store.init_dirs_failed").
			Msg("could not create storage directories")
		return
	}

	if !s.documentExists() {
		doc := newDocument(cloneSettings(s.defaults), s.sessionID, s.now())
		if err := s.writeDocument(doc); err != nil {
			s.logger.Error().Err(err).
				Str(log.FieldEvent, "store.init_create_failed").
				Str(log.FieldPath, s.path).
				Msg("could not create settings document")
		} else {
			s.logger.Info().
				Str(log.FieldEvent, "store.document_created").
				Str(log.FieldPath, s.path).
				Int("settings", len(doc.Settings)).
				Msg("created settings document with defaults")
		}
	}

	if err := s.loadToCache(); err != nil {
		s.logger.Error().Err(err).
			Str(log.FieldEvent, "store.init_load_failed").
			Msg("could not load settings into cache")
		return
	}

	s.logger.Info().
		Str(log.FieldEvent, "store.initialized").
		Str(log.FieldSessionID, s.sessionID).
		Int("settings", s.Len()).
		Msg("settings store ready")
}

// Get returns the cached value for key, falling back to def when the
// key is absent or when the stored value is empty. Treating
// present-but-empty like absent is deliberate, inherited behavior;
// callers that need to distinguish use Lookup.
func (s *Store) Get(key, def string) string {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok || v == "" {
		return def
	}
	return v
}

// Lookup returns the raw cached value and whether the key is present.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	return v, ok
}

// All returns a snapshot copy of the cache at the time of the call.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.cache)
}

// Len returns the number of cached settings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Set is the sole mutation path. The cache is updated first so reads in
// this process see the new value even if persistence fails; the
// document is then rewritten (with a backup of its previous state) and
// the single changed pair is pushed to the remote mirror when one is
// attached. A failed remote push is logged but does not roll back the
// local write; the returned bool is false only when local persistence
// failed.
func (s *Store) Set(ctx context.Context, key, value string) bool {
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		saveErrors.Inc()
		s.logger.Error().Err(err).
			Str(log.FieldEvent, "store.persist_failed").
			Str(log.FieldKey, key).
			Msg("settings write not persisted, cache updated only")
		return false
	}

	if r := s.currentRemote(); r != nil {
		if err := r.SetVar(ctx, key, value); err != nil {
			remoteSyncOps.WithLabelValues("push", "error").Inc()
			s.logger.Warn().Err(err).
				Str(log.FieldEvent, "store.remote_push_failed").
				Str(log.FieldKey, key).
				Msg("remote push failed, local state remains authoritative")
		} else {
			remoteSyncOps.WithLabelValues("push", "ok").Inc()
		}
	}
	return true
}

// SyncFromRemote pulls the full remote key/value set and folds it into
// the cache: only keys already present locally are updated, and only
// when the remote value differs. Keys that exist solely on one side are
// left untouched. When anything changed the merged cache is flushed to
// disk; the merge is never pushed back.
func (s *Store) SyncFromRemote(ctx context.Context) error {
	r := s.currentRemote()
	if r == nil {
		return fmt.Errorf("remote sync unavailable")
	}

	vars, err := r.ConfigVars(ctx)
	if err != nil {
		remoteSyncOps.WithLabelValues("pull", "error").Inc()
		return fmt.Errorf("fetch remote vars: %w", err)
	}

	s.mu.Lock()
	changed := 0
	for key, local := range s.cache {
		if remote, ok := vars[key]; ok && remote != local {
			s.cache[key] = remote
			changed++
		}
	}
	s.mu.Unlock()

	remoteSyncOps.WithLabelValues("pull", "ok").Inc()
	if changed == 0 {
		s.logger.Debug().Str(log.FieldEvent, "store.sync_noop").Msg("remote matches local cache")
		return nil
	}

	s.logger.Info().
		Str(log.FieldEvent, "store.sync_applied").
		Int("updated", changed).
		Msg("applied remote values to local cache")

	if err := s.persist(); err != nil {
		saveErrors.Inc()
		return fmt.Errorf("persist merged cache: %w", err)
	}
	return nil
}

// Reload re-reads the document from disk and replaces the cache with
// its settings. It is the explicit administrative counterpart to the
// file watcher.
func (s *Store) Reload() error {
	if err := s.loadToCache(); err != nil {
		return fmt.Errorf("reload settings: %w", err)
	}
	s.logger.Info().
		Str(log.FieldEvent, "store.reloaded").
		Int("settings", s.Len()).
		Msg("settings reloaded from disk")
	return nil
}

func cloneSettings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
