// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnExternalEdit(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.StartWatcher(ctx))

	doc, err := readDocument(s.Path())
	require.NoError(t, err)
	doc.Settings["MODE"] = "private"
	require.NoError(t, s.writeDocument(doc))

	// Reload is debounced, so give the watcher room.
	assert.Eventually(t, func() bool {
		return s.Get("MODE", "") == "private"
	}, 5*time.Second, 50*time.Millisecond, "external edit never reached the cache")
}

func TestWatcherStopCancelsPendingReload(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.StartWatcher(ctx))

	doc, err := readDocument(s.Path())
	require.NoError(t, err)
	doc.Settings["MODE"] = "private"
	require.NoError(t, s.writeDocument(doc))

	// Let the event reach the loop, then stop the watcher while the
	// debounce is still pending.
	time.Sleep(100 * time.Millisecond)
	cancel()

	assert.Never(t, func() bool {
		return s.Get("MODE", "") == "private"
	}, time.Second, 50*time.Millisecond, "reload fired after the watcher stopped")
}

func TestWatcherFailsOnMissingDirectory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"), testDefaults())
	// No Init, so the data directory does not exist yet.
	err := s.StartWatcher(context.Background())
	require.Error(t, err)
}
