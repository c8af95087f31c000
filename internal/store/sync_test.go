// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu      sync.Mutex
	vars    map[string]string
	varsErr error
	setErr  error
	pushes  map[string]string
}

func (f *fakeRemote) ConfigVars(context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.varsErr != nil {
		return nil, f.varsErr
	}
	out := make(map[string]string, len(f.vars))
	for k, v := range f.vars {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRemote) SetVar(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if f.pushes == nil {
		f.pushes = map[string]string{}
	}
	f.pushes[key] = value
	return nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func TestSyncOverwritesDifferingLocalKeys(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeRemote{vars: map[string]string{"AUTO_BIO": "no"}}
	s.AttachRemote(remote)

	require.NoError(t, s.SyncFromRemote(context.Background()))

	assert.Equal(t, "no", s.Get("AUTO_BIO", "yes"))

	// The merged cache is flushed to disk.
	doc, err := readDocument(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "no", doc.Settings["AUTO_BIO"])

	// Pull never pushes back.
	assert.Zero(t, remote.pushCount())
}

func TestSyncIgnoresRemoteOnlyKeys(t *testing.T) {
	s := newTestStore(t)
	s.AttachRemote(&fakeRemote{vars: map[string]string{
		"HEROKU_SLUG": "abc",
		"AUTO_READ":   "yes", // identical, no change
	}})

	require.NoError(t, s.SyncFromRemote(context.Background()))

	_, ok := s.Lookup("HEROKU_SLUG")
	assert.False(t, ok, "remote is not a source of new keys")
	assert.Equal(t, "yes", s.Get("AUTO_READ", ""))
}

func TestSyncNoopSkipsPersistence(t *testing.T) {
	s := newTestStore(t)
	s.AttachRemote(&fakeRemote{vars: map[string]string{"AUTO_READ": "yes"}})

	before, err := readDocument(s.Path())
	require.NoError(t, err)

	require.NoError(t, s.SyncFromRemote(context.Background()))

	after, err := readDocument(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before.Metadata.LastUpdated, after.Metadata.LastUpdated)
	assert.Empty(t, listBackups(t, s.backupDir))
}

func TestSyncErrorLeavesCacheIntact(t *testing.T) {
	s := newTestStore(t)
	s.AttachRemote(&fakeRemote{varsErr: errors.New("boom")})

	err := s.SyncFromRemote(context.Background())
	require.Error(t, err)
	assert.Equal(t, "yes", s.Get("AUTO_READ", ""))
}

func TestSyncWithoutRemoteFails(t *testing.T) {
	s := newTestStore(t)
	require.Error(t, s.SyncFromRemote(context.Background()))
}

func TestSetPushesOnlyChangedKey(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeRemote{}
	s.AttachRemote(remote)

	require.True(t, s.Set(context.Background(), "CHATBOT", "yes"))

	assert.Equal(t, map[string]string{"CHATBOT": "yes"}, remote.pushes)
}

func TestSetWithoutRemoteMakesNoRemoteCall(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeRemote{}
	s.AttachRemote(remote)
	s.DetachRemote()

	require.True(t, s.Set(context.Background(), "CHATBOT", "yes"))
	assert.Zero(t, remote.pushCount())
	assert.Equal(t, "yes", s.Get("CHATBOT", "no"))
}

func TestRemotePushFailureStillSucceeds(t *testing.T) {
	s := newTestStore(t)
	s.AttachRemote(&fakeRemote{setErr: errors.New("service unavailable")})

	// Local persistence succeeded, so the write counts as success.
	assert.True(t, s.Set(context.Background(), "WELCOME", "yes"))

	doc, err := readDocument(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "yes", doc.Settings["WELCOME"])
}
