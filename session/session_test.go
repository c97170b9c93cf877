// ABOUTME: Tests for session token storage
// ABOUTME: Runs the same token lifecycle against every store backend
package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "ringbook", "session.json"))
		},
		"badger": func(t *testing.T) Store {
			store, err := OpenBadgerStore(filepath.Join(t.TempDir(), "session.badger"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
}

func TestSessionLifecycle(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(open(t))

			tok, err := s.Token()
			require.NoError(t, err)
			assert.Empty(t, tok)
			assert.False(t, s.Authenticated())

			require.NoError(t, s.SetToken("t1"))
			tok, err = s.Token()
			require.NoError(t, err)
			assert.Equal(t, "t1", tok)
			assert.True(t, s.Authenticated())

			require.NoError(t, s.Clear())
			assert.False(t, s.Authenticated())

			// Clearing twice is fine.
			require.NoError(t, s.Clear())
		})
	}
}

func TestSetTokenRejectsBlank(t *testing.T) {
	s := New(NewMemoryStore())
	assert.Error(t, s.SetToken("   "))
	assert.False(t, s.Authenticated())
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)
	require.NoError(t, store.Set(TokenKey, "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewFileStore(path).Set(TokenKey, "persisted"))

	s := New(NewFileStore(path))
	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := New(NewFileStore(path)).Token()
	assert.Error(t, err)
}

func TestFileStoreEmptyFile(t *testing.T) {
	for name, body := range map[string]string{"zero bytes": "", "whitespace": " \n", "null": "null"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0600))

			s := New(NewFileStore(path))
			tok, err := s.Token()
			require.NoError(t, err)
			assert.Empty(t, tok)
			assert.False(t, s.Authenticated())

			require.NoError(t, s.SetToken("fresh"))
			tok, err = s.Token()
			require.NoError(t, err)
			assert.Equal(t, "fresh", tok)
		})
	}
}

func TestBadgerStoreMissingKey(t *testing.T) {
	store, err := OpenBadgerStore(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
