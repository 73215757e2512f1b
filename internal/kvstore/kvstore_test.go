package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-crm/internal/config"
)

// roundTrip exercises the Store contract against any backend.
func roundTrip(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("company:acme", `{"status":"Qualified"}`))
	v, ok, err := s.Get("company:acme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"status":"Qualified"}`, v)

	// Last write wins.
	require.NoError(t, s.Set("company:acme", `{"status":"Won"}`))
	v, _, err = s.Get("company:acme")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"Won"}`, v)

	require.NoError(t, s.Delete("company:acme"))
	_, ok, err = s.Get("company:acme")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	require.NoError(t, s.Delete("company:acme"))
}

func TestMemoryRoundTrip(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	roundTrip(t, s)
}

func TestSQLiteRoundTrip(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
}

func TestBadgerRoundTrip(t *testing.T) {
	s, err := NewBadger(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestOpenDrivers(t *testing.T) {
	s, err := Open(config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "kv.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(config.StoreConfig{Driver: "badger", Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(config.StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}
