package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "research.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

func TestNewCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "research.db")
	s, err := New(path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, path, s.Path())
}

func TestSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.db")

	s1, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}
