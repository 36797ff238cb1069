package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dual/internal/store"
)

// MemoryStore opens a private in-memory SQLite store holding tracks.
// The store is closed when the test ends.
func MemoryStore(t testing.TB, tracks []store.Track) *store.Store {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite3, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	if len(tracks) > 0 {
		require.NoError(t, s.InsertTracks(ctx, tracks))
	}
	return s
}
