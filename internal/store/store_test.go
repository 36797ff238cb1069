package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dual/internal/fields"
)

func openMemory(t *testing.T, driver string) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: driver, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func loadFixture(t *testing.T) []Track {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "tracks.yaml"))
	require.NoError(t, err)
	defer f.Close()
	tracks, err := LoadTracks(f)
	require.NoError(t, err)
	return tracks
}

func selectAll() string {
	return "SELECT " + strings.Join(TrackColumns, ", ") + " FROM items ORDER BY id ASC"
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")

	s, err := Open(context.Background(), Config{DSN: path})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite3, s.Driver())
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
	require.NoError(t, s.Close())

	// Reopening an existing database is a no-op.
	s, err = Open(context.Background(), Config{DSN: path})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	s, err := Open(context.Background(), Config{DSN: path})
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), Config{DSN: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestColumns(t *testing.T) {
	for _, driver := range []string{DriverSQLite3, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			s := openMemory(t, driver)
			cols, err := s.Columns(context.Background())
			require.NoError(t, err)

			names := make([]string, len(cols))
			for i, c := range cols {
				names[i] = c.Name
			}
			assert.Equal(t, TrackColumns, names)

			kinds := map[string]fields.Kind{}
			for _, c := range cols {
				kinds[c.Name] = fields.KindForType(c.Type)
			}
			assert.Equal(t, fields.KindString, kinds["artist"])
			assert.Equal(t, fields.KindNumber, kinds["year"])
			assert.Equal(t, fields.KindNumber, kinds["length"])
		})
	}
}

func TestInsertAndSearch(t *testing.T) {
	for _, driver := range []string{DriverSQLite3, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			s := openMemory(t, driver)
			require.NoError(t, s.InsertTracks(ctx, loadFixture(t)))

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			got, err := s.Search(ctx, selectAll(), nil)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, int64(1), got[0].ID)
			assert.Equal(t, "Paranoid Android", got[0].Title)
			assert.Equal(t, Seconds(383), got[0].Length)
			assert.Equal(t, Epoch(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC).Unix()), got[0].Added)
			assert.Equal(t, "", got[2].AlbumArtist)

			got, err = s.Search(ctx,
				"SELECT "+strings.Join(TrackColumns, ", ")+" FROM items WHERE year >= ? ORDER BY id ASC",
				[]any{int64(1997)})
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "Radiohead", got[1].Artist)
		})
	}
}

func TestSearch_EmptyResultIsNotNil(t *testing.T) {
	s := openMemory(t, DriverSQLite3)
	got, err := s.Search(context.Background(), selectAll(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_WrongProjection(t *testing.T) {
	s := openMemory(t, DriverSQLite3)
	_, err := s.Search(context.Background(), "SELECT id, title FROM items", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 16")
}

func TestInsertTracks_RequiresPath(t *testing.T) {
	s := openMemory(t, DriverSQLite3)
	err := s.InsertTracks(context.Background(), []Track{{Path: "/a"}, {Title: "no path"}})
	require.Error(t, err)

	// The transaction is rolled back as a whole.
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsertTracks_DuplicatePath(t *testing.T) {
	s := openMemory(t, DriverSQLite3)
	err := s.InsertTracks(context.Background(), []Track{{Path: "/a"}, {Path: "/a"}})
	require.Error(t, err)
}

func TestTrackValue(t *testing.T) {
	tr := Track{ID: 7, Artist: "Radiohead", Year: 1997, Length: 383}

	v, ok := tr.Value("artist")
	assert.True(t, ok)
	assert.Equal(t, "Radiohead", v)

	v, ok = tr.Value("length")
	assert.True(t, ok)
	assert.Equal(t, int64(383), v)

	v, ok = tr.Value("id")
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	_, ok = tr.Value("bpm")
	assert.False(t, ok)
}

func TestLoadTracks(t *testing.T) {
	tracks := loadFixture(t)
	require.Len(t, tracks, 3)
	assert.Equal(t, Seconds(251), tracks[1].Length)
	assert.Equal(t, Epoch(time.Date(2021, 3, 2, 12, 0, 0, 0, time.UTC).Unix()), tracks[1].Added)
	assert.Equal(t, Epoch(1614556800), tracks[2].Added)
	assert.Equal(t, Seconds(251), tracks[2].Length)
}

func TestLoadTracks_Empty(t *testing.T) {
	tracks, err := LoadTracks(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestLoadTracks_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "- path: /a\n  bpm: 120\n"},
		{"bad date", "- path: /a\n  added: yesterday\n"},
		{"bad length", "- path: /a\n  length: \"4:7\"\n"},
		{"length too many parts", "- path: /a\n  length: \"1:00:00:00\"\n"},
		{"not a list", "path: /a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTracks(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSecondsUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Seconds
	}{
		{"0", 0},
		{"90", 90},
		{"1:30", 90},
		{"1:02:03", 3723},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tracks, err := LoadTracks(strings.NewReader("- path: /a\n  length: \"" + tt.in + "\"\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tracks[0].Length)
		})
	}
}
