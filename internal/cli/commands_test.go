package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dual/internal/compiler"
	"github.com/roach88/dual/internal/query"
)

const libraryFixture = "../harness/testdata/fixtures/library.yaml"

// importedDB returns a database holding the shared nine-track library.
func importedDB(t *testing.T) string {
	t.Helper()
	db := tempDB(t)
	_, _, err := execute(t, "import", "--db", db, libraryFixture)
	require.NoError(t, err)
	return db
}

type searchResponse struct {
	Status  string       `json:"status"`
	TraceID string       `json:"trace_id"`
	Data    SearchOutput `json:"data"`
}

func titles(out SearchOutput) []string {
	ts := make([]string, len(out.Tracks))
	for i, tr := range out.Tracks {
		ts[i] = tr.Title
	}
	return ts
}

func TestImportCommand(t *testing.T) {
	isolate(t)
	db := tempDB(t)

	out, _, err := execute(t, "import", "--db", db, libraryFixture)
	require.NoError(t, err)
	assert.Equal(t, "✓ Imported 9 track(s), library now holds 9\n", out)

	extra := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(extra, []byte("- path: /lib/extra.flac\n  title: Extra\n"), 0644))

	out, _, err = execute(t, "import", "--db", db, "--format", "json", extra)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ImportResult{File: extra, Imported: 1, Total: 10}, resp.Data)
}

func TestImportCommand_Errors(t *testing.T) {
	isolate(t)

	t.Run("missing file", func(t *testing.T) {
		out, _, err := execute(t, "import", "--db", tempDB(t), filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E004]")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- path: /a.flac\n  tempo: fast\n"), 0644))

		out, _, err := execute(t, "import", "--db", tempDB(t), path)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")
	})

	t.Run("duplicate path", func(t *testing.T) {
		db := importedDB(t)
		out, _, err := execute(t, "import", "--db", db, libraryFixture)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")

		out, _, err = execute(t, "search", "--db", db, "--format", "json")
		require.NoError(t, err)
		var resp searchResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, 9, resp.Data.Count, "failed import leaves the library unchanged")
	})

	t.Run("wrong arg count", func(t *testing.T) {
		_, _, err := execute(t, "import")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg")
	})
}

func TestSearchCommand_JSON(t *testing.T) {
	isolate(t)
	db := importedDB(t)

	out, _, err := execute(t, "search", "--db", db, "--format", "json",
		"artist:radiohead", "year:1995..2003", "year+")
	require.NoError(t, err)

	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, "artist:radiohead year:1995..2003 year+", resp.Data.Query)
	assert.NotEmpty(t, resp.Data.Fingerprint)
	assert.Equal(t, 4, resp.Data.Count)
	assert.Equal(t, []string{
		"Fake Plastic Trees",
		"Paranoid Android",
		"Everything In Its Right Place",
		"2 + 2 = 5",
	}, titles(resp.Data))
	assert.EqualValues(t, 383, resp.Data.Tracks[1].Length)
}

func TestSearchCommand_Text(t *testing.T) {
	isolate(t)
	db := importedDB(t)

	out, _, err := execute(t, "search", "--db", db, "^artist:radiohead", "year-")
	require.NoError(t, err)
	assert.Contains(t, out, "ARTIST")
	assert.Contains(t, out, "Teardrop")
	assert.Contains(t, out, "5:30")
	assert.Contains(t, out, "3 track(s)")
	assert.NotContains(t, out, "Creep")

	out, _, err = execute(t, "search", "--db", db, "artist:sigur")
	require.NoError(t, err)
	assert.Equal(t, "No tracks found.\n", out)
}

func TestSearchCommand_Limit(t *testing.T) {
	isolate(t)
	db := importedDB(t)

	out, _, err := execute(t, "search", "--db", db, "--format", "json", "--limit", "2")
	require.NoError(t, err)
	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"Creep", "Fake Plastic Trees"}, titles(resp.Data))

	out, _, err = execute(t, "search", "--db", db, "--format", "json", "--limit", "2", "@3")
	require.NoError(t, err)
	resp = searchResponse{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Count, "@N overrides --limit")
}

func TestSearchCommand_QueryErrors(t *testing.T) {
	isolate(t)
	db := importedDB(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"syntax", []string{"rock", "@"}, query.ErrCodeSyntax},
		{"kind mismatch", []string{"year:1995"}, compiler.ErrKindMismatch},
		{"range conflict", []string{"added:3:00..4:30"}, compiler.ErrRangeKindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"search", "--db", db, "--format", "json"}, tt.args...)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestParseCommand(t *testing.T) {
	isolate(t)
	db := tempDB(t)

	out, _, err := execute(t, "parse", "--db", db, "--format", "json",
		"artist:radiohead year:1995..2003 mellow @random @5")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data["fields"], 2)
	assert.Len(t, resp.Data["raw"], 1)
	assert.Len(t, resp.Data["order"], 1)
	assert.EqualValues(t, 5, resp.Data["limit"])

	out, _, err = execute(t, "parse", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "(empty query)\n", out)

	out, _, err = execute(t, "parse", "--db", db, "rock @")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
}

func TestCompileCommand(t *testing.T) {
	isolate(t)
	db := tempDB(t)

	out, _, err := execute(t, "compile", "--db", db, "--format", "json",
		"artist:radiohead year:1995..2003 @random @5")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			QueryID       string   `json:"query_id"`
			Fingerprint   string   `json:"fingerprint"`
			Deterministic bool     `json:"deterministic"`
			Warnings      []string `json:"warnings"`
			SQL           string   `json:"sql"`
			Params        []any    `json:"params"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Data.QueryID)
	assert.NotEmpty(t, resp.Data.Fingerprint)
	assert.False(t, resp.Data.Deterministic)
	assert.NotEmpty(t, resp.Data.Warnings)
	assert.Contains(t, resp.Data.SQL, "RANDOM()")
	assert.Equal(t, []any{"%radiohead%", float64(1995), float64(2003), float64(5)}, resp.Data.Params)

	// Same query, same fingerprint.
	again, _, err := execute(t, "compile", "--db", db, "--format", "json",
		"artist:radiohead year:1995..2003 @random @5")
	require.NoError(t, err)
	assert.JSONEq(t, out, again)

	out, _, err = execute(t, "compile", "--db", db, "year+")
	require.NoError(t, err)
	assert.Contains(t, out, "ORDER BY year ASC, id ASC")
	assert.Contains(t, out, "deterministic: yes")
}

func TestFieldsCommand(t *testing.T) {
	isolate(t)
	db := tempDB(t)

	out, _, err := execute(t, "fields", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []FieldInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	byName := map[string]FieldInfo{}
	for _, fi := range resp.Data {
		byName[fi.Name] = fi
	}
	assert.Equal(t, FieldInfo{Name: "title", Kind: "string", Text: true}, byName["title"])
	assert.Equal(t, FieldInfo{Name: "year", Kind: "number"}, byName["year"])
	assert.Equal(t, FieldInfo{Name: "length", Kind: "duration"}, byName["length"])
	assert.Equal(t, FieldInfo{Name: "added", Kind: "date"}, byName["added"])

	out, _, err = execute(t, "fields", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "duration")
}

func TestFieldsCommand_ConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dual.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(
		"database:\n  dsn: "+filepath.Join(dir, "lib.db")+"\n"+
			"search:\n  text_fields: [album]\n"), 0644))

	out, _, err := execute(t, "fields", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []FieldInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	var text []string
	for _, fi := range resp.Data {
		if fi.Text {
			text = append(text, fi.Name)
		}
	}
	assert.Equal(t, []string{"album"}, text)
	assert.FileExists(t, filepath.Join(dir, "lib.db"))
}
