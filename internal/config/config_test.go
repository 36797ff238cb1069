package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the user's real config directory and DUAL_* variables
// out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"DUAL_DATABASE_DRIVER", "DUAL_DATABASE_DSN", "DUAL_SEARCH_DEFAULT_LIMIT",
		"DUAL_SEARCH_TEXT_FIELDS", "DUAL_CATALOG_SCHEMA", "DUAL_LOG_LEVEL", "DUAL_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dual.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: /srv/music/library.db
search:
  default_limit: 25
  text_fields: [title, artist]
catalog:
  schema: fields.cue
log:
  level: debug
  format: json
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/srv/music/library.db", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Search.DefaultLimit)
	assert.Equal(t, []string{"title", "artist"}, cfg.Search.TextFields)
	assert.Equal(t, "fields.cue", cfg.Catalog.Schema)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "search:\n  default_limit: 10\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, Defaults().Database, cfg.Database)
	assert.Equal(t, Defaults().Search.TextFields, cfg.Search.TextFields)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "database:\n  dsn: file.db\n")
	t.Setenv("DUAL_DATABASE_DSN", "env.db")
	t.Setenv("DUAL_SEARCH_TEXT_FIELDS", "title,genre")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database.DSN)
	assert.Equal(t, []string{"title", "genre"}, cfg.Search.TextFields)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DUAL_DATABASE_DSN", "env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("driver", "", "")
	flags.Int("limit", 0, "")
	require.NoError(t, flags.Parse([]string{"--db", "flag.db", "--limit", "7"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Search.DefaultLimit)
	assert.Equal(t, "sqlite3", cfg.Database.Driver, "unset flags do not override defaults")
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "database:\n  driver: mysql\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")

	_, err = Load(writeConfig(t, "log:\n  level: loud\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")

	_, err = Load(writeConfig(t, "search:\n  default_limit: -1\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_limit")

	_, err = Load(writeConfig(t, "database: [\n"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	l := LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf, false)
	assert.False(t, l.Enabled(ctx, slog.LevelInfo))
	assert.True(t, l.Enabled(ctx, slog.LevelWarn))

	l = LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf, true)
	assert.True(t, l.Enabled(ctx, slog.LevelDebug), "verbose forces debug")

	l = LogConfig{Level: "info", Format: "json"}.NewLogger(&buf, false)
	l.Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":1`)
}
