package querysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dual/internal/ir"
	"github.com/roach88/dual/internal/queryir"
)

func intPtr(n int) *int { return &n }

func lit(n int64) queryir.Literal { return queryir.Literal{Value: ir.IRInt(n)} }

// render formats a statement and its parameters for golden comparison.
func render(sql string, params []any) []byte {
	var sb strings.Builder
	sb.WriteString(sql)
	sb.WriteString("\n")
	for i, p := range params {
		fmt.Fprintf(&sb, "%d: %#v\n", i+1, p)
	}
	return []byte(sb.String())
}

func assertGolden(t *testing.T, name string, sql string, params []any) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, render(sql, params))
}

// radioheadProgram is the compiled form of
// "artist:radiohead year:1995..2003 @random @5".
func radioheadProgram() *queryir.Program {
	return &queryir.Program{
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Contains{Field: "artist", Value: "radiohead"},
				queryir.Between{Field: "year", Min: lit(1995), Max: lit(2003)},
			}},
			queryir.And{},
		}},
		Order: []queryir.Order{queryir.Random{}},
		Limit: intPtr(5),
	}
}

// mellowProgram is the compiled form of
// "^genre:pop added:-7d.. year- title+ mellow".
func mellowProgram() *queryir.Program {
	return &queryir.Program{
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Not{Inner: queryir.Contains{Field: "genre", Value: "pop"}},
				queryir.Compare{Field: "added", Op: queryir.GTE, Value: queryir.NowOffset{Seconds: -604800}},
			}},
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Or{Predicates: []queryir.Predicate{
					queryir.Contains{Field: "title", Value: "mellow"},
					queryir.Contains{Field: "artist", Value: "mellow"},
				}},
			}},
		}},
		Order: []queryir.Order{
			queryir.ByField{Field: "year", Ascending: false},
			queryir.ByField{Field: "title", Ascending: true},
		},
	}
}

func TestCompile_Golden(t *testing.T) {
	columns := []string{"id", "title", "artist", "year"}

	tests := []struct {
		name     string
		compiler SQLCompiler
		program  *queryir.Program
	}{
		{"radiohead_sqlite", SQLCompiler{Dialect: SQLite, Table: "items", Columns: columns}, radioheadProgram()},
		{"radiohead_postgres", SQLCompiler{Dialect: Postgres, Table: "items", Columns: columns}, radioheadProgram()},
		{"mellow_sqlite", SQLCompiler{Dialect: SQLite, Table: "items", DefaultLimit: 100}, mellowProgram()},
		{"mellow_postgres", SQLCompiler{Dialect: Postgres, Table: "items", DefaultLimit: 100}, mellowProgram()},
		{"empty_sqlite", SQLCompiler{Dialect: SQLite, Table: "items"}, &queryir.Program{Filter: queryir.And{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := tt.compiler.Compile(tt.program)
			require.NoError(t, err)
			assertGolden(t, tt.name, sql, params)
		})
	}
}

func TestCompile_ValuesAreNeverInterpolated(t *testing.T) {
	c := SQLCompiler{Dialect: SQLite, Table: "items"}
	p := &queryir.Program{Filter: queryir.Contains{Field: "title", Value: "'; DROP TABLE items; --"}}

	sql, params, err := c.Compile(p)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"%'; DROP TABLE items; --%"}, params)
}

func TestCompile_EscapesLikePattern(t *testing.T) {
	c := SQLCompiler{Dialect: SQLite, Table: "items"}
	p := &queryir.Program{Filter: queryir.Contains{Field: "title", Value: `100%_a\b`}}

	_, params, err := c.Compile(p)
	require.NoError(t, err)
	assert.Equal(t, []any{`%100\%\_a\\b%`}, params)
}

func TestCompile_Limit(t *testing.T) {
	c := SQLCompiler{Dialect: SQLite, Table: "items", DefaultLimit: 50}

	sql, params, err := c.Compile(&queryir.Program{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, " LIMIT ?"))
	assert.Equal(t, []any{int64(50)}, params)

	sql, params, err = c.Compile(&queryir.Program{Limit: intPtr(3)})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, " LIMIT ?"))
	assert.Equal(t, []any{int64(3)}, params, "program limit overrides the default")

	c.DefaultLimit = 0
	sql, params, err = c.Compile(&queryir.Program{})
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, params)
}

func TestCompile_OrderAlwaysEndsWithID(t *testing.T) {
	c := SQLCompiler{Dialect: SQLite, Table: "items"}
	for _, order := range [][]queryir.Order{
		nil,
		{queryir.Random{}},
		{queryir.ByField{Field: "year"}, queryir.ByField{Field: "title", Ascending: true}},
	} {
		sql, _, err := c.Compile(&queryir.Program{Order: order})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(sql, ", id ASC") || strings.HasSuffix(sql, "ORDER BY id ASC"), sql)
	}
}

func TestCompile_EmptyDisjunction(t *testing.T) {
	c := SQLCompiler{Dialect: SQLite, Table: "items"}
	sql, _, err := c.Compile(&queryir.Program{Filter: queryir.Or{}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM items WHERE 1 = 0 ORDER BY id ASC", sql)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		compiler SQLCompiler
		program  *queryir.Program
	}{
		{"nil program", SQLCompiler{Dialect: SQLite, Table: "items"}, nil},
		{"bad table", SQLCompiler{Dialect: SQLite, Table: "items;"}, &queryir.Program{}},
		{"bad column", SQLCompiler{Dialect: SQLite, Table: "items", Columns: []string{"id", "1x"}}, &queryir.Program{}},
		{
			"bad field",
			SQLCompiler{Dialect: SQLite, Table: "items"},
			&queryir.Program{Filter: queryir.Contains{Field: "title) OR (1", Value: "x"}},
		},
		{
			"bad order field",
			SQLCompiler{Dialect: SQLite, Table: "items"},
			&queryir.Program{Order: []queryir.Order{queryir.ByField{Field: "year desc"}}},
		},
		{
			"null literal",
			SQLCompiler{Dialect: SQLite, Table: "items"},
			&queryir.Program{Filter: queryir.Compare{Field: "year", Op: queryir.GTE, Value: queryir.Literal{Value: ir.IRNull{}}}},
		},
		{
			"bad operator",
			SQLCompiler{Dialect: SQLite, Table: "items"},
			&queryir.Program{Filter: queryir.Compare{Field: "year", Op: "=", Value: lit(1)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.compiler.Compile(tt.program)
			assert.Error(t, err)
		})
	}
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]Dialect{
		"sqlite3":  SQLite,
		"sqlite":   SQLite,
		"pgx":      Postgres,
		"postgres": Postgres,
	} {
		d, err := DialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, want, d, driver)
	}

	_, err := DialectFor("mysql")
	assert.Error(t, err)
}
