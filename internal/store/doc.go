// Package store provides the SQL-backed track library searched by the
// engine.
//
// The library is a single items table with one row per track. Text
// columns hold tags, numeric columns hold counts, durations in whole
// seconds and dates as Unix epoch seconds.
//
// # Backends
//
//   - sqlite3: github.com/mattn/go-sqlite3 (cgo)
//   - sqlite: modernc.org/sqlite (pure Go)
//   - pgx: github.com/jackc/pgx/v5 through its database/sql adapter
//
// SQLite databases use WAL mode, synchronous=NORMAL and a 5-second busy
// timeout, with a single open connection so ":memory:" databases are
// shared by every query.
//
// # Searching
//
// Search runs a statement produced by querysql against the table. The
// statement must select TrackColumns in order. The store never builds
// WHERE clauses itself.
//
// # Fixtures
//
// LoadTracks reads a YAML list of tracks. Dates may be written as
// integers or as "2006-01-02" / RFC 3339 strings, and lengths as seconds
// or "m:ss".
package store
