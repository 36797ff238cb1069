package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/dual/internal/fields"
)

//go:embed schema.sql
var schemaSQL string

//go:embed schema_postgres.sql
var schemaPostgresSQL string

// Schema version tracking (SQLite only):
// 1 - items table with artist and year indexes
const currentSchemaVersion = 1

// Table is the relation searched by the engine.
const Table = "items"

// Supported database/sql driver names.
const (
	DriverSQLite3  = "sqlite3"
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Config selects the backend.
type Config struct {
	// Driver is one of DriverSQLite3, DriverSQLite or DriverPostgres.
	// Empty means DriverSQLite3.
	Driver string
	// DSN is a file path or ":memory:" for SQLite and a connection
	// string for Postgres.
	DSN string
}

// Store wraps the items table.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured backend and applies the schema.
//
// SQLite connections are configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Open is idempotent against an existing database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite3
	}

	db, err := openDB(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if s.isSQLite() {
		// SQLite only supports one writer at a time, and ":memory:"
		// databases are private to a connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if err := s.applySchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return s, nil
}

func openDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return sql.Open(driver, dsn)
	case DriverPostgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		return stdlib.OpenDB(*cfg), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver returns the database/sql driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) isSQLite() bool {
	return s.driver == DriverSQLite3 || s.driver == DriverSQLite
}

// Columns reports the name and declared type of every column of the
// items table, in table order.
func (s *Store) Columns(ctx context.Context) ([]fields.Column, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+Table+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("probe columns: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	cols := make([]fields.Column, len(types))
	for i, ct := range types {
		cols[i] = fields.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}
	return cols, rows.Err()
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func (s *Store) applySchema(ctx context.Context) error {
	schema := schemaSQL
	if !s.isSQLite() {
		schema = schemaPostgresSQL
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if s.isSQLite() {
		if err := checkSchemaVersion(ctx, s.db); err != nil {
			return err
		}
	}
	return nil
}

// checkSchemaVersion refuses databases written by a newer schema and
// stamps fresh ones with the current version.
func checkSchemaVersion(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d",
			version, currentSchemaVersion)
	}
	if version == currentSchemaVersion {
		return nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
