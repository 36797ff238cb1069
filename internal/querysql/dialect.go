package querysql

import (
	"fmt"
	"strconv"
)

// PlaceholderStyle is how a driver spells bind parameters.
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

// Dialect holds the SQL spellings that differ between backends.
type Dialect struct {
	Name        string
	Placeholder PlaceholderStyle
	// Like is the case-insensitive pattern operator.
	Like string
	// Random is the expression used to shuffle rows.
	Random string
	// Now is the current time in integer epoch seconds.
	Now string
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: PlaceholderQuestion,
		Like:        "LIKE",
		Random:      "RANDOM()",
		Now:         "CAST(strftime('%s','now') AS INTEGER)",
	}
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: PlaceholderDollar,
		Like:        "ILIKE",
		Random:      "random()",
		Now:         "CAST(EXTRACT(EPOCH FROM now()) AS BIGINT)",
	}
)

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("no SQL dialect for driver %q", driver)
}

// builder collects bind parameters and hands out placeholders.
type builder struct {
	style PlaceholderStyle
	args  []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	if b.style == PlaceholderDollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}
