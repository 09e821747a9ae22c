// Package store persists compliance artifacts and per-owner configuration.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an artifact does not exist
var ErrNotFound = errors.New("not found")

// Dialect selects the SQL flavour. Its value is also the database/sql driver name.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect accepts the driver names and a few common aliases
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3", "":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unknown database dialect %q", s)
	}
}

// Open opens a database handle for the dialect
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// sqlite serializes writers; a single connection also keeps
		// ":memory:" databases alive across calls.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// rebind rewrites ? placeholders to $n for postgres
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema() []string {
	blob, ts, amount := "BLOB", "TIMESTAMP", "TEXT"
	if d == DialectPostgres {
		blob, ts, amount = "BYTEA", "TIMESTAMPTZ", "NUMERIC(18,2)"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS compliance_artifacts (
			id TEXT PRIMARY KEY,
			invoice_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			format TEXT NOT NULL,
			standard TEXT NOT NULL DEFAULT '',
			document TEXT NOT NULL,
			container ` + blob + `,
			amount ` + amount + ` NOT NULL,
			validation_outcome TEXT NOT NULL,
			validation_errors TEXT NOT NULL DEFAULT '[]',
			transmission_status TEXT NOT NULL,
			transmission_method TEXT NOT NULL DEFAULT '',
			recipient_class TEXT NOT NULL DEFAULT '',
			routing_id TEXT NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_compliance_artifacts_owner
			ON compliance_artifacts (owner_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS compliance_settings (
			owner_id TEXT PRIMARY KEY,
			config TEXT NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
	}
}
