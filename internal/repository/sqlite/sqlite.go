// Package sqlite implements the RegistrationStore on an embedded SQLite
// database. Each registration is an independent row updated in place, and
// the UNIQUE constraint on lead_email backs the one-record-per-email
// invariant at the storage level: the upsert is a single atomic statement,
// so two concurrent submissions for the same email can never produce two
// rows or a torn write.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// toolchain, cross-compiles everywhere Go does.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" at init time.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements repository.RegistrationStore.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs the schema
// migration. Use ":memory:" for a throwaway database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Fail now on a bad path or permissions, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight; this is a web
	// server, requests interleave.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// updated_at is NULL until the first edit; the "Never" sentinel lives
	// in the display layer, not here.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS registrations (
			id         TEXT PRIMARY KEY,
			lead_email TEXT NOT NULL UNIQUE,
			team_name  TEXT NOT NULL,
			m1_name    TEXT NOT NULL,
			m1_phone   TEXT NOT NULL DEFAULT '',
			m1_college TEXT NOT NULL DEFAULT '',
			m1_dept    TEXT NOT NULL DEFAULT '',
			m1_year    TEXT NOT NULL DEFAULT '',
			m2_name    TEXT NOT NULL DEFAULT '',
			m2_phone   TEXT NOT NULL DEFAULT '',
			m2_college TEXT NOT NULL DEFAULT '',
			m2_dept    TEXT NOT NULL DEFAULT '',
			m2_year    TEXT NOT NULL DEFAULT '',
			m3_name    TEXT NOT NULL DEFAULT '',
			m3_phone   TEXT NOT NULL DEFAULT '',
			m3_college TEXT NOT NULL DEFAULT '',
			m3_dept    TEXT NOT NULL DEFAULT '',
			m3_year    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_registrations_created_at ON registrations(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating registrations table: %w", err)
	}
	return nil
}
