// Package db opens the bloomcart SQLite database and applies its schema.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TimeLayout is the layout used for every timestamp column. Values are
// always written in UTC so lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB is the process-wide handle on the bloomcart database.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the SQLite database at path, creating the file and its parent
// directories when missing, and brings the schema up to date.
//
// The pool holds one connection: SQLite allows a single writer and every
// store write is one statement, so per-row writes stay atomic.
func Open(path string) (*DB, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("db: resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("db: mkdir: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+absPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := applyMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db: migrate: %w", err)
	}
	return &DB{conn: conn, path: absPath}, nil
}

// Conn returns the underlying *sql.DB for use by store layers.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// Path returns the absolute path of the database file.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping checks the connection is live.
func (d *DB) Ping() error {
	return d.conn.Ping()
}

// FormatTime renders t in the column format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime tries multiple SQLite timestamp layouts.
// go-sqlite3 may return RFC3339 or the plain "2006-01-02 15:04:05" format
// depending on how the value was written.
func ParseTime(s string) time.Time {
	layouts := []string{
		TimeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
