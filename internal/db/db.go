// Package db opens the sqlite database behind the SQL store.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SchemaVersion is written to PRAGMA user_version after the schema applies.
const SchemaVersion = 1

// Open opens the sqlite database at path, creating its directory, and brings
// the schema up to SchemaVersion. ":memory:" opens a private in-memory
// database.
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// one connection: sqlite serialises writers and :memory: is per connection
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return conn, nil
}

func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version >= SchemaVersion {
		return nil
	}
	if _, err := conn.Exec(schema); err != nil {
		return err
	}
	_, err := conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion))
	return err
}
