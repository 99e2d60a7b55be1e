package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database, mostly useful in tests.
const MemoryPath = ":memory:"

// StorageError reports a failure at the storage boundary: the store could
// not be reached, a statement failed, or a constraint was violated.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// DB wraps a sql.DB connection pool over one SQLite file. Both the ledger
// and the credential repositories share it.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (or creates) the database file at path. Tables are created by
// the repositories' Initialize methods.
func NewDB(path string) (*DB, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("open", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, storageErr("ping", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
