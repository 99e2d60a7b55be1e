package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migration sets. Each store is versioned in its own table so the ledger and
// the credential schema can be initialised independently.
const (
	ledgerMigrations = "ledger"
	usersMigrations  = "users"
)

// migrate brings one migration set up to date. It is a no-op when the set is
// already current.
func (db *DB) migrate(set string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+set)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	// The migrate driver closes the connection it is given, so file databases
	// get a dedicated one. In-memory databases only exist on the shared pool.
	inMemory := db.path == MemoryPath
	conn := db.conn
	if !inMemory {
		conn, err = sql.Open("sqlite", db.path)
		if err != nil {
			src.Close()
			return storageErr("open migration database", err)
		}
	}

	driver, err := sqlite.WithInstance(conn, &sqlite.Config{
		MigrationsTable: set + "_schema_migrations",
	})
	if err != nil {
		src.Close()
		if !inMemory {
			conn.Close()
		}
		return storageErr("create sqlite driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		src.Close()
		if !inMemory {
			conn.Close()
		}
		return fmt.Errorf("create migrate instance: %w", err)
	}

	upErr := m.Up()
	if inMemory {
		src.Close()
	} else if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		return errors.Join(srcErr, dbErr)
	}

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return storageErr("run "+set+" migrations", upErr)
	}
	return nil
}
