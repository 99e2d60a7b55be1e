package app

import (
	"context"

	"expense-ledger/internal/storage"
)

// Stores bundles the repositories sharing one database file.
type Stores struct {
	DB          *storage.DB
	Ledger      *storage.Ledger
	Credentials *storage.Credentials
}

// Open opens the database at path and creates any missing tables.
func Open(ctx context.Context, path string) (*Stores, error) {
	db, err := storage.NewDB(path)
	if err != nil {
		return nil, err
	}

	s := &Stores{
		DB:          db,
		Ledger:      storage.NewLedger(db),
		Credentials: storage.NewCredentials(db),
	}
	if err := s.Credentials.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Ledger.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Stores) Close() error {
	return s.DB.Close()
}
