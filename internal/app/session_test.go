package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredentials(t *testing.T) *storage.Credentials {
	t.Helper()
	db, err := storage.NewDB(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	creds := storage.NewCredentials(db)
	require.NoError(t, creds.Initialize(context.Background()))
	return creds
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	creds := newCredentials(t)
	_, err := creds.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	s, err := Login(ctx, creds, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", s.Username())
	assert.NotZero(t, s.User.ID)
	assert.False(t, s.LoggedInAt.IsZero())

	_, err = Login(ctx, creds, "alice", "wrong")
	assert.ErrorIs(t, err, ErrLoginFailed)

	_, err = Login(ctx, creds, "bob", "pw1")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

type failingStore struct{}

func (failingStore) ValidateLogin(context.Context, string, string) (bool, error) {
	return false, errors.New("disk I/O error")
}

func (failingStore) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, storage.ErrUserNotFound
}

func TestLoginStoreError(t *testing.T) {
	_, err := Login(context.Background(), failingStore{}, "alice", "pw1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestNilSessionUsername(t *testing.T) {
	var s *Session
	assert.Empty(t, s.Username())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Credentials.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening keeps the data and does not re-run migrations destructively.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Credentials.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := s.Ledger.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOpenDirectory(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestReadPasswordFromPipe(t *testing.T) {
	pw, err := ReadPassword(strings.NewReader("secret\nnext line\n"))
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	_, err = ReadPassword(strings.NewReader(""))
	assert.ErrorIs(t, err, io.EOF)
}
