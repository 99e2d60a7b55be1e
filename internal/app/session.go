// Package app holds the state of a logged-in ledger session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expense-ledger/internal/models"
)

// ErrLoginFailed is returned when the username or password does not match.
var ErrLoginFailed = errors.New("invalid username or password")

// CredentialStore is the part of the credential repository a login needs.
type CredentialStore interface {
	ValidateLogin(ctx context.Context, username, password string) (bool, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Session is an authenticated user. Commands receive it instead of reading
// global state.
type Session struct {
	User       *models.User
	LoggedInAt time.Time
}

// Login checks the credentials and opens a session.
func Login(ctx context.Context, store CredentialStore, username, password string) (*Session, error) {
	ok, err := store.ValidateLogin(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("validate login: %w", err)
	}
	if !ok {
		slog.WarnContext(ctx, "Login failed", "username", username)
		return nil, ErrLoginFailed
	}

	user, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	slog.DebugContext(ctx, "Login succeeded", "user_id", user.ID)
	return &Session{User: user, LoggedInAt: time.Now()}, nil
}

// Username returns the name of the logged-in user.
func (s *Session) Username() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Username
}
