package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrUserExists is returned by Register when the username is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user has the requested name or ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for an empty username or password.
	ErrInvalidCredentials = errors.New("username and password are required")
)

const userColumns = "id, username, password_hash, salt, created_at"

// Credentials is the repository for user accounts.
type Credentials struct {
	db *DB
}

// NewCredentials creates a credential repository on top of db.
func NewCredentials(db *DB) *Credentials {
	return &Credentials{db: db}
}

// Initialize ensures the users table exists. Safe to call on every start.
func (c *Credentials) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.migrate(usersMigrations)
}

// Register creates a user with a fresh salt and the derived password hash.
// A taken username yields ErrUserExists and leaves the existing record as is.
func (c *Credentials) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := c.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		return nil, err
	}

	result, err := c.db.conn.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, salt, created_at) VALUES (?, ?, ?, ?)",
		username, auth.HashPassword(password, salt), salt, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, storageErr("insert user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("insert user", err)
	}

	slog.InfoContext(ctx, "User registered", "id", id, "username", username)
	return c.GetUserByID(ctx, id)
}

// ValidateLogin reports whether password matches the stored hash for
// username. An unknown username is not an error, just a failed login.
func (c *Credentials) ValidateLogin(ctx context.Context, username, password string) (bool, error) {
	u, err := c.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return auth.CheckPassword(password, u.Salt, u.PasswordHash), nil
}

// GetUserByID retrieves a user by ID.
func (c *Credentials) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := c.db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username (case-sensitive).
func (c *Credentials) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := c.db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// UserCount returns the number of registered users.
func (c *Credentials) UserCount(ctx context.Context) (int, error) {
	var count int
	err := c.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, storageErr("count users", err)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("scan user", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
