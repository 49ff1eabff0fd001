// Package store persists operator accounts and their document-source session
// tokens in a local SQLite database. Source tokens never leave the server;
// clients only ever hold their own session JWT.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_superuser  INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS source_tokens (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	user_key   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_source_tokens_user_id ON source_tokens(user_id);
`

// User is an operator account
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsSuperuser  bool
	CreatedAt    time.Time
}

// Store wraps the SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// UserByUsername fetches a user, returning nil without error when absent
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_superuser, created_at FROM users WHERE username = ?`,
		username)

	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// UserByID fetches a user by id, returning nil without error when absent
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_superuser, created_at FROM users WHERE id = ?`,
		id)

	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user and returns its id
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, superuser bool) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, is_superuser) VALUES (?, ?, ?)`,
		username, passwordHash, superuser)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

// EnsureUser creates the user when absent; reports whether it was created
func (s *Store) EnsureUser(ctx context.Context, username, passwordHash string, superuser bool) (bool, error) {
	existing, err := s.UserByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if _, err := s.CreateUser(ctx, username, passwordHash, superuser); err != nil {
		return false, err
	}
	return true, nil
}

// SaveSourceToken stores the source session key for a user, replacing any
// previous one
func (s *Store) SaveSourceToken(ctx context.Context, userID int64, userKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM source_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO source_tokens (user_id, user_key) VALUES (?, ?)`, userID, userKey); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	return tx.Commit()
}

// SourceToken returns the stored source session key for a user, empty when
// none is stored
func (s *Store) SourceToken(ctx context.Context, userID int64) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_key FROM source_tokens WHERE user_id = ?`, userID)

	var key string
	if err := row.Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query token: %w", err)
	}
	return key, nil
}
