package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const busyTimeoutMs = 5000

// SQLite is a Store keeping one key pair per actor in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema
// exists. Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := ":memory:"

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}

		dsn = "file:" + filepath.Clean(path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory database exists per connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMs)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLite{db: db}

	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS actor_keys (
		name TEXT PRIMARY KEY,
		public_pem TEXT NOT NULL,
		private_pem TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create actor_keys table: %w", err)
	}

	return nil
}

// Close releases the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Put stores or replaces the key pair of name.
func (s *SQLite) Put(ctx context.Context, name, publicPEM, privatePEM string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO actor_keys (name, public_pem, private_pem, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			public_pem = excluded.public_pem,
			private_pem = excluded.private_pem,
			created_at = excluded.created_at`,
		name, publicPEM, privatePEM, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put key %s: %w", name, err)
	}

	return nil
}

// Delete removes the key pair of name. Deleting an absent name returns
// ErrKeyNotFound.
func (s *SQLite) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM actor_keys WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete key %s: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete key %s: %w", name, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}

	return nil
}

// Names returns the names of all actors with stored keys, sorted.
func (s *SQLite) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM actor_keys ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan key name: %w", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// LoadPublicKeyPEM implements Store.
func (s *SQLite) LoadPublicKeyPEM(ctx context.Context, name string) (string, error) {
	return s.loadColumn(ctx, "public_pem", name)
}

// LoadPrivateKeyPEM implements Store.
func (s *SQLite) LoadPrivateKeyPEM(ctx context.Context, name string) (string, error) {
	return s.loadColumn(ctx, "private_pem", name)
}

func (s *SQLite) loadColumn(ctx context.Context, column, name string) (string, error) {
	var pem string

	// column is one of two constants above.
	err := s.db.QueryRowContext(ctx, `SELECT `+column+` FROM actor_keys WHERE name = ?`, name).Scan(&pem)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}

		return "", fmt.Errorf("load key %s: %w", name, err)
	}

	return pem, nil
}
