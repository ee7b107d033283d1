package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entitlement_slots (
  scope      TEXT NOT NULL,
  key        TEXT NOT NULL,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (scope, key)
);`

// SQLiteSlot persists slots in a single SQLite file.
type SQLiteSlot struct {
	db *sql.DB
}

// OpenSQLiteSlot opens (creating if needed) the database at dsn.
func OpenSQLiteSlot(ctx context.Context, dsn string) (*SQLiteSlot, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer keeps whole-value replaces serialized
	db.SetMaxOpenConns(1)

	slot, err := NewSQLiteSlot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return slot, nil
}

// NewSQLiteSlot ensures the schema exists on db.
func NewSQLiteSlot(ctx context.Context, db *sql.DB) (*SQLiteSlot, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create entitlement_slots: %w", err)
	}
	return &SQLiteSlot{db: db}, nil
}

func (s *SQLiteSlot) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM entitlement_slots WHERE scope = ? AND key = ?`, scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteSlot) Put(ctx context.Context, scope, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entitlement_slots (scope, key, value) VALUES (?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, scope, key, value)
	if err != nil {
		return fmt.Errorf("failed to put slot[%s]: %w", key, err)
	}
	return nil
}

// Scopes lists every device scope holding a value for key.
func (s *SQLiteSlot) Scopes(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT scope FROM entitlement_slots WHERE key = ? ORDER BY scope`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("failed to scan scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
