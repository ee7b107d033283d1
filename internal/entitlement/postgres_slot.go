package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSlot persists slots in the entitlement_slots table created by db/migrations.
type PostgresSlot struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresSlot(db *pgxpool.Pool, timeout time.Duration) *PostgresSlot {
	return &PostgresSlot{db: db, timeout: timeout}
}

func (s *PostgresSlot) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresSlot) Get(ctx context.Context, scope, key string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var value []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM entitlement_slots WHERE scope = $1 AND key = $2`, scope, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot[%s]: %w", key, err)
	}
	return value, nil
}

func (s *PostgresSlot) Put(ctx context.Context, scope, key string, value []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO entitlement_slots (scope, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, scope, key, value)
	if err != nil {
		return fmt.Errorf("failed to put slot[%s]: %w", key, err)
	}
	return nil
}

// Scopes lists every device scope holding a value for key.
func (s *PostgresSlot) Scopes(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT scope FROM entitlement_slots WHERE key = $1 ORDER BY scope`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	scopes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan scopes: %w", err)
	}
	return scopes, nil
}
