package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists entries in a cache table keyed by
// (caller_id, payload_hash), upserting on conflict so concurrent writers
// settle on last-write-wins. Age comes from the row timestamp; stale rows
// are simply overwritten on the next compute.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect cache store: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the cache table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS route_optimization_cache (
    caller_id    TEXT        NOT NULL,
    payload_hash TEXT        NOT NULL,
    response     JSONB       NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (caller_id, payload_hash)
)`)
	if err != nil {
		return fmt.Errorf("ensure cache schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, callerID, payloadHash string) ([]byte, time.Duration, bool, error) {
	var value []byte
	var ageSeconds float64
	err := s.pool.QueryRow(ctx, `
SELECT response, EXTRACT(EPOCH FROM now() - created_at)
FROM route_optimization_cache
WHERE caller_id = $1 AND payload_hash = $2`, callerID, payloadHash).Scan(&value, &ageSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("query cache row: %w", err)
	}
	return value, time.Duration(ageSeconds * float64(time.Second)), true, nil
}

func (s *PostgresStore) Set(ctx context.Context, callerID, payloadHash string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO route_optimization_cache (caller_id, payload_hash, response, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (caller_id, payload_hash) DO UPDATE
SET response = EXCLUDED.response, created_at = EXCLUDED.created_at`,
		callerID, payloadHash, value)
	if err != nil {
		return fmt.Errorf("upsert cache row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
