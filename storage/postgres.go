package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var postgresSchema string

// PGDB is implemented by pgx.Tx, pgx.Conn and pgxpool.Pool; accessing
// Postgres through this common interface simplifies testing.
type PGDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Store backed by a Postgres table. TakeValue uses a single
// DELETE … RETURNING statement, so consumption is serialized by the
// database and stays at-most-once across concurrent requests.
type Postgres struct {
	DB PGDB
}

// NewPostgres connects a pgx pool to dsn and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	store := &Postgres{DB: pool}
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the auth_state table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.DB.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("%w: schema migration: %v", ErrUnavailable, err)
	}
	return nil
}

// SetValue implements Store.
func (p *Postgres) SetValue(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}
	_, err := p.DB.Exec(ctx,
		`INSERT INTO auth_state (key, value, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = $2, expires_at = $3`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetValue implements Store. Expired rows are reported absent and removed
// opportunistically.
func (p *Postgres) GetValue(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt *time.Time
	err := p.DB.QueryRow(ctx,
		`SELECT value, expires_at FROM auth_state WHERE key = $1`, key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if expiresAt != nil && time.Now().After(*expiresAt) {
		_, _ = p.DB.Exec(ctx, `DELETE FROM auth_state WHERE key = $1`, key)
		return nil, ErrNotFound
	}
	return value, nil
}

// TakeValue implements Store.
func (p *Postgres) TakeValue(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.DB.QueryRow(ctx,
		`DELETE FROM auth_state
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
		 RETURNING value`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// UnsetValue implements Store.
func (p *Postgres) UnsetValue(ctx context.Context, key string) error {
	if _, err := p.DB.Exec(ctx, `DELETE FROM auth_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
