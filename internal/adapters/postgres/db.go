// Package postgres implements the history store on a Postgres pool.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Default pool configuration constants.
const (
	defaultMaxConns          = 10
	defaultHealthCheckPeriod = 30 * time.Second
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a pgx connection pool behind the history store contract.
type DB struct {
	pool     *pgxpool.Pool
	maxConns int32
}

// Connect opens a pool against url, verifies connectivity, and applies
// pending migrations.
func Connect(ctx context.Context, url string, opts ...Option) (*DB, error) {
	db := &DB{
		maxConns: defaultMaxConns,
	}

	for _, opt := range opts {
		opt(db)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = db.maxConns
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	db.pool = pool

	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// migrate applies the embedded goose migrations.
func (db *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	// The database/sql handle shares the pool's connections; the pool
	// stays open after migration.
	sqlDB := stdlib.OpenDBFromPool(db.pool)

	return goose.UpContext(ctx, sqlDB, "migrations")
}

// Close releases the pool.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}
