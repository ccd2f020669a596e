package storage

import (
	"context"
	"errors"
	"fmt"

	"planchat/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps documents in a single key/value table. The whole room
// collection lives in one row, matching the one-blob durability unit of
// the store above it.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			doc BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := pool.Exec(context.Background(), schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure documents table: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &Postgres{pool: pool}, nil
}

func (db *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT doc FROM documents WHERE key = $1`

	var doc []byte
	err := db.pool.QueryRow(ctx, query, key).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read document: %w", err)
	}

	return doc, true, nil
}

func (db *Postgres) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO documents (key, doc, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`

	if _, err := db.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func (db *Postgres) Close() error {
	db.pool.Close()
	return nil
}
