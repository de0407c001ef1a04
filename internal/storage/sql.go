package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects placeholder style for SQLKV.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

type sqlQueries struct {
	get    string
	upsert string
	del    string
}

var dialectQueries = map[Dialect]sqlQueries{
	DialectPostgres: {
		get: `SELECT value FROM kv_store WHERE key=$1`,
		upsert: `
        INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
        ON CONFLICT (key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP`,
		del: `DELETE FROM kv_store WHERE key=$1`,
	},
	DialectSQLite: {
		get: `SELECT value FROM kv_store WHERE key=?`,
		upsert: `
        INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT (key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP`,
		del: `DELETE FROM kv_store WHERE key=?`,
	},
}

// SQLKV stores values in the kv_store table created by the migrations package.
type SQLKV struct {
	db      *sql.DB
	queries sqlQueries
}

// NewSQLKV binds db using the dialect's queries.
func NewSQLKV(db *sql.DB, dialect Dialect) (*SQLKV, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported sql dialect %q", dialect)
	}
	return &SQLKV{db: db, queries: q}, nil
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	if err := s.db.QueryRowContext(ctx, s.queries.get, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.queries.upsert, key, string(value)); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.queries.del, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
