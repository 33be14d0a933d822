package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"curator/internal/core"
)

// KV is the key-value backend of the profile store. Values are JSON documents.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Update reads key, passes the value to fn and writes the result back
	// atomically. fn receives ok=false when the key is absent.
	Update(ctx context.Context, key string, fn func(value string, ok bool) (string, error)) error
}

// SQLiteKV stores keys in the kv table
type SQLiteKV struct {
	db *core.Database
}

// NewSQLiteKV creates a KV over db. The kv table must exist.
func NewSQLiteKV(db *core.Database) *SQLiteKV {
	return &SQLiteKV{db: db}
}

const (
	selectValue = `SELECT value FROM kv WHERE key = ?`
	upsertValue = `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteValue = `DELETE FROM kv WHERE key = ?`
)

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, core.NewDatabaseError(fmt.Sprintf("failed to read %s", key), err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecWithTimeout(ctx, upsertValue, key, value); err != nil {
		return core.NewDatabaseError(fmt.Sprintf("failed to write %s", key), err)
	}
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, deleteValue, key); err != nil {
				return core.NewDatabaseError(fmt.Sprintf("failed to delete %s", key), err)
			}
		}
		return nil
	})
}

func (s *SQLiteKV) Update(ctx context.Context, key string, fn func(value string, ok bool) (string, error)) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var current string
		ok := true
		err := tx.QueryRowContext(ctx, selectValue, key).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			ok = false
		case err != nil:
			return core.NewDatabaseError(fmt.Sprintf("failed to read %s", key), err)
		}

		next, err := fn(current, ok)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, upsertValue, key, next); err != nil {
			return core.NewDatabaseError(fmt.Sprintf("failed to write %s", key), err)
		}
		return nil
	})
}
