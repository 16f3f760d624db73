package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/repository/kv"
)

// KVStore implements kv.Store on the kv_blobs table. Values are stored as
// text; every caller writes JSON.
type KVStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewKVStore(d *DB) *KVStore {
	return &KVStore{db: d.db, now: time.Now}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT blob_value FROM kv_blobs WHERE blob_key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get failed: %w", err)
	}
	return []byte(value), nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO kv_blobs (blob_key, blob_value, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (blob_key) DO UPDATE SET blob_value = excluded.blob_value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, key, string(value), unixMilli(s.now())); err != nil {
		return fmt.Errorf("kv set failed: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_blobs WHERE blob_key = $1`, key); err != nil {
		return fmt.Errorf("kv delete failed: %w", err)
	}
	return nil
}
