package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant-client/internal/common/db"
)

// SQLStore keeps values in the kv_store table of a sqlite or postgres database.
type SQLStore struct {
	db      *sql.DB
	dialect db.Dialect
	now     func() time.Time
}

func NewSQLStore(sqlDB *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{db: sqlDB, dialect: dialect, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT value FROM kv_store WHERE key=?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(`
INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`), key, string(value), s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM kv_store WHERE key=?`), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
