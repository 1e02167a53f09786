package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type kvRepo struct {
	db  dbtx
	now func() time.Time
}

const getKV = `
SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`

func (r *kvRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, getKV, key, r.now().UnixMilli()).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

const setKV = `
INSERT INTO kv (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`

func (r *kvRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := r.now()

	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, setKV, key, value, expires, now.UnixMilli())
	return err
}

const removeKV = `DELETE FROM kv WHERE key = ?`

func (r *kvRepo) Remove(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, removeKV, key)
	return err
}

const deleteExpiredKV = `DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`

func (r *kvRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredKV, r.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
