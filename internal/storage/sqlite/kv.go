package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// KVRepo is the durable core.KV with per-entry TTL. Expired rows are
// invisible to readers immediately and physically removed by the sweeper.
type KVRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db}
}

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get failed: %w", err)
	}

	if expiresAt.Valid && !expiresAt.Time.After(time.Now()) {
		return nil, false, nil
	}
	return value, true, nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("kv set failed: %w", err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("kv delete failed: %w", err)
	}
	return nil
}

// Keys enumerates live keys under a prefix, for maintenance tooling.
func (r *KVRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM kv
		 WHERE key LIKE ? || '%' AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY key`,
		prefix, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("kv keys failed: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SweepExpired removes rows whose TTL has passed, returning how many.
func (r *KVRepo) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("kv sweep failed: %w", err)
	}
	return res.RowsAffected()
}
