package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vinodhj/cf-jwt-auth/internal/kv"
)

var _ kv.Store = (*KVStore)(nil)

// KVStore backs the key-value namespace with the kv_entries table. Expired
// rows are filtered on read and overwritten on the next put; nothing sweeps
// them eagerly.
type KVStore struct {
	db  *sql.DB
	now func() time.Time
}

// KV returns the key-value store.
func (s *Store) KV() *KVStore {
	return &KVStore{db: s.db, now: time.Now}
}

// KVWithClock is for tests that pin expiry behaviour.
func (s *Store) KVWithClock(now func() time.Time) *KVStore {
	return &KVStore{db: s.db, now: now}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value   string
		expires sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`select value, expires_at from kv_entries where key = $1`, key).
		Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if expires.Valid && !expires.Time.After(s.now().UTC()) {
		return "", false, nil
	}
	return value, true, nil
}

func (s *KVStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires sql.NullTime
	if ttl > 0 {
		expires = sql.NullTime{Time: s.now().UTC().Add(ttl), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		insert into kv_entries (key, value, expires_at)
		values ($1, $2, $3)
		on conflict (key) do update
		set value = excluded.value, expires_at = excluded.expires_at, updated_at = now()
	`, key, value, expires)
	return err
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `delete from kv_entries where key = $1`, key)
	return err
}
