package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/csipacific/dashboard/internal/storage"
)

// GetCache returns one cached payload when present and unexpired.
func (s *Store) GetCache(ctx context.Context, key string, now time.Time) (storage.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return storage.CacheEntry{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CacheEntry{}, fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return storage.CacheEntry{}, fmt.Errorf("cache key is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT key, payload, expires_at FROM upstream_cache WHERE key = ?`,
		key,
	)

	var entry storage.CacheEntry
	var expiresAt int64
	if err := row.Scan(&entry.Key, &entry.Payload, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CacheEntry{}, storage.ErrNotFound
		}
		return storage.CacheEntry{}, fmt.Errorf("get cache entry: %w", err)
	}

	entry.ExpiresAt = fromMillis(expiresAt)
	if !entry.ExpiresAt.After(now.UTC()) {
		return storage.CacheEntry{}, storage.ErrNotFound
	}
	return entry, nil
}

// PutCache upserts one cached payload.
func (s *Store) PutCache(ctx context.Context, entry storage.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	key := strings.TrimSpace(entry.Key)
	if key == "" {
		return fmt.Errorf("cache key is required")
	}
	if entry.ExpiresAt.IsZero() {
		return fmt.Errorf("cache expiry is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO upstream_cache (key, payload, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key,
		entry.Payload,
		toMillis(entry.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}
