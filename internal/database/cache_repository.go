package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ryotgo/models"
)

// CacheRepository persists the durable tier behind services/cache's
// in-memory LRU (C3): entries survive process restarts, the LRU just
// fronts hot reads.
type CacheRepository struct {
	db *DB
}

func NewCacheRepository(db *DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get returns the cached value for key if present and unexpired.
func (r *CacheRepository) Get(ctx context.Context, key models.ApplicationCacheKey) ([]byte, bool, error) {
	cacheKey := cacheKeyString(key)
	var value []byte
	var expiresOn time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT value, expires_on FROM application_cache WHERE cache_key = $1`, cacheKey,
	).Scan(&value, &expiresOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(expiresOn) {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key models.ApplicationCacheKey, value []byte, ttl time.Duration) error {
	cacheKey := cacheKeyString(key)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO application_cache (cache_key, value, expires_on)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET value = EXCLUDED.value, expires_on = EXCLUDED.expires_on`,
		cacheKey, value, time.Now().Add(ttl),
	)
	return err
}

// InvalidatePrefix deletes every cache row whose key starts with the
// given kind, used when a write invalidates a whole computation class
// (e.g. a collection write invalidates all collection_contents entries).
func (r *CacheRepository) InvalidateKind(ctx context.Context, kind models.ApplicationCacheKeyKind) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM application_cache WHERE cache_key LIKE $1`, string(kind)+":%")
	return err
}

func cacheKeyString(key models.ApplicationCacheKey) string {
	return string(key.Kind) + ":" + key.Params
}
