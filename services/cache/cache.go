// Package cache implements the application cache (C3): a typed,
// namespaced front for repeated computations (provider searches,
// rolled-up activity, collection contents), backed by Postgres for
// durability behind an in-memory LRU for hot reads. This generalizes the
// teacher's single-purpose fileCache (services/metadata/cache.go) from
// one on-disk JSON-per-key namespace into one slot per
// ApplicationCacheKeyKind, each with its own base TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"ryotgo/internal/database"
	"ryotgo/models"
)

// entry is what the in-memory LRU actually stores: the raw bytes plus
// the absolute expiry, so a hit can be rejected without a second lookup.
type entry struct {
	value     []byte
	expiresOn time.Time
}

// Service fronts CacheRepository with a bounded in-memory LRU.
type Service struct {
	repo *database.CacheRepository
	lru  *lru.Cache[string, entry]
	ttls map[models.ApplicationCacheKeyKind]time.Duration
}

// defaultTTLs mirrors the invalidation rules named in SPEC_FULL §4.3:
// provider responses are cheapest to let go stale, rollups recompute
// fast enough to refresh hourly, collection contents invalidate on
// write rather than by TTL (a long TTL here is just a backstop).
var defaultTTLs = map[models.ApplicationCacheKeyKind]time.Duration{
	models.CacheKeyProviderSearch:     6 * time.Hour,
	models.CacheKeyProviderDetails:    24 * time.Hour,
	models.CacheKeyUserActivities:     1 * time.Hour,
	models.CacheKeyCalendarEvents:     1 * time.Hour,
	models.CacheKeyCollectionContents: 12 * time.Hour,
}

// New builds a Service with an LRU of the given capacity fronting repo.
func New(repo *database.CacheRepository, lruSize int) (*Service, error) {
	l, err := lru.New[string, entry](lruSize)
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, lru: l, ttls: defaultTTLs}, nil
}

// jitteredTTL staggers a key's effective TTL within its kind's base TTL
// plus up to one sixth of it, deterministically by key hash, so a large
// batch of entries written at once doesn't all expire in the same
// instant and stampede the provider it was caching.
func (s *Service) jitteredTTL(key models.ApplicationCacheKey) time.Duration {
	base := s.ttls[key.Kind]
	if base == 0 {
		base = time.Hour
	}
	h := sha256.Sum256([]byte(string(key.Kind) + key.Params))
	n := binary.BigEndian.Uint64(h[:8])
	jitter := time.Duration(n % uint64(base/6+1))
	return base + jitter
}

// Get unmarshals the cached value for key into v, reporting whether a
// live entry was found.
func (s *Service) Get(ctx context.Context, key models.ApplicationCacheKey, v any) (bool, error) {
	cacheKey := string(key.Kind) + ":" + key.Params
	if e, ok := s.lru.Get(cacheKey); ok {
		if time.Now().Before(e.expiresOn) {
			return true, json.Unmarshal(e.value, v)
		}
		s.lru.Remove(cacheKey)
	}

	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	s.lru.Add(cacheKey, entry{value: raw, expiresOn: time.Now().Add(s.jitteredTTL(key))})
	return true, json.Unmarshal(raw, v)
}

// Set stores v under key in both tiers.
func (s *Service) Set(ctx context.Context, key models.ApplicationCacheKey, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := s.jitteredTTL(key)
	cacheKey := string(key.Kind) + ":" + key.Params
	s.lru.Add(cacheKey, entry{value: raw, expiresOn: time.Now().Add(ttl)})
	return s.repo.Set(ctx, key, raw, ttl)
}

// InvalidateKind drops every entry of a given kind from both tiers,
// used when a write (e.g. editing a collection) makes a whole class of
// cached reads stale regardless of their individual TTLs.
func (s *Service) InvalidateKind(ctx context.Context, kind models.ApplicationCacheKeyKind) error {
	s.lru.Purge() // coarse: the LRU doesn't index by kind, so drop everything
	return s.repo.InvalidateKind(ctx, kind)
}
