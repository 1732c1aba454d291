package directions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/util"
)

// Cache keeps fetched directions in the local database so previously
// planned routes stay available offline
type Cache struct {
	db      *sql.DB
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
}

// CachedRoute is a cached directions lookup
type CachedRoute struct {
	Key      string
	Result   *Result
	CachedAt time.Time
	HitCount int
}

// NewCache creates a new cache in front of fetcher.
// A ttl of 0 keeps entries fresh forever.
func NewCache(db *sql.DB, fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		db:      db,
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
}

// EnsureSchema creates the cache table if it doesn't exist
func (c *Cache) EnsureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS directions_cache (
		route_key TEXT PRIMARY KEY,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		response TEXT NOT NULL, -- JSON encoded Result
		cached_at INTEGER NOT NULL, -- unix seconds
		hit_count INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_directions_cached_at ON directions_cache(cached_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create directions_cache table: %w", err)
	}

	return nil
}

// RouteKey normalizes an origin/destination pair into a cache key
func RouteKey(origin, destination string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return norm(origin) + "|" + norm(destination)
}

// Route returns directions, serving from the cache first.
// When the remote call fails and an expired entry exists, the expired entry
// is served instead.
func (c *Cache) Route(ctx context.Context, origin, destination string) (*Result, error) {
	key := RouteKey(origin, destination)

	cached, err := c.getFromCache(key)
	if err != nil {
		util.WarnLog("Directions cache read failed: %v", err)
	}

	if cached != nil && c.isFresh(cached) {
		util.DebugLog("Directions cache hit: '%s'", key)
		c.incrementHitCount(key)
		return cached.Result, nil
	}

	util.DebugLog("Directions cache miss: '%s', querying API", key)
	result, err := c.fetcher.Route(ctx, origin, destination)
	if err != nil {
		if cached != nil {
			util.WarnLog("Directions request failed, using cached route from %s: %v",
				cached.CachedAt.Format(time.RFC3339), err)
			c.incrementHitCount(key)
			return cached.Result, nil
		}
		return nil, err
	}

	if err := c.storeInCache(key, origin, destination, result); err != nil {
		util.WarnLog("Failed to cache directions result: %v", err)
	}

	return result, nil
}

func (c *Cache) isFresh(cached *CachedRoute) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(cached.CachedAt) < c.ttl
}

// getFromCache retrieves a cached lookup
func (c *Cache) getFromCache(key string) (*CachedRoute, error) {
	var cached CachedRoute
	var response string
	var cachedAt int64

	err := c.db.QueryRow(`
		SELECT response, cached_at, hit_count
		FROM directions_cache
		WHERE route_key = ?
	`, key).Scan(&response, &cachedAt, &cached.HitCount)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached route: %w", err)
	}

	cached.Key = key
	cached.Result = &result
	cached.CachedAt = time.Unix(cachedAt, 0)
	return &cached, nil
}

// storeInCache stores a lookup result in the cache
func (c *Cache) storeInCache(key, origin, destination string, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO directions_cache
		(route_key, origin, destination, response, cached_at, hit_count)
		VALUES (?, ?, ?, ?, ?, COALESCE((SELECT hit_count FROM directions_cache WHERE route_key = ?), 0))
	`, key, origin, destination, string(data), c.now().Unix(), key)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// incrementHitCount increments the cache hit counter
func (c *Cache) incrementHitCount(key string) {
	_, err := c.db.Exec(`UPDATE directions_cache SET hit_count = hit_count + 1 WHERE route_key = ?`, key)
	if err != nil {
		util.DebugLog("Failed to increment hit count: %v", err)
	}
}

// GetStats returns cache statistics
func (c *Cache) GetStats() (entries int, totalHits int64, err error) {
	err = c.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM directions_cache`).Scan(&entries, &totalHits)
	return
}

// ClearCache removes all cached entries
func (c *Cache) ClearCache() error {
	_, err := c.db.Exec("DELETE FROM directions_cache")
	return err
}

// ClearOldEntries removes cache entries older than the specified duration
func (c *Cache) ClearOldEntries(olderThan time.Duration) (int, error) {
	cutoff := c.now().Add(-olderThan).Unix()
	result, err := c.db.Exec("DELETE FROM directions_cache WHERE cached_at < ?", cutoff)
	if err != nil {
		return 0, err
	}

	rows, _ := result.RowsAffected()
	return int(rows), nil
}
