// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synonym

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

const (
	defaultCacheTTL = 24 * time.Hour
	cacheKeyPrefix  = "alergias:synonyms:"
)

// NewRedisClient builds a standalone client from cfg. It does not dial;
// connection errors surface on first use and CachedMatcher falls through
// on them.
func NewRedisClient(cfg types.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	})
}

// CachedMatcher answers repeated lookups from Redis and delegates misses
// to the wrapped Matcher. Cache errors are logged and never fail a lookup;
// lookup errors are never cached.
type CachedMatcher struct {
	next Matcher
	rdb  redis.Cmdable
	ttl  time.Duration
	log  logging.Logger
}

// NewCachedMatcher wraps next. A zero ttl uses 24h.
func NewCachedMatcher(next Matcher, rdb redis.Cmdable, ttl time.Duration, log logging.Logger) *CachedMatcher {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &CachedMatcher{next: next, rdb: rdb, ttl: ttl, log: log.Named("synonym.cache")}
}

// Name reports the wrapped backend.
func (c *CachedMatcher) Name() string { return "cached-" + c.next.Name() }

// Match returns cached rows for (backend, query, threshold, limit) or
// fetches and stores them.
func (c *CachedMatcher) Match(ctx context.Context, query string, minSimilarity float64, limit int) ([]types.SynonymMatch, error) {
	key := CacheKey(c.next.Name(), query, minSimilarity, limit)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows []types.SynonymMatch
		if jerr := json.Unmarshal(data, &rows); jerr == nil {
			for i := range rows {
				rows[i].Surface = query
			}
			return rows, nil
		}
		c.log.Warn("discarding corrupt cache entry", logging.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Debug("cache read failed", logging.String("key", key), logging.Err(err))
	}

	rows, err := c.next.Match(ctx, query, minSimilarity, limit)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(rows); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Debug("cache write failed", logging.String("key", key), logging.Err(serr))
		}
	}
	return rows, nil
}

// CacheKey builds the Redis key for a lookup. Queries are folded so case
// and accent variants share an entry.
func CacheKey(backend, query string, minSimilarity float64, limit int) string {
	return fmt.Sprintf("%s%s:%.3f:%d:%s", cacheKeyPrefix, backend, minSimilarity, limit, textnorm.Fold(query))
}
