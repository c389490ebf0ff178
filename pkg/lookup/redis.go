package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/xxh3"
)

// RedisCache is a shared cache in front of the reputation and known-threat
// collaborators, for deployments where many scanner instances hit the same
// upstream feeds. Redis failures degrade to the inner collaborator; a cache
// outage must never change a verdict.
type RedisCache struct {
	rdb        *redis.Client
	reputation ReputationClient
	known      KnownThreatDB
	ttl        time.Duration
}

// NewRedisCache wraps the given collaborators with a Redis-backed cache.
func NewRedisCache(rdb *redis.Client, reputation ReputationClient, known KnownThreatDB, ttl time.Duration) *RedisCache {
	return &RedisCache{
		rdb:        rdb,
		reputation: reputation,
		known:      known,
		ttl:        ttl,
	}
}

// cacheKey builds a fixed-width key; hashing keeps arbitrary URLs and hashes
// from producing oversized or unprintable Redis keys.
func cacheKey(prefix, value string) string {
	return fmt.Sprintf("threatscan:%s:%016x", prefix, xxh3.HashString(value))
}

// cachedKnown is the wire form of a known-threat lookup result, including
// misses so negative lookups are cached too.
type cachedKnown struct {
	Found  bool        `json:"found"`
	Threat KnownThreat `json:"threat,omitempty"`
}

func (c *RedisCache) Lookup(ctx context.Context, domain string) (Reputation, error) {
	key := cacheKey("rep", domain)
	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var rep Reputation
		if json.Unmarshal([]byte(raw), &rep) == nil {
			return rep, nil
		}
	}

	rep, err := c.reputation.Lookup(ctx, domain)
	if err != nil {
		return Reputation{}, err
	}
	if raw, err := json.Marshal(rep); err == nil {
		c.rdb.Set(ctx, key, raw, c.ttl) // best effort
	}
	return rep, nil
}

func (c *RedisCache) Find(ctx context.Context, value, kind string) (KnownThreat, bool, error) {
	key := cacheKey("known:"+kind, value)
	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var entry cachedKnown
		if json.Unmarshal([]byte(raw), &entry) == nil {
			return entry.Threat, entry.Found, nil
		}
	}

	kt, found, err := c.known.Find(ctx, value, kind)
	if err != nil {
		return KnownThreat{}, false, err
	}
	if raw, err := json.Marshal(cachedKnown{Found: found, Threat: kt}); err == nil {
		c.rdb.Set(ctx, key, raw, c.ttl) // best effort
	}
	return kt, found, nil
}
