package lookup

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedReputation memoizes reputation lookups in process with a TTL.
// Errors from the inner client are not cached, so transient failures retry.
type CachedReputation struct {
	inner ReputationClient
	cache *gocache.Cache
}

// NewCachedReputation wraps a reputation client with an in-process TTL cache.
func NewCachedReputation(inner ReputationClient, ttl time.Duration) *CachedReputation {
	return &CachedReputation{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedReputation) Lookup(ctx context.Context, domain string) (Reputation, error) {
	if v, ok := c.cache.Get(domain); ok {
		return v.(Reputation), nil
	}
	rep, err := c.inner.Lookup(ctx, domain)
	if err != nil {
		return Reputation{}, err
	}
	c.cache.SetDefault(domain, rep)
	return rep, nil
}

// CachedAger memoizes domain-age lookups in process with a TTL.
type CachedAger struct {
	inner DomainAger
	cache *gocache.Cache
}

// NewCachedAger wraps a domain-age client with an in-process TTL cache.
func NewCachedAger(inner DomainAger, ttl time.Duration) *CachedAger {
	return &CachedAger{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedAger) AgeDays(ctx context.Context, domain string) (int, error) {
	if v, ok := c.cache.Get(domain); ok {
		return v.(int), nil
	}
	days, err := c.inner.AgeDays(ctx, domain)
	if err != nil {
		return 0, err
	}
	c.cache.SetDefault(domain, days)
	return days, nil
}
