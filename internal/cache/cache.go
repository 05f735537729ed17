package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	opTimeout      = 3 * time.Second
	dialTimeout    = 2 * time.Second
	maxDialRetries = 3

	// After a failed dial the external tier is skipped for this long,
	// so concurrent requests do not queue behind repeated dial attempts
	// while redis is down.
	dialCooldown = time.Second
)

// Cache is a key-value cache backed by redis that transparently
// degrades to an in-process fallback store when redis is unreachable.
// Operations never surface infrastructure errors to callers: the worst
// case is a miss, so response caching and session storage degrade
// instead of failing the request.
type Cache struct {
	addr     string
	fallback *Fallback

	mu           sync.Mutex
	client       *redis.Client
	lastDialFail time.Time
}

func New(addr string) *Cache {
	return &Cache{addr: addr, fallback: NewFallback()}
}

// Fallback exposes the in-process tier for the background sweeper.
func (c *Cache) Fallback() *Fallback { return c.fallback }

// conn lazily establishes the shared redis connection. The dial is
// verified with a ping retried under bounded exponential backoff; on
// failure the external tier is treated as unavailable for this call
// and connectivity is re-attempted on a later call. The lock is never
// held while the dial is in flight.
func (c *Cache) conn(ctx context.Context) *redis.Client {
	c.mu.Lock()
	if c.client != nil {
		client := c.client
		c.mu.Unlock()
		return client
	}
	if time.Since(c.lastDialFail) < dialCooldown {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	client := redis.NewClient(&redis.Options{
		Addr:         c.addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		return client.Ping(pctx).Err()
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(50*time.Millisecond),
		backoff.WithMaxInterval(500*time.Millisecond),
	), maxDialRetries)

	if err := backoff.Retry(ping, backoff.WithContext(policy, ctx)); err != nil {
		log.Warn().Err(err).Str("addr", c.addr).Msg("cache service unreachable, using fallback store")
		_ = client.Close()
		c.mu.Lock()
		c.lastDialFail = time.Now()
		c.mu.Unlock()
		return nil
	}

	log.Info().Str("addr", c.addr).Msg("connected to cache service")
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		// Another goroutine connected first.
		_ = client.Close()
		return c.client
	}
	c.client = client
	return client
}

// dropConn discards a connection that just failed so the next call
// re-dials instead of reusing a dead client.
func (c *Cache) dropConn(client *redis.Client) {
	c.mu.Lock()
	if c.client == client {
		c.client = nil
		c.lastDialFail = time.Now()
	}
	c.mu.Unlock()
	_ = client.Close()
}

// Get returns the value for key, or ok=false when the key is absent or
// expired in both tiers.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if client := c.conn(ctx); client != nil {
		octx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		val, err := client.Get(octx, key).Result()
		if err == nil {
			return val, true
		}
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed, consulting fallback")
			c.dropConn(client)
		}
		// redis miss still consults the fallback tier: a value written
		// while redis was down lives only there.
	}
	return c.fallback.Get(key)
}

// Set writes key with an optional TTL (ttl <= 0 means no expiry). The
// fallback store is always written as well, so a later redis failure
// does not lose recently written data within the TTL window.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	c.fallback.Set(key, value, ttl)

	if client := c.conn(ctx); client != nil {
		octx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		if err := client.Set(octx, key, value, normTTL(ttl)).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed, fallback only")
			c.dropConn(client)
			return true
		}
	}
	return true
}

// Del removes keys from both tiers and returns the number removed.
func (c *Cache) Del(ctx context.Context, keys ...string) int {
	removed := 0
	if client := c.conn(ctx); client != nil {
		octx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		n, err := client.Del(octx, keys...).Result()
		if err != nil {
			log.Warn().Err(err).Msg("cache del failed")
			c.dropConn(client)
		} else {
			removed = int(n)
		}
	}
	if local := c.fallback.Del(keys...); local > removed {
		removed = local
	}
	return removed
}

func (c *Cache) Exists(ctx context.Context, key string) bool {
	if client := c.conn(ctx); client != nil {
		octx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		n, err := client.Exists(octx, key).Result()
		if err == nil && n > 0 {
			return true
		}
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache exists failed, consulting fallback")
			c.dropConn(client)
		}
	}
	return c.fallback.Exists(key)
}

// Expire resets the TTL on an existing key in both tiers.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	ok := false
	if client := c.conn(ctx); client != nil {
		octx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		set, err := client.Expire(octx, key, ttl).Result()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache expire failed")
			c.dropConn(client)
		} else {
			ok = set
		}
	}
	if c.fallback.Expire(key, ttl) {
		ok = true
	}
	return ok
}

// Close releases the redis connection if one was established.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}
}

// redis treats 0 as "no expiry"; negative would be an error.
func normTTL(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}
