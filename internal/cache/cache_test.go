package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachable is an address nothing listens on, so every external-tier
// attempt fails and the cache must serve from the fallback store.
const unreachable = "127.0.0.1:1"

func TestSetGetWithExternalStoreDown(t *testing.T) {
	c := New(unreachable)
	defer c.Close()
	ctx := context.Background()

	ok := c.Set(ctx, "k", "v", time.Minute)
	require.True(t, ok)

	got, found := c.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "v", got)
}

func TestGetMissIsNotAnError(t *testing.T) {
	c := New(unreachable)
	defer c.Close()

	_, found := c.Get(context.Background(), "absent")
	assert.False(t, found)
}

func TestTTLExpiryInFallbackTier(t *testing.T) {
	c := New(unreachable)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", "v", 50*time.Millisecond)
	time.Sleep(120 * time.Millisecond)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)
	assert.False(t, c.Exists(ctx, "k"))
}

func TestDelReportsRemovedCount(t *testing.T) {
	c := New(unreachable)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", "1", 0)
	c.Set(ctx, "b", "2", 0)

	assert.Equal(t, 2, c.Del(ctx, "a", "b", "missing"))
	assert.Equal(t, 0, c.Del(ctx, "a"))
}

func TestExpireResetsTTL(t *testing.T) {
	c := New(unreachable)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", "v", 0)
	assert.True(t, c.Expire(ctx, "k", 50*time.Millisecond))
	time.Sleep(120 * time.Millisecond)
	assert.False(t, c.Exists(ctx, "k"))

	assert.False(t, c.Expire(ctx, "nope", time.Second))
}

func TestFallbackSweepEvictsExpiredEntries(t *testing.T) {
	f := NewFallback()
	f.Set("stale", "v", time.Millisecond)
	f.Set("fresh", "v", time.Minute)
	f.Set("forever", "v", 0)
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 1, f.Sweep())
	assert.Equal(t, 2, f.Len())
	assert.True(t, f.Exists("fresh"))
	assert.True(t, f.Exists("forever"))
}

func TestConcurrentAccess(t *testing.T) {
	c := New(unreachable)
	defer c.Close()
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				c.Set(ctx, "shared", "v", time.Minute)
				c.Get(ctx, "shared")
				c.Exists(ctx, "shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	got, found := c.Get(ctx, "shared")
	require.True(t, found)
	assert.Equal(t, "v", got)
}

func TestFallbackStaleReadDoesNotEvictFreshWrite(t *testing.T) {
	f := NewFallback()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					f.Get("k")
				}
			}
		}()
	}

	// A reader that observes the expired first write must not take the
	// second write down with it.
	for i := 0; i < 20000; i++ {
		f.Set("k", "stale", time.Nanosecond)
		f.Set("k", "fresh", time.Minute)

		got, ok := f.Get("k")
		require.True(t, ok, "fresh write lost on iteration %d", i)
		require.Equal(t, "fresh", got)
	}

	close(stop)
	wg.Wait()
}
