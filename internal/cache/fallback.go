package cache

import (
	"sync"
	"time"
)

type fallbackEntry struct {
	value     string
	expiry    time.Time
	hasExpiry bool
}

// Fallback is the in-process second tier of the cache. It mirrors the
// external store's TTL semantics: expiry is stored as absolute time and
// checked lazily on read.
type Fallback struct {
	mu      sync.RWMutex
	entries map[string]fallbackEntry
}

func NewFallback() *Fallback {
	return &Fallback{entries: make(map[string]fallbackEntry)}
}

func (f *Fallback) Get(key string) (string, bool) {
	f.mu.RLock()
	e, ok := f.entries[key]
	f.mu.RUnlock()
	if !ok {
		return "", false
	}
	if e.hasExpiry && time.Now().After(e.expiry) {
		f.mu.Lock()
		// A Set may have replaced the entry between the two lock
		// acquisitions; only drop the entry we observed expiring.
		if cur, ok := f.entries[key]; ok && cur == e {
			delete(f.entries, key)
		}
		f.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores a value. ttl <= 0 means no expiry.
func (f *Fallback) Set(key, value string, ttl time.Duration) {
	e := fallbackEntry{value: value}
	if ttl > 0 {
		e.expiry = time.Now().Add(ttl)
		e.hasExpiry = true
	}
	f.mu.Lock()
	f.entries[key] = e
	f.mu.Unlock()
}

func (f *Fallback) Del(keys ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for _, k := range keys {
		if _, ok := f.entries[k]; ok {
			delete(f.entries, k)
			removed++
		}
	}
	return removed
}

func (f *Fallback) Exists(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Expire resets the TTL of an existing entry. Returns false when the
// key is absent or already expired.
func (f *Fallback) Expire(key string, ttl time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok {
		return false
	}
	if e.hasExpiry && time.Now().After(e.expiry) {
		delete(f.entries, key)
		return false
	}
	e.expiry = time.Now().Add(ttl)
	e.hasExpiry = true
	f.entries[key] = e
	return true
}

// Sweep drops expired entries so an idle fallback store does not grow
// without bound. Called periodically by the cache sweeper.
func (f *Fallback) Sweep() int {
	now := time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for k, e := range f.entries {
		if e.hasExpiry && now.After(e.expiry) {
			delete(f.entries, k)
			removed++
		}
	}
	return removed
}

func (f *Fallback) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
