// Package cache implements the write-once-per-fingerprint response cache
// the HTTP front-end consults before running a traversal.
package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// Store is the interface cmd/cargograph-server depends on, so a deployment
// can swap in a distributed cache (memcached, Redis) without touching the
// HTTP handler.
type Store interface {
	// Get returns the cached response body for key, if present.
	Get(key string) ([]byte, bool)
	// Put stores body under key if nothing is stored there yet. A second
	// Put for the same key is a silent no-op: the cached response for a
	// given fingerprint never changes, since the underlying graph is
	// immutable between ingest runs.
	Put(key string, body []byte)
}

// LRU is a bounded, in-process Store backed by github.com/golang/groupcache/lru,
// the same LRU building block the retrieved corpus benchmarks its own
// hand-rolled cache against.
type LRU struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewLRU returns an LRU cache holding at most maxEntries fingerprints. A
// maxEntries of zero means no limit.
func NewLRU(maxEntries int) *LRU {
	return &LRU{cache: lru.New(maxEntries)}
}

func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (c *LRU) Put(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cache.Get(key); ok {
		return
	}
	c.cache.Add(key, body)
}
