package service

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// judgeCache memoiza veredictos del juez LLM por hash del texto normalizado.
// Es local al proceso, acotado y con TTL corto: no hay dependencia de
// correctitud, solo ahorro de llamadas.
type judgeCache struct {
	mu      sync.Mutex
	items   map[string]judgeCacheEntry
	ttl     time.Duration
	maxSize int
}

type judgeCacheEntry struct {
	verdict judgeVerdict
	expires time.Time
}

func newJudgeCache(ttl time.Duration, maxSize int) *judgeCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &judgeCache{
		items:   make(map[string]judgeCacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func judgeCacheKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *judgeCache) Get(key string) (judgeVerdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return judgeVerdict{}, false
	}
	if time.Now().After(entry.expires) {
		delete(c.items, key)
		return judgeVerdict{}, false
	}
	return entry.verdict, true
}

func (c *judgeCache) Put(key string, v judgeVerdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.maxSize {
		// Eviccion simple: purga expirados y, si no alcanza, vacia.
		now := time.Now()
		for k, e := range c.items {
			if now.After(e.expires) {
				delete(c.items, k)
			}
		}
		if len(c.items) >= c.maxSize {
			c.items = make(map[string]judgeCacheEntry)
		}
	}
	c.items[key] = judgeCacheEntry{verdict: v, expires: time.Now().Add(c.ttl)}
}
