// Package cache keeps computed analysis results for a limited time.
package cache

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type ResultCache struct {
	lru    *expirable.LRU[string, any]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New returns a cache of at most size entries living for ttl. size <= 0 means
// unbounded.
func New(size int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		lru: expirable.NewLRU[string, any](size, nil, ttl),
	}
}

func (c *ResultCache) Get(key string) (any, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

func (c *ResultCache) Add(key string, v any) {
	c.lru.Add(key, v)
}

// Invalidate drops every key starting with prefix.
func (c *ResultCache) Invalidate(prefix string) int {
	n := 0
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
			n++
		}
	}
	return n
}

func (c *ResultCache) Len() int {
	return c.lru.Len()
}

func (c *ResultCache) Hits() uint64 {
	return c.hits.Load()
}

func (c *ResultCache) Misses() uint64 {
	return c.misses.Load()
}

// Remember returns the cached value for key or computes, stores and returns it.
// Errors are not cached. A nil cache always computes.
func Remember[V any](c *ResultCache, key string, compute func() (V, error)) (V, error) {

	if c != nil {
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(V); ok {
				return typed, nil
			}
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if c != nil {
		c.Add(key, v)
	}
	return v, nil
}

// Key joins the parts into a cache key.
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}
