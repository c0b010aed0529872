package cache

import (
	"context"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruCache[V any] struct {
	name string
	lru  *expirable.LRU[string, V]
}

// NewLRU returns an in-process cache bounded to opts.MaxEntries with least
// recently used eviction and a per-entry TTL measured from the last write.
func NewLRU[V any](name string, opts Options) Cache[V] {
	return &lruCache[V]{
		name: name,
		lru:  expirable.NewLRU[string, V](opts.MaxEntries, nil, opts.TTL),
	}
}

func (c *lruCache[V]) Get(_ context.Context, key string) (V, bool) {
	v, ok := c.lru.Get(key)
	recordLookup(c.name, ok)
	return v, ok
}

func (c *lruCache[V]) Set(_ context.Context, key string, value V) {
	c.lru.Add(key, value)
}

func (c *lruCache[V]) Delete(_ context.Context, key string) {
	c.lru.Remove(key)
}
