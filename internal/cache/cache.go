// Package cache provides the read-through caches used by the domain
// services. Entries are keyed by entity id and expire after a fixed TTL.
package cache

import (
	"context"
	"time"

	"catalog-service/internal/metrics"
)

// Cache names.
const (
	Products         = "products"
	ProductInventory = "product-inventory"
	Categories       = "categories"
)

// Cache is a concurrency-safe key/value cache. Implementations never fail:
// a backend error is reported as a miss.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
	Delete(ctx context.Context, key string)
}

// Options bounds a cache. Backends honour different fields:
//
//   - LRU (NewLRU) honours TTL and MaxEntries. The expirable LRU has no
//     pre-sizing hook, so InitialCapacity is ignored.
//   - Redis (NewRedis) honours TTL only. MaxEntries and InitialCapacity are
//     ignored; the server's maxmemory policy bounds its size.
type Options struct {
	TTL             time.Duration
	MaxEntries      int
	// InitialCapacity is the expected working-set size. No backend uses it.
	InitialCapacity int
}

// DefaultOptions returns the default TTL and size bounds.
func DefaultOptions() Options {
	return Options{
		TTL:             10 * time.Minute,
		MaxEntries:      500,
		InitialCapacity: 100,
	}
}

func recordLookup(name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheRequests.WithLabelValues(name, result).Inc()
}
