package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRU[string]("test", DefaultOptions())

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	c.Set(ctx, "a", "alpha")
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)

	c.Delete(ctx, "a")
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)

	// deleting a missing key is a no-op
	c.Delete(ctx, "missing")
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRU[int]("test", Options{TTL: time.Minute, MaxEntries: 2})

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	_, _ = c.Get(ctx, "a")
	c.Set(ctx, "c", 3)

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestLRUExpiresEntries(t *testing.T) {
	ctx := context.Background()
	c := NewLRU[string]("test", Options{TTL: 20 * time.Millisecond, MaxEntries: 10})

	c.Set(ctx, "a", "alpha")
	time.Sleep(60 * time.Millisecond)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestLRUConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewLRU[int]("test", DefaultOptions())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 100; j++ {
				c.Set(ctx, key, j)
				c.Get(ctx, key)
				if j%10 == 0 {
					c.Delete(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()
}
