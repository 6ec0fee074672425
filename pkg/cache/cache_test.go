package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache_BasicOperations(t *testing.T) {
	cache := NewInMemoryCache(10 * time.Millisecond)
	defer cache.Stop()

	cache.Set("key1", "value1", time.Second)
	value, found := cache.Get("key1")
	assert.True(t, found)
	assert.Equal(t, "value1", value)

	_, found = cache.Get("nonexistent")
	assert.False(t, found)
}

func TestInMemoryCache_Expiration(t *testing.T) {
	cache := NewInMemoryCache(time.Hour)
	defer cache.Stop()

	cache.Set("expire", "value", 20*time.Millisecond)
	_, found := cache.Get("expire")
	assert.True(t, found)

	time.Sleep(40 * time.Millisecond)

	_, found = cache.Get("expire")
	assert.False(t, found)
	// not yet swept by cleanup
	assert.Equal(t, 1, cache.Size())
}

func TestInMemoryCache_Cleanup(t *testing.T) {
	cache := NewInMemoryCache(10 * time.Millisecond)
	defer cache.Stop()

	cache.Set("short", "v", 5*time.Millisecond)
	cache.Set("long", "v", time.Minute)

	assert.Eventually(t, func() bool { return cache.Size() == 1 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryCache_DeleteAndPrefix(t *testing.T) {
	cache := NewInMemoryCache(time.Hour)
	defer cache.Stop()

	cache.Set("tools:list:", 1, time.Minute)
	cache.Set("tools:list:seo", 2, time.Minute)
	cache.Set("tools:get:t1", 3, time.Minute)
	cache.Set("other", 4, time.Minute)

	cache.Delete("other")
	_, found := cache.Get("other")
	assert.False(t, found)

	cache.DeletePrefix("tools:list:")
	assert.Equal(t, 1, cache.Size())
	_, found = cache.Get("tools:get:t1")
	assert.True(t, found)

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestInMemoryCache_GetOrSet(t *testing.T) {
	t.Run("computes once and caches", func(t *testing.T) {
		cache := NewInMemoryCache(time.Hour)
		defer cache.Stop()

		calls := 0
		compute := func() (interface{}, error) {
			calls++
			return "computed", nil
		}

		v, err := cache.GetOrSet("k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)

		v, err = cache.GetOrSet("k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		cache := NewInMemoryCache(time.Hour)
		defer cache.Stop()

		_, err := cache.GetOrSet("k", time.Minute, func() (interface{}, error) {
			return nil, errors.New("db down")
		})
		assert.EqualError(t, err, "db down")
		assert.Equal(t, 0, cache.Size())
	})

	t.Run("concurrent misses share one compute", func(t *testing.T) {
		cache := NewInMemoryCache(time.Hour)
		defer cache.Stop()

		var calls int32
		release := make(chan struct{})
		compute := func() (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			<-release
			return 42, nil
		}

		var wg sync.WaitGroup
		results := make([]interface{}, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := cache.GetOrSet("k", time.Minute, compute)
				assert.NoError(t, err)
				results[i] = v
			}(i)
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		for _, v := range results {
			assert.Equal(t, 42, v)
		}
	})
}

func TestInMemoryCache_StopIsIdempotent(t *testing.T) {
	cache := NewInMemoryCache(time.Millisecond)
	cache.Stop()
	assert.NotPanics(t, cache.Stop)
}
