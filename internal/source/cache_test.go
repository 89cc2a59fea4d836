package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rheedview/internal/frame"
)

func TestFrameCachePutGet(t *testing.T) {
	t.Parallel()

	c := newFrameCache(3)
	f := frame.NewGray(2, 2)
	c.put(5, f, 5)

	got, ok := c.get(5)
	require.True(t, ok)
	assert.Same(t, f, got)

	_, ok = c.get(6)
	assert.False(t, ok)
}

func TestFrameCacheEvictsFurthestFromCursor(t *testing.T) {
	t.Parallel()

	c := newFrameCache(3)
	for _, idx := range []int{0, 10, 11} {
		c.put(idx, frame.NewGray(1, 1), 10)
	}
	// Inserting near the cursor evicts index 0, the furthest entry.
	c.put(12, frame.NewGray(1, 1), 12)

	assert.Equal(t, 3, c.len())
	_, ok := c.get(0)
	assert.False(t, ok)
	for _, idx := range []int{10, 11, 12} {
		_, ok := c.get(idx)
		assert.True(t, ok, "index %d should be cached", idx)
	}
}

func TestFrameCacheEvictionIsNotLRU(t *testing.T) {
	t.Parallel()

	c := newFrameCache(2)
	c.put(100, frame.NewGray(1, 1), 0) // oldest insert, furthest from cursor
	c.put(1, frame.NewGray(1, 1), 0)
	c.put(2, frame.NewGray(1, 1), 2)

	// 100 is evicted despite 1 being just as old an access.
	_, ok := c.get(100)
	assert.False(t, ok)
	_, ok = c.get(1)
	assert.True(t, ok)
}

func TestFrameCacheClear(t *testing.T) {
	t.Parallel()

	c := newFrameCache(3)
	c.put(1, frame.NewGray(1, 1), 1)
	c.put(2, frame.NewGray(1, 1), 2)
	c.clear()

	assert.Equal(t, 0, c.len())
	_, ok := c.get(1)
	assert.False(t, ok)
}

func TestFrameCacheZeroCapacityUsesDefault(t *testing.T) {
	t.Parallel()

	c := newFrameCache(0)
	for i := 0; i < defaultCacheSize+5; i++ {
		c.put(i, frame.NewGray(1, 1), i)
	}
	assert.Equal(t, defaultCacheSize, c.len())
}
