package source

import (
	"rheedview/internal/frame"
)

// defaultCacheSize is the decode cache capacity for sequence sources.
const defaultCacheSize = 10

// frameCache is a small bounded cache of decoded frames keyed by frame
// index. When full it evicts the entry whose index is numerically furthest
// from the playback cursor, not the least recently used one: during linear
// playback with occasional seeks, distance from the cursor is the better
// predictor of reuse. Capacity is small, so eviction is an O(n) scan.
type frameCache struct {
	frames   map[int]*frame.Frame
	capacity int
}

func newFrameCache(capacity int) *frameCache {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	return &frameCache{
		frames:   make(map[int]*frame.Frame),
		capacity: capacity,
	}
}

func (c *frameCache) get(index int) (*frame.Frame, bool) {
	f, ok := c.frames[index]
	return f, ok
}

// put stores a decoded frame and evicts the index furthest from cursor when
// the capacity is exceeded.
func (c *frameCache) put(index int, f *frame.Frame, cursor int) {
	c.frames[index] = f

	if len(c.frames) <= c.capacity {
		return
	}

	furthest, maxDist := -1, -1
	for k := range c.frames {
		d := k - cursor
		if d < 0 {
			d = -d
		}
		if d > maxDist {
			maxDist = d
			furthest = k
		}
	}
	delete(c.frames, furthest)
}

func (c *frameCache) clear() {
	c.frames = make(map[int]*frame.Frame)
}

func (c *frameCache) len() int {
	return len(c.frames)
}
