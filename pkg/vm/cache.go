package vm

// PropCacheState tracks how many distinct shapes a property access site has
// observed.
type PropCacheState uint8

const (
	CacheUninitialized PropCacheState = iota
	CacheMonomorphic
	CachePolymorphic
	CacheMegamorphic
)

func (s PropCacheState) String() string {
	switch s {
	case CacheUninitialized:
		return "uninitialized"
	case CacheMonomorphic:
		return "monomorphic"
	case CachePolymorphic:
		return "polymorphic"
	case CacheMegamorphic:
		return "megamorphic"
	default:
		return "unknown"
	}
}

// maxCacheEntries bounds the polymorphic entry array. The runtime config may
// lower the effective limit but never raise it past this.
const maxCacheEntries = 4

// PropCacheEntry pairs an observed shape with the slot the property occupied
// under that shape.
type PropCacheEntry struct {
	clazz *Shape
	slot  SlotIndex
}

// PropInlineCache memoizes shape-to-slot resolutions at a single property
// access site. Entries are validated by shape pointer identity, which is
// sound because shared shapes are immutable: any layout or attribute change
// moves the object to a different shape instance, and dictionary shapes are
// never cached.
type PropInlineCache struct {
	state      PropCacheState
	entries    [maxCacheEntries]PropCacheEntry
	entryCount int

	hitCount  uint64
	missCount uint64
}

// lookup probes the cache for the receiver's shape. Polymorphic hits move
// the matching entry to the front.
func (c *PropInlineCache) lookup(clazz *Shape) (SlotIndex, bool) {
	switch c.state {
	case CacheMonomorphic:
		if c.entries[0].clazz == clazz {
			c.hitCount++
			return c.entries[0].slot, true
		}
	case CachePolymorphic:
		for i := 0; i < c.entryCount; i++ {
			if c.entries[i].clazz == clazz {
				c.hitCount++
				if i > 0 {
					e := c.entries[i]
					copy(c.entries[1:i+1], c.entries[:i])
					c.entries[0] = e
				}
				return c.entries[0].slot, true
			}
		}
	}
	c.missCount++
	return 0, false
}

// update records a resolved (shape, slot) pair after a miss, advancing the
// state machine: first observation makes the site monomorphic, further
// distinct shapes make it polymorphic up to maxEntries, beyond that the site
// goes megamorphic and stops caching.
func (c *PropInlineCache) update(clazz *Shape, slot SlotIndex, maxEntries int) {
	if maxEntries <= 0 || maxEntries > maxCacheEntries {
		maxEntries = maxCacheEntries
	}
	switch c.state {
	case CacheUninitialized:
		c.entries[0] = PropCacheEntry{clazz: clazz, slot: slot}
		c.entryCount = 1
		c.state = CacheMonomorphic
	case CacheMonomorphic:
		if c.entries[0].clazz == clazz {
			c.entries[0].slot = slot
			return
		}
		if maxEntries < 2 {
			c.state = CacheMegamorphic
			c.entryCount = 0
			return
		}
		c.entries[1] = c.entries[0]
		c.entries[0] = PropCacheEntry{clazz: clazz, slot: slot}
		c.entryCount = 2
		c.state = CachePolymorphic
	case CachePolymorphic:
		for i := 0; i < c.entryCount; i++ {
			if c.entries[i].clazz == clazz {
				c.entries[i].slot = slot
				return
			}
		}
		if c.entryCount >= maxEntries {
			c.state = CacheMegamorphic
			c.entryCount = 0
			return
		}
		copy(c.entries[1:c.entryCount+1], c.entries[:c.entryCount])
		c.entries[0] = PropCacheEntry{clazz: clazz, slot: slot}
		c.entryCount++
	case CacheMegamorphic:
		// Stays megamorphic for the life of the site.
	}
}

// reset returns the site to the uninitialized state, keeping the counters.
func (c *PropInlineCache) reset() {
	c.state = CacheUninitialized
	c.entryCount = 0
	for i := range c.entries {
		c.entries[i] = PropCacheEntry{}
	}
}

// State returns the site's current state. Diagnostics only.
func (c *PropInlineCache) State() PropCacheState { return c.state }

// HitRate returns hits/(hits+misses) for this site, 0 before any probe.
func (c *PropInlineCache) HitRate() float64 {
	total := c.hitCount + c.missCount
	if total == 0 {
		return 0
	}
	return float64(c.hitCount) / float64(total)
}

// ICacheStats aggregates cache behavior across all sites of a runtime.
type ICacheStats struct {
	totalHits        uint64
	totalMisses      uint64
	monomorphicHits  uint64
	polymorphicHits  uint64
	megamorphicSites uint64
}

func (s ICacheStats) TotalHits() uint64   { return s.totalHits }
func (s ICacheStats) TotalMisses() uint64 { return s.totalMisses }

// HitRate returns the aggregate hit rate, 0 before any probe.
func (s ICacheStats) HitRate() float64 {
	total := s.totalHits + s.totalMisses
	if total == 0 {
		return 0
	}
	return float64(s.totalHits) / float64(total)
}

// CacheStats returns a copy of the runtime's aggregate cache counters.
func (r *Runtime) CacheStats() ICacheStats { return r.cacheStats }

// noteCacheHit updates the aggregate counters after a site hit.
func (r *Runtime) noteCacheHit(c *PropInlineCache) {
	r.cacheStats.totalHits++
	switch c.state {
	case CacheMonomorphic:
		r.cacheStats.monomorphicHits++
	case CachePolymorphic:
		r.cacheStats.polymorphicHits++
	}
}
