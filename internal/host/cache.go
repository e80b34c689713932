package host

// fifoCache keeps at most cap values and evicts the oldest insert first.
type fifoCache[K comparable, V any] struct {
	cap   int
	items map[K]V
	order []K
	evict func(V)
}

func newFIFOCache[K comparable, V any](cap int, evict func(V)) *fifoCache[K, V] {
	if cap < 1 {
		cap = 1
	}
	return &fifoCache[K, V]{cap: cap, items: make(map[K]V), evict: evict}
}

// get returns the cached value for k, creating it on a miss.
func (c *fifoCache[K, V]) get(k K, create func() V) V {
	if v, ok := c.items[k]; ok {
		return v
	}
	for len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		if c.evict != nil {
			c.evict(c.items[oldest])
		}
		delete(c.items, oldest)
	}
	v := create()
	c.items[k] = v
	c.order = append(c.order, k)
	return v
}

func (c *fifoCache[K, V]) count() int { return len(c.order) }

func (c *fifoCache[K, V]) purge() {
	for _, k := range c.order {
		if c.evict != nil {
			c.evict(c.items[k])
		}
	}
	c.items = make(map[K]V)
	c.order = nil
}
