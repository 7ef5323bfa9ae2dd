package similarity

// defaultCacheCap bounds the normalization cache. Once full, the oldest
// entry is dropped per insertion.
const defaultCacheCap = 10000

// normCache memoizes normalized text keyed by the raw text plus the domain
// prefix it was normalized with. Eviction is plain FIFO: corpus texts are
// re-checked for every candidate, so recent entries are the hot ones and
// anything old enough to be evicted is unlikely to be a corpus member
// still in play.
type normCache struct {
	cap   int
	vals  map[string]string
	order []string
}

func newNormCache(capacity int) *normCache {
	return &normCache{
		cap:  capacity,
		vals: make(map[string]string, capacity/4),
	}
}

// normalized returns the cached normalization of text, computing and
// storing it on a miss.
func (c *normCache) normalized(text, domainPrefix string) string {
	key := domainPrefix + "\x00" + text
	if v, ok := c.vals[key]; ok {
		return v
	}

	v := normalize(text, domainPrefix)
	if len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.vals, oldest)
	}
	c.vals[key] = v
	c.order = append(c.order, key)
	return v
}

// len reports the number of cached entries.
func (c *normCache) len() int {
	return len(c.vals)
}
