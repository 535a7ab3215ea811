package enhance

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache memoises fundamental matrices per distinct model (rates after bonus,
// threshold, blessed routing, target). It is owned and sized by the caller;
// results are identical with or without it.
type Cache struct {
	lru    *expirable.LRU[string, [][]float64]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates a cache holding at most size matrices for ttl each.
// ttl <= 0 disables expiry.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, [][]float64](size, nil, ttl)}
}

// Fundamental returns the cached (I - Q)^-1 for m, computing it on a miss.
// Degenerate models are not cached. Callers must not mutate the returned matrix.
func (c *Cache) Fundamental(m Model) ([][]float64, error) {
	key := modelKey(m)
	if fund, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return fund, nil
	}
	c.misses.Add(1)
	fund, err := Fundamental(m.Matrix())
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, fund)
	return fund, nil
}

// Stats reports cumulative hits and misses.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached matrices.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry, e.g. after game data is reloaded.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// modelKey encodes the exact bit patterns of every row, so two models share a
// key only when their matrices are identical.
func modelKey(m Model) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(m.Target))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(m.Threshold))
	for _, r := range m.Rows {
		b.WriteByte('|')
		for _, v := range []float64{r.Next, r.Double, r.Fail} {
			b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(r.Landing))
	}
	return b.String()
}
