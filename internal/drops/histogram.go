// Package drops estimates protection usage from the per-level arrival counts
// captured for a finished enhancement session.
package drops

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSession is returned for negative levels, negative counts, or a
// final level the histogram cannot account for.
var ErrInvalidSession = errors.New("invalid session histogram")

// Histogram maps a level to how many times the item arrived there during a session.
type Histogram map[int]int

// MaxLevel returns the highest level with a positive count.
func (h Histogram) MaxLevel() (int, bool) {
	hi, ok := 0, false
	for level, n := range h {
		if n > 0 && (!ok || level > hi) {
			hi, ok = level, true
		}
	}
	return hi, ok
}

// MinLevel returns the lowest level with a positive count.
func (h Histogram) MinLevel() (int, bool) {
	lo, ok := 0, false
	for level, n := range h {
		if n > 0 && (!ok || level < lo) {
			lo, ok = level, true
		}
	}
	return lo, ok
}

// Total is the number of recorded arrivals.
func (h Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Levels returns the levels present in h in ascending order.
func (h Histogram) Levels() []int {
	levels := make([]int, 0, len(h))
	for level := range h {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

func (h Histogram) validate() error {
	for level, n := range h {
		if level < 0 {
			return fmt.Errorf("%w: negative level %d", ErrInvalidSession, level)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count %d at level %d", ErrInvalidSession, n, level)
		}
	}
	return nil
}
