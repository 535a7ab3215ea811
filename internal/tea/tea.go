package tea

import (
	"math"
	"time"
)

// DefaultSeconds is how long one tea lasts without drink concentration.
const DefaultSeconds = 300.0

// Tea is one drink kept active for a whole session.
type Tea struct {
	Name  string  // e.g. "ultra_enhancing", "blessed"
	Item  string  // market hrid, e.g. "/items/blessed_tea"
	Price float64 // price per drink
}

// Schedule defines how long each drink lasts and which drinks are kept up.
type Schedule struct {
	Guzzling    float64 // drink concentration multiplier; <= 0 is treated as 1
	BaseSeconds float64 // optional; if 0 -> DefaultSeconds
	Teas        []Tea
}

// PerUse returns how long one drink lasts. Concentration shortens it.
func (s Schedule) PerUse() time.Duration {
	base := s.BaseSeconds
	if base <= 0 {
		base = DefaultSeconds
	}
	g := s.Guzzling
	if g <= 0 {
		g = 1
	}
	return time.Duration(base / g * float64(time.Second))
}

// Uses returns how many drinks of each tea a session of length d consumes,
// pro rata.
func (s Schedule) Uses(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return d.Seconds() / s.PerUse().Seconds()
}

// WholeUses rounds Uses up: the drinks that actually have to be in the inventory.
func (s Schedule) WholeUses(d time.Duration) int {
	return int(math.Ceil(s.Uses(d) - 1e-9))
}

// CostPerUse sums one drink of every active tea.
func (s Schedule) CostPerUse() float64 {
	total := 0.0
	for _, t := range s.Teas {
		total += t.Price
	}
	return total
}

// Cost returns the tea spend for a session of length d.
func (s Schedule) Cost(d time.Duration) float64 {
	return s.Uses(d) * s.CostPerUse()
}
