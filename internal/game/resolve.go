// resolve.go
package game

import "fmt"

// Overrides carries per-request tweaks applied on top of a merged profile.
type Overrides struct {
	EnhancingLevel   *int
	ObservatoryLevel *int
	Blessed          *bool
	Wisdom           *bool
	Artisan          *bool
}

func (o Overrides) apply(p Profile) Profile {
	p.EnhancingLevel = val(o.EnhancingLevel, p.EnhancingLevel)
	p.ObservatoryLevel = val(o.ObservatoryLevel, p.ObservatoryLevel)
	p.Teas.Blessed = val(o.Blessed, p.Teas.Blessed)
	p.Teas.Wisdom = val(o.Wisdom, p.Teas.Wisdom)
	p.Teas.Artisan = val(o.Artisan, p.Teas.Artisan)
	return p
}

// Resolved is one item under one player's profile.
type Resolved struct {
	Item       Item
	Calculator Calculator
	Version    string // game data version for tracing
}

type Resolver interface {
	Resolve(item, profile string, o Overrides) (Resolved, error)
}

var _ Resolver = (*Loader)(nil)

// Resolve loads game data and the named profile, applies overrides and looks up
// the item. Only items with enhancement costs can be resolved.
func (l *Loader) Resolve(item, profile string, o Overrides) (Resolved, error) {
	g, err := l.LoadGame()
	if err != nil {
		return Resolved{}, err
	}
	p, err := l.LoadProfile(profile)
	if err != nil {
		return Resolved{}, err
	}
	p = o.apply(p)
	if p.EnhancingLevel < 1 || p.ObservatoryLevel < 0 {
		return Resolved{}, fmt.Errorf("%w: override levels out of range", ErrValidation)
	}

	it, ok := g.Items[item]
	if !ok || len(it.EnhancementCosts) == 0 {
		return Resolved{}, fmt.Errorf("enhanceable item %q: %w", item, ErrNotFound)
	}
	return Resolved{Item: it, Calculator: NewCalculator(g, p), Version: g.Version}, nil
}
