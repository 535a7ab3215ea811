package pricing

import (
	"fmt"
	"strings"

	"github.com/sdwr/cowprofit/internal/game"
)

// Source tells where a price came from.
type Source string

const (
	SourceFixed  Source = "fixed"
	SourceMarket Source = "market"
	SourceCraft  Source = "craft"
	SourceVendor Source = "vendor"
	SourceNone   Source = "none"
)

// MaxCraftDepth bounds the recipe walk; deeper or cyclic trees price as 0.
const MaxCraftDepth = 10

// Pricer prices items from a market snapshot and recipes, falling back to
// vendor prices.
type Pricer struct {
	Market  Market
	Items   map[string]game.Item
	Recipes map[string]game.Recipe
	Artisan float64 // recipe input multiplier; 0 reads as 1
	Mode    PriceMode
}

// ItemPrice is the buy price of one unit at level. At +0 an item that is
// cheaper to craft than to buy is priced at its crafting cost.
func (p Pricer) ItemPrice(hrid string, level int) (float64, Source) {
	if hrid == CoinItem {
		return 1, SourceFixed
	}
	market := p.Market.BuyPrice(hrid, level, p.Mode)
	if level == 0 {
		if craft := p.CraftingCost(hrid); craft > 0 && (market <= 0 || craft < market) {
			return craft, SourceCraft
		}
	}
	if market > 0 {
		return market, SourceMarket
	}
	if v := p.vendorPrice(hrid); v > 0 {
		return v, SourceVendor
	}
	return 0, SourceNone
}

// CraftingCost is the cost of crafting one +0 unit from its recipe: inputs
// scaled by Artisan plus the unscaled upgrade item. Each input is bought at
// market, else crafted, else valued at its vendor price. 0 when the item is
// not craftable.
func (p Pricer) CraftingCost(hrid string) float64 {
	return p.craftingCost(hrid, 0)
}

func (p Pricer) craftingCost(hrid string, depth int) float64 {
	if depth > MaxCraftDepth {
		return 0
	}
	if hrid == CoinItem {
		return 1
	}
	it, ok := p.Items[hrid]
	if !ok || !it.Craftable() {
		return 0
	}
	r, ok := p.Recipes[hrid]
	if !ok {
		return 0
	}

	artisan := p.Artisan
	if artisan <= 0 {
		artisan = 1
	}
	cost := 0.0
	for _, in := range r.Inputs {
		cost += in.Count * artisan * p.inputPrice(in.Item, depth)
	}
	if r.Upgrade != "" {
		cost += p.inputPrice(r.Upgrade, depth)
	}
	return cost
}

func (p Pricer) inputPrice(hrid string, depth int) float64 {
	if v := p.Market.BuyPrice(hrid, 0, p.Mode); v > 0 {
		return v
	}
	if v := p.craftingCost(hrid, depth+1); v > 0 {
		return v
	}
	return p.vendorPrice(hrid)
}

func (p Pricer) vendorPrice(hrid string) float64 {
	if it, ok := p.Items[hrid]; ok && it.SellPrice > 0 {
		return it.SellPrice
	}
	return 0
}

// SellPrice is what the enhanced item fetches at level, before the market fee.
func (p Pricer) SellPrice(hrid string, level int) float64 {
	return p.Market.SellPrice(hrid, level, p.Mode)
}

// MaterialLine is one input consumed by every attempt.
type MaterialLine struct {
	Item      string  `json:"item"`
	Count     float64 `json:"count"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
	Source    Source  `json:"source"`
}

// Materials prices the per-attempt enhancement costs of an item.
func (p Pricer) Materials(item game.Item) []MaterialLine {
	lines := make([]MaterialLine, 0, len(item.EnhancementCosts))
	for _, c := range item.EnhancementCosts {
		price, src := p.ItemPrice(c.Item, 0)
		lines = append(lines, MaterialLine{
			Item:      c.Item,
			Count:     c.Count,
			UnitPrice: price,
			Subtotal:  c.Count * price,
			Source:    src,
		})
	}
	return lines
}

// CostPerAttempt sums material lines.
func CostPerAttempt(lines []MaterialLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.Subtotal
	}
	return total
}

// ProtectionOption is one item that can be consumed as protection.
type ProtectionOption struct {
	Item  string  `json:"item"`
	Price float64 `json:"price"`
}

// ProtectionOptions lists the mirror, the base item and the item's own
// protection list, skipping refined variants and anything without a price.
func (p Pricer) ProtectionOptions(item game.Item, mirror string) []ProtectionOption {
	if mirror == "" {
		mirror = game.DefaultMirrorItem
	}
	candidates := append([]string{mirror, item.Hrid}, item.ProtectionItems...)
	var out []ProtectionOption
	for _, hrid := range candidates {
		if strings.Contains(hrid, "_refined") {
			continue
		}
		if price, _ := p.ItemPrice(hrid, 0); price > 0 {
			out = append(out, ProtectionOption{Item: hrid, Price: price})
		}
	}
	return out
}

// CheapestProtection picks the lowest-priced option; the earlier option wins ties.
func (p Pricer) CheapestProtection(item game.Item, mirror string) (ProtectionOption, error) {
	opts := p.ProtectionOptions(item, mirror)
	if len(opts) == 0 {
		return ProtectionOption{}, fmt.Errorf("%w for %s", ErrNoProtection, item.Hrid)
	}
	best := opts[0]
	for _, o := range opts[1:] {
		if o.Price < best.Price {
			best = o
		}
	}
	return best, nil
}
