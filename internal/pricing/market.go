package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const CoinItem = "/items/coin"

var (
	ErrUnknownPriceMode = errors.New("unknown price mode")
	ErrNoProtection     = errors.New("no priced protection option")
)

// Quote is the order book top for one item level. -1 means no orders on that side.
type Quote struct {
	Ask float64 `json:"a"`
	Bid float64 `json:"b"`
}

// Market is a price snapshot: item hrid -> enhancement level -> quote.
type Market struct {
	Timestamp int64
	Prices    map[string]map[string]Quote
}

type marketFile struct {
	Timestamp  int64                       `json:"timestamp"`
	MarketData map[string]map[string]Quote `json:"marketData"`
	Market     map[string]map[string]Quote `json:"market"`
}

// LoadMarket decodes a snapshot. Both the game's "marketData" layout and the
// shorter "market" layout are accepted.
func LoadMarket(r io.Reader) (Market, error) {
	var f marketFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Market{}, fmt.Errorf("decode market: %w", err)
	}
	prices := f.MarketData
	if prices == nil {
		prices = f.Market
	}
	if prices == nil {
		prices = map[string]map[string]Quote{}
	}
	return Market{Timestamp: f.Timestamp, Prices: prices}, nil
}

func LoadMarketFile(path string) (Market, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Market{}, err
	}
	defer fh.Close()
	return LoadMarket(fh)
}

// Quote returns the quote for an item level; missing entries read as no orders.
func (m Market) Quote(hrid string, level int) Quote {
	q, ok := m.Prices[hrid][strconv.Itoa(level)]
	if !ok {
		return Quote{Ask: -1, Bid: -1}
	}
	return q
}

// PriceMode picks which side of the book is used for buying and selling.
type PriceMode string

const (
	// Buy at ask, sell at bid.
	Pessimistic PriceMode = "pessimistic"
	// Buy at bid, sell at ask.
	Optimistic PriceMode = "optimistic"
	// Mid of ask and bid when both exist.
	Midpoint PriceMode = "midpoint"
)

// ParsePriceMode accepts the mode names case-insensitively; "" is Pessimistic.
func ParsePriceMode(s string) (PriceMode, error) {
	switch m := PriceMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Pessimistic, nil
	case Pessimistic, Optimistic, Midpoint:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPriceMode, s)
	}
}

// BuyPrice is what acquiring one unit costs under mode; 0 when unpriced.
func (m Market) BuyPrice(hrid string, level int, mode PriceMode) float64 {
	if hrid == CoinItem {
		return 1
	}
	q := m.Quote(hrid, level)
	if q.Ask <= 0 && q.Bid <= 0 {
		return 0
	}
	switch mode {
	case Pessimistic:
		return positive(q.Ask)
	case Optimistic:
		if q.Bid > 0 {
			return q.Bid
		}
		return positive(q.Ask)
	default:
		if q.Ask > 0 && q.Bid > 0 {
			return (q.Ask + q.Bid) / 2
		}
		return positive(q.Ask)
	}
}

// SellPrice is what one unit fetches under mode, before fees; 0 when unpriced.
func (m Market) SellPrice(hrid string, level int, mode PriceMode) float64 {
	if hrid == CoinItem {
		return 1
	}
	q := m.Quote(hrid, level)
	if q.Ask <= 0 && q.Bid <= 0 {
		return 0
	}
	switch mode {
	case Pessimistic:
		return positive(q.Bid)
	case Optimistic:
		if q.Ask > 0 {
			return q.Ask
		}
		return positive(q.Bid)
	default:
		if q.Ask > 0 && q.Bid > 0 {
			return (q.Ask + q.Bid) / 2
		}
		if q.Bid > 0 {
			return q.Bid
		}
		return positive(q.Ask)
	}
}

func positive(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
