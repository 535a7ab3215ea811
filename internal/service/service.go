package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/metrics"
	"github.com/sdwr/cowprofit/internal/pricing"
	"github.com/sdwr/cowprofit/internal/tea"
)

// ErrInvalidInput wraps request validation failures.
var ErrInvalidInput = errors.New("invalid input")

// GameSource is the game data a Service plans against. *game.Loader implements it.
type GameSource interface {
	game.Resolver
	LoadGame() (game.GameData, error)
	LoadProfile(name string) (game.Profile, error)
}

// Options configures a Service.
type Options struct {
	DefaultProfile string
	PriceMode      pricing.PriceMode
	Cache          *enhance.Cache // nil disables memoisation
}

// Service turns items, profiles and market prices into plans and session estimates.
type Service struct {
	game   GameSource
	market atomic.Pointer[pricing.Market]
	solver enhance.Solver
	opts   Options

	cacheMu                  sync.Mutex
	reportedHits, reportedMs uint64
}

// New creates a Service with an empty market; see SetMarket.
func New(src GameSource, opts Options) *Service {
	if opts.PriceMode == "" {
		opts.PriceMode = pricing.Pessimistic
	}
	s := &Service{game: src, solver: enhance.Solver{Cache: opts.Cache}, opts: opts}
	s.market.Store(&pricing.Market{})
	return s
}

// SetMarket swaps the market snapshot used by subsequent requests.
func (s *Service) SetMarket(m pricing.Market) {
	s.market.Store(&m)
}

// Market returns the current market snapshot.
func (s *Service) Market() pricing.Market {
	return *s.market.Load()
}

// InvalidateCache drops memoised matrices, e.g. after game data is reloaded.
func (s *Service) InvalidateCache() {
	if s.opts.Cache != nil {
		s.opts.Cache.Purge()
	}
}

func (s *Service) profile(name string) string {
	if name == "" {
		return s.opts.DefaultProfile
	}
	return name
}

// pricer prices against the current market with the calculator's recipes and
// artisan multiplier.
func (s *Service) pricer(calc game.Calculator, mode string) (pricing.Pricer, error) {
	pm := s.opts.PriceMode
	if mode != "" {
		var err error
		if pm, err = pricing.ParsePriceMode(mode); err != nil {
			return pricing.Pricer{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return pricing.Pricer{
		Market:  s.Market(),
		Items:   calc.Items,
		Recipes: calc.Recipes,
		Artisan: calc.ArtisanMultiplier(),
		Mode:    pm,
	}, nil
}

// teaSchedule prices the profile's active teas for one session.
func teaSchedule(g game.GameData, c game.Calculator, p pricing.Pricer) tea.Schedule {
	sched := tea.Schedule{Guzzling: c.Guzzling(), BaseSeconds: g.Constants.TeaSeconds}
	for _, name := range c.Profile.Teas.Active() {
		hrid, ok := g.Teas[name]
		if !ok {
			continue
		}
		price, _ := p.ItemPrice(hrid, 0)
		sched.Teas = append(sched.Teas, tea.Tea{Name: name, Item: hrid, Price: price})
	}
	return sched
}

// reportCache forwards cache hits and misses accumulated since the last call.
func (s *Service) reportCache() {
	if s.opts.Cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	hits, misses := s.opts.Cache.Stats()
	metrics.RecordCacheDelta(hits-s.reportedHits, misses-s.reportedMs)
	s.reportedHits, s.reportedMs = hits, misses
}

// outcome maps an error to its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, enhance.ErrDegenerateSystem):
		return metrics.OutcomeDegenerate
	case errors.Is(err, ErrInvalidInput), errors.Is(err, enhance.ErrInvalidConfig),
		errors.Is(err, drops.ErrInvalidSession), errors.Is(err, game.ErrValidation),
		errors.Is(err, game.ErrNotFound):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

type transportKey struct{}

// TransportDirect labels calls made without a transport, e.g. from tests or tools.
const TransportDirect = "direct"

// WithTransport tags ctx with the transport serving the call, for metrics.
func WithTransport(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, transportKey{}, name)
}

// TransportFrom returns the transport tagged on ctx, or TransportDirect.
func TransportFrom(ctx context.Context) string {
	if name, ok := ctx.Value(transportKey{}).(string); ok && name != "" {
		return name
	}
	return TransportDirect
}
