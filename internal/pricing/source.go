package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/twse"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/yahoo"
)

// Request asks for the price of one code. MarketHint is the instrument's
// market type (listed, OTC, emerging) and may be empty.
type Request struct {
	Code       string
	MarketHint string
}

// Source is one upstream quote provider. Fetch returns whatever it could
// price; a non-nil error may accompany partial results.
type Source interface {
	Name() string
	Fetch(ctx context.Context, reqs []Request) (map[string]model.Quote, error)
}

// YahooClient is the subset of yahoo.FinanceClient used here.
type YahooClient interface {
	QueryQuote(ctx context.Context, symbol string) (yahoo.Quote, error)
}

// YahooSource prices codes one symbol at a time with bounded concurrency.
type YahooSource struct {
	client      YahooClient
	session     Session
	clock       Clock
	concurrency int
}

// NewYahooSource creates the Yahoo Finance source.
func NewYahooSource(client YahooClient, session Session, clock Clock, concurrency int) *YahooSource {
	if concurrency < 1 {
		concurrency = 1
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &YahooSource{client: client, session: session, clock: clock, concurrency: concurrency}
}

// Name implements Source.
func (s *YahooSource) Name() string { return "yahoo" }

// Fetch queries every code. A quote traded within the last hour during
// the session is realtime; anything else is a close.
func (s *YahooSource) Fetch(ctx context.Context, reqs []Request) (map[string]model.Quote, error) {
	now := s.clock.Now()
	live := s.session.InSession(now)

	var (
		mu   sync.Mutex
		out  = make(map[string]model.Quote, len(reqs))
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, r := range reqs {
		r := r
		g.Go(func() error {
			q, err := s.client.QueryQuote(gctx, yahoo.Symbol(r.Code, twse.IsOTC(r.MarketHint)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.Code, err))
				return nil
			}
			source := model.PriceSourceClose
			if live && !q.MarketTime.IsZero() && now.Sub(q.MarketTime) < time.Hour {
				source = model.PriceSourceRealtime
			}
			out[r.Code] = model.Quote{Price: q.Price, Source: source, UpdatedAt: now}
			return nil
		})
	}
	_ = g.Wait()

	return out, errors.Join(errs...)
}

// TWSEClient is the subset of twse.Client used here.
type TWSEClient interface {
	RealtimePrices(ctx context.Context, instruments []model.Instrument) (map[string]float64, error)
	ClosePrices(ctx context.Context, codes []string) (map[string]float64, error)
}

// MISSource prices codes from the TWSE MIS realtime snapshot in one call.
type MISSource struct {
	client TWSEClient
	clock  Clock
}

// NewMISSource creates the TWSE realtime source.
func NewMISSource(client TWSEClient, clock Clock) *MISSource {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MISSource{client: client, clock: clock}
}

// Name implements Source.
func (s *MISSource) Name() string { return "twse_mis" }

// Fetch implements Source.
func (s *MISSource) Fetch(ctx context.Context, reqs []Request) (map[string]model.Quote, error) {
	instruments := make([]model.Instrument, len(reqs))
	for i, r := range reqs {
		instruments[i] = model.Instrument{Code: r.Code, MarketType: r.MarketHint}
	}
	prices, err := s.client.RealtimePrices(ctx, instruments)
	if err != nil {
		return nil, err
	}
	return toQuotes(prices, model.PriceSourceRealtime, s.clock.Now()), nil
}

// CloseSource prices codes from the TWSE OpenAPI daily close table.
type CloseSource struct {
	client TWSEClient
	clock  Clock
}

// NewCloseSource creates the TWSE close-price source.
func NewCloseSource(client TWSEClient, clock Clock) *CloseSource {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CloseSource{client: client, clock: clock}
}

// Name implements Source.
func (s *CloseSource) Name() string { return "twse_close" }

// Fetch implements Source.
func (s *CloseSource) Fetch(ctx context.Context, reqs []Request) (map[string]model.Quote, error) {
	codes := make([]string, len(reqs))
	for i, r := range reqs {
		codes[i] = r.Code
	}
	prices, err := s.client.ClosePrices(ctx, codes)
	if err != nil {
		return nil, err
	}
	return toQuotes(prices, model.PriceSourceClose, s.clock.Now()), nil
}

func toQuotes(prices map[string]float64, source string, now time.Time) map[string]model.Quote {
	out := make(map[string]model.Quote, len(prices))
	for code, p := range prices {
		if p > 0 {
			out[code] = model.Quote{Price: p, Source: source, UpdatedAt: now}
		}
	}
	return out
}
