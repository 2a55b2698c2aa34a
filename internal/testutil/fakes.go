package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/pricing"
)

// FakeClock is a settable pricing.Clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock frozen at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the frozen time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now.
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// FakeOracle serves fixed realtime quotes and records how it was called.
//
// Example usage:
//
//	oracle := testutil.NewFakeOracle(map[string]float64{"2330": 1000})
//	svc := testutil.NewTestHoldingService(t, db, oracle)
type FakeOracle struct {
	mu          sync.Mutex
	prices      map[string]float64
	requests    [][]pricing.Request
	refreshes   []bool
	invalidated []string
}

// NewFakeOracle returns an oracle that knows prices.
func NewFakeOracle(prices map[string]float64) *FakeOracle {
	return &FakeOracle{prices: prices}
}

// Quotes returns a realtime quote for every requested code it knows.
func (o *FakeOracle) Quotes(_ context.Context, reqs []pricing.Request, refresh bool) map[string]model.Quote {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.requests = append(o.requests, append([]pricing.Request(nil), reqs...))
	o.refreshes = append(o.refreshes, refresh)

	out := make(map[string]model.Quote, len(reqs))
	for _, r := range reqs {
		if p, ok := o.prices[r.Code]; ok {
			out[r.Code] = model.Quote{Price: p, Source: model.PriceSourceRealtime, UpdatedAt: TradingNow}
		}
	}
	return out
}

// Invalidate records the evicted codes.
func (o *FakeOracle) Invalidate(_ context.Context, codes ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalidated = append(o.invalidated, codes...)
}

// Requests returns every batch passed to Quotes.
func (o *FakeOracle) Requests() [][]pricing.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requests
}

// Refreshes returns the refresh flag of every Quotes call.
func (o *FakeOracle) Refreshes() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshes
}

// Invalidated returns every code passed to Invalidate.
func (o *FakeOracle) Invalidated() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.invalidated
}
