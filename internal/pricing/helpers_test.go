package pricing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

// tuesday returns 2025-06-24 at hh:mm Taipei time.
func tuesday(hh, mm int) time.Time {
	return time.Date(2025, 6, 24, hh, mm, 0, 0, taipei)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// stubSource prices the codes in prices and records every call.
type stubSource struct {
	name   string
	prices map[string]float64
	kind   string
	err    error
	clock  Clock

	mu    sync.Mutex
	calls [][]string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, reqs []Request) (map[string]model.Quote, error) {
	s.mu.Lock()
	s.calls = append(s.calls, codesOf(reqs))
	s.mu.Unlock()

	out := make(map[string]model.Quote)
	for _, r := range reqs {
		if p, ok := s.prices[r.Code]; ok {
			out[r.Code] = model.Quote{Price: p, Source: s.kind, UpdatedAt: s.clock.Now()}
		}
	}
	return out, s.err
}

func (s *stubSource) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.calls...)
}

// brokenCache fails every operation.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string) (model.Quote, bool, error) {
	return model.Quote{}, false, errCacheDown
}

func (brokenCache) Set(context.Context, string, model.Quote, time.Duration) error {
	return errCacheDown
}

func (brokenCache) Delete(context.Context, ...string) error { return errCacheDown }
