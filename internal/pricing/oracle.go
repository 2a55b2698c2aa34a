package pricing

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/metrics"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

// Stage is one step of the source chain. A SessionOnly stage is skipped
// outside trading hours.
type Stage struct {
	Source      Source
	SessionOnly bool
}

// Options configures an Oracle.
type Options struct {
	Cache   Cache
	Stages  []Stage
	Session Session
	TTL     TTLPolicy
	Clock   Clock
	// Timeout bounds one batched fetch across all stages.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Oracle resolves current prices for a batch of codes. Codes it cannot
// price are simply absent from the result; callers fall back to the last
// transaction price.
type Oracle struct {
	cache   Cache
	stages  []Stage
	session Session
	ttl     TTLPolicy
	clock   Clock
	timeout time.Duration
	logger  *zap.Logger
	flight  singleflight.Group
}

// NewOracle builds an oracle; zero options fall back to an in-memory
// cache, a 60s TTL and the wall clock.
func NewOracle(opts Options) *Oracle {
	o := &Oracle{
		cache:   opts.Cache,
		stages:  opts.Stages,
		session: opts.Session,
		ttl:     opts.TTL,
		clock:   opts.Clock,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if o.clock == nil {
		o.clock = SystemClock{}
	}
	if o.cache == nil {
		o.cache = NewMemoryCache(o.clock)
	}
	if o.ttl == nil {
		o.ttl = FixedTTL(time.Minute)
	}
	if o.session.Location == nil {
		o.session = NewSession(nil)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Quotes returns a quote for every code it could price. With refresh set
// the cached quotes of the requested codes are evicted first. Quotes
// never fails: every upstream error degrades to a missing entry.
func (o *Oracle) Quotes(ctx context.Context, reqs []Request, refresh bool) map[string]model.Quote {
	reqs = dedupe(reqs)
	out := make(map[string]model.Quote, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	if refresh {
		o.Invalidate(ctx, codesOf(reqs)...)
	}

	now := o.clock.Now()
	fresh := o.ttl.TTL(now)
	var misses []Request
	for _, r := range reqs {
		q, ok, err := o.cache.Get(ctx, r.Code)
		if err != nil {
			o.logger.Warn("quote cache read failed", zap.String("code", r.Code), zap.Error(err))
		}
		if ok && q.Price > 0 && now.Sub(q.UpdatedAt) < fresh {
			metrics.QuoteCacheLookups.WithLabelValues("hit").Inc()
			out[r.Code] = q
			continue
		}
		metrics.QuoteCacheLookups.WithLabelValues("miss").Inc()
		misses = append(misses, r)
	}
	if len(misses) == 0 {
		return out
	}

	key := strings.Join(codesOf(misses), ",")
	v, _, _ := o.flight.Do(key, func() (any, error) {
		// Detached from the caller so a cancelled request does not abort
		// a fetch other callers are waiting on.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.fetchTimeout())
		defer cancel()
		return o.fetch(fctx, misses), nil
	})
	for code, q := range v.(map[string]model.Quote) {
		out[code] = q
	}

	for _, r := range misses {
		if _, ok := out[r.Code]; !ok {
			metrics.QuoteFallbacks.Inc()
		}
	}
	return out
}

// Invalidate evicts codes from the cache.
func (o *Oracle) Invalidate(ctx context.Context, codes ...string) {
	if len(codes) == 0 {
		return
	}
	if err := o.cache.Delete(ctx, codes...); err != nil {
		o.logger.Warn("quote cache eviction failed", zap.Strings("codes", codes), zap.Error(err))
	}
}

func (o *Oracle) fetchTimeout() time.Duration {
	if o.timeout <= 0 {
		return 8 * time.Second
	}
	return o.timeout
}

// fetch walks the stage chain; each stage only sees the codes earlier
// stages could not price.
func (o *Oracle) fetch(ctx context.Context, reqs []Request) map[string]model.Quote {
	start := time.Now()
	defer func() { metrics.QuoteFetchDuration.Observe(time.Since(start).Seconds()) }()

	now := o.clock.Now()
	live := o.session.InSession(now)
	ttl := o.ttl.TTL(now)

	out := make(map[string]model.Quote, len(reqs))
	pending := reqs
	for _, stage := range o.stages {
		if len(pending) == 0 {
			break
		}
		if stage.SessionOnly && !live {
			continue
		}
		if ctx.Err() != nil {
			o.logger.Warn("quote fetch timed out", zap.Int("unpriced", len(pending)))
			break
		}

		name := stage.Source.Name()
		got, err := stage.Source.Fetch(ctx, pending)
		if err != nil {
			metrics.QuoteSourceRequests.WithLabelValues(name, "error").Inc()
			o.logger.Warn("quote source failed",
				zap.String("source", name),
				zap.Int("codes", len(pending)),
				zap.Int("priced", len(got)),
				zap.Error(err))
		} else {
			metrics.QuoteSourceRequests.WithLabelValues(name, "ok").Inc()
		}

		var next []Request
		for _, r := range pending {
			q, ok := got[r.Code]
			if !ok || q.Price <= 0 {
				next = append(next, r)
				continue
			}
			out[r.Code] = q
			if err := o.cache.Set(ctx, r.Code, q, ttl); err != nil {
				o.logger.Warn("quote cache write failed", zap.String("code", r.Code), zap.Error(err))
			}
		}
		pending = next
	}

	if len(pending) > 0 {
		o.logger.Info("codes left unpriced", zap.Strings("codes", codesOf(pending)))
	}
	return out
}

// dedupe drops empty codes and repeated codes, keeping the first market
// hint that is not empty, and sorts by code.
func dedupe(reqs []Request) []Request {
	index := make(map[string]int, len(reqs))
	out := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		r.Code = strings.TrimSpace(r.Code)
		if r.Code == "" {
			continue
		}
		if i, seen := index[r.Code]; seen {
			if out[i].MarketHint == "" {
				out[i].MarketHint = r.MarketHint
			}
			continue
		}
		index[r.Code] = len(out)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func codesOf(reqs []Request) []string {
	codes := make([]string, len(reqs))
	for i, r := range reqs {
		codes[i] = r.Code
	}
	return codes
}
