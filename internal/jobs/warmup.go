package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/metrics"
)

// QuoteWarmer refreshes cached quotes for every held domestic code.
type QuoteWarmer interface {
	WarmQuotes(ctx context.Context) (int, error)
}

// WarmupJob returns a cron job that refreshes the quote cache. Each run
// is bounded by timeout.
func WarmupJob(warmer QuoteWarmer, timeout time.Duration, logger *zap.Logger) func(context.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		n, err := warmer.WarmQuotes(ctx)
		if err != nil {
			metrics.WarmupRuns.WithLabelValues("error").Inc()
			logger.Warn("quote warm-up failed", zap.Error(err))
			return
		}
		metrics.WarmupRuns.WithLabelValues("ok").Inc()
		logger.Info("quote warm-up finished",
			zap.Int("codes", n),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
