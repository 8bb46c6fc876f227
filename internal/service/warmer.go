package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jeduden/bmad-pokedex/internal/dex"
)

// WarmReport summarises a warming run.
type WarmReport struct {
	Warmed int
	Failed int
	Took   time.Duration
}

// Warmer prefetches reference data so the first effectiveness and browse
// requests are served from cache.
type Warmer struct {
	upstream    Upstream
	concurrency int
	logger      *slog.Logger
}

// NewWarmer creates a warmer that runs up to concurrency fetches at once.
func NewWarmer(upstream Upstream, concurrency int, logger *slog.Logger) *Warmer {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Warmer{upstream: upstream, concurrency: concurrency, logger: logger}
}

// WarmTypes fetches every type table. Individual failures are logged and
// counted; warming never fails as a whole.
func (w *Warmer) WarmTypes(ctx context.Context) WarmReport {
	start := time.Now()
	var warmed, failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, name := range dex.Types {
		g.Go(func() error {
			if _, err := w.upstream.Type(ctx, name); err != nil {
				failed.Add(1)
				w.logger.Warn("failed to warm type", "type", name, "error", err)
				return nil
			}
			warmed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := WarmReport{Warmed: int(warmed.Load()), Failed: int(failed.Load()), Took: time.Since(start)}
	w.logger.Info("type tables warmed", "warmed", report.Warmed, "failed", report.Failed, "took", report.Took)
	return report
}
