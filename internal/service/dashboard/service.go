package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/cache"
	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/metrics"
	"github.com/ignite/commerce-insights/internal/pkg/logger"
)

// Options tune view construction.
type Options struct {
	TopN             int
	HistogramBuckets int
}

// Service builds dashboard views.
type Service struct {
	src   Sources
	cache cache.Store
	opts  Options
}

// NewService creates a dashboard service. A nil store disables caching.
func NewService(src Sources, store cache.Store, opts Options) *Service {
	if store == nil {
		store = cache.Nop{}
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.HistogramBuckets <= 0 {
		opts.HistogramBuckets = analytics.DefaultBucketCount
	}
	return &Service{src: src, cache: store, opts: opts}
}

// cached returns the cached view under key or builds, stores and returns a
// fresh one.
func cached[T any](ctx context.Context, s *Service, key string, build func() (*T, error)) (*T, error) {
	var v T
	found, err := s.cache.Get(ctx, key, &v)
	if err != nil {
		logger.Warn("dashboard cache read failed", "key", key, "error", err)
	}
	if found {
		return &v, nil
	}

	out, err := build()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		logger.Warn("dashboard cache write failed", "key", key, "error", err)
	}
	return out, nil
}

// cacheRef truncates ref to the minute so clock-derived references share
// cache entries.
func cacheRef(ref time.Time) time.Time {
	return ref.UTC().Truncate(time.Minute)
}

func refKey(ref time.Time) string {
	return ref.UTC().Format(time.RFC3339)
}

func fetchErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFetch, what, err)
}

// InvalidateCache drops every cached view.
func (s *Service) InvalidateCache(ctx context.Context) (int, error) {
	return s.cache.InvalidateAll(ctx)
}

// runGroup runs fns concurrently; the first failure cancels the rest.
func runGroup(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

func observe(view string, period string, start time.Time) {
	metrics.DashboardDuration.WithLabelValues(view, period).Observe(time.Since(start).Seconds())
}

func chartOrEmpty(items []domain.ChartItem) []domain.ChartItem {
	if items == nil {
		return []domain.ChartItem{}
	}
	return items
}
