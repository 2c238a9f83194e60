package dashboard

import (
	"context"
	"time"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/cache"
	"github.com/ignite/commerce-insights/internal/domain"
)

// Ranking is a pair of top-N lists over the same records.
type Ranking struct {
	ByRevenue []domain.ChartItem `json:"by_revenue"`
	ByVolume  []domain.ChartItem `json:"by_volume"`
}

// Overview is the sales summary for one period.
type Overview struct {
	Period    analytics.Period `json:"period"`
	Label     string           `json:"label"`
	Reference time.Time        `json:"reference"`
	analytics.Totals
	analytics.GrowthMetrics
	Revenue     []domain.RevenuePoint `json:"revenue"`
	TopProducts Ranking               `json:"top_products"`
	TopChannels Ranking               `json:"top_channels"`
}

// Overview builds the sales summary for the period ending at ref. Growth
// compares against the preceding window of the same length.
func (s *Service) Overview(ctx context.Context, p analytics.Period, ref time.Time) (*Overview, error) {
	ref = cacheRef(ref)
	key := cache.Key("overview", string(p), refKey(ref))
	return cached(ctx, s, key, func() (*Overview, error) {
		start := time.Now()
		defer observe("overview", string(p), start)
		return s.buildOverview(ctx, p, ref)
	})
}

func (s *Service) buildOverview(ctx context.Context, p analytics.Period, ref time.Time) (*Overview, error) {
	cur, prev := analytics.Windows(p, ref)

	var (
		current, previous []domain.Order
		items             []domain.OrderItem
		channels          []domain.Channel
	)
	err := runGroup(ctx,
		func(ctx context.Context) (err error) {
			if current, err = s.src.Orders.ListOrders(ctx, cur); err != nil {
				return fetchErr("current orders", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			if previous, err = s.src.Orders.ListOrders(ctx, prev); err != nil {
				return fetchErr("previous orders", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			if items, err = s.src.Orders.ListOrderItems(ctx, cur); err != nil {
				return fetchErr("order items", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			if channels, err = s.src.Orders.ListChannels(ctx); err != nil {
				return fetchErr("channels", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	// Sources may treat the window end as inclusive.
	current = analytics.FilterOrders(current, cur)
	previous = analytics.FilterOrders(previous, prev)

	curTotals := analytics.ComputeTotals(current)
	prevTotals := analytics.ComputeTotals(previous)

	names := make(map[string]string, len(channels))
	for _, c := range channels {
		names[c.ID] = c.Name
	}
	channelName := func(o domain.Order) string {
		if n, ok := names[o.ChannelID]; ok {
			return n
		}
		return o.ChannelID
	}
	productName := func(it domain.OrderItem) string { return it.ProductName }
	n := s.opts.TopN

	return &Overview{
		Period:        p,
		Label:         p.Label(),
		Reference:     ref,
		Totals:        curTotals,
		GrowthMetrics: analytics.ComputeGrowth(p, curTotals, prevTotals),
		Revenue: analytics.TimeBuckets(current, p, ref,
			func(o domain.Order) time.Time { return o.Timestamp },
			func(o domain.Order) float64 { return o.FinalAmount }),
		TopProducts: Ranking{
			ByRevenue: chartOrEmpty(analytics.TopN(items, productName, domain.OrderItem.Revenue, n)),
			ByVolume: chartOrEmpty(analytics.TopN(items, productName,
				func(it domain.OrderItem) float64 { return float64(it.Quantity) }, n)),
		},
		TopChannels: Ranking{
			ByRevenue: chartOrEmpty(analytics.TopN(current, channelName,
				func(o domain.Order) float64 { return o.FinalAmount }, n)),
			ByVolume: chartOrEmpty(analytics.TopN(current, channelName,
				func(domain.Order) float64 { return 1 }, n)),
		},
	}, nil
}
