package analytics

import (
	"time"

	"github.com/ignite/commerce-insights/internal/domain"
)

// Totals summarizes a set of orders.
type Totals struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalOrders       int     `json:"total_orders"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// GrowthMetrics holds the percentage change of each total between two
// comparable windows.
type GrowthMetrics struct {
	RevenueGrowth           float64 `json:"revenue_growth"`
	OrdersGrowth            float64 `json:"orders_growth"`
	AverageOrderValueGrowth float64 `json:"average_order_value_growth"`
}

// ComputeTotals sums final amounts and derives the average order value.
func ComputeTotals(orders []domain.Order) Totals {
	var t Totals
	for _, o := range orders {
		t.TotalRevenue += o.FinalAmount
	}
	t.TotalOrders = len(orders)
	if t.TotalOrders > 0 {
		t.AverageOrderValue = t.TotalRevenue / float64(t.TotalOrders)
	}
	return t
}

// Growth is the percentage change from previous to current. A zero or
// negative baseline yields 0.
func Growth(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// Windows returns the current window [ref-N, ref) and the previous window
// [ref-2N, ref-N) for the period.
func Windows(p Period, ref time.Time) (current, previous domain.TimeWindow) {
	n := p.Length()
	current = domain.TimeWindow{Start: ref.Add(-n), End: ref}
	previous = domain.TimeWindow{Start: ref.Add(-2 * n), End: ref.Add(-n)}
	return current, previous
}

// ComputeGrowth compares two totals. The 365 day period always reports zero
// growth since its comparison window reaches past the available history.
func ComputeGrowth(p Period, current, previous Totals) GrowthMetrics {
	if p == Last365Days {
		return GrowthMetrics{}
	}
	return GrowthMetrics{
		RevenueGrowth:           Growth(current.TotalRevenue, previous.TotalRevenue),
		OrdersGrowth:            Growth(float64(current.TotalOrders), float64(previous.TotalOrders)),
		AverageOrderValueGrowth: Growth(current.AverageOrderValue, previous.AverageOrderValue),
	}
}

// FilterOrders keeps the orders whose timestamp lies in w, preserving order.
func FilterOrders(orders []domain.Order, w domain.TimeWindow) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if w.Contains(o.Timestamp) {
			out = append(out, o)
		}
	}
	return out
}
