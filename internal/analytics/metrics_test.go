package analytics

import (
	"testing"
	"time"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refTime = time.Date(2024, 10, 23, 0, 0, 0, 0, time.UTC)

// =============================================================================
// TOTALS
// =============================================================================

func TestComputeTotals(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "o1", FinalAmount: 100},
		{OrderID: "o2", FinalAmount: 50.5},
		{OrderID: "o3", FinalAmount: 49.5},
	}

	totals := ComputeTotals(orders)

	assert.Equal(t, 200.0, totals.TotalRevenue)
	assert.Equal(t, 3, totals.TotalOrders)
	assert.InDelta(t, 200.0/3, totals.AverageOrderValue, 1e-9)
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.Equal(t, Totals{}, totals)
}

// =============================================================================
// GROWTH
// =============================================================================

func TestGrowth(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"increase", 150, 100, 50},
		{"decrease", 50, 100, -50},
		{"zero baseline", 75, 0, 0},
		{"unchanged", 100, 100, 0},
		{"negative baseline", 10, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Growth(tt.current, tt.previous), 1e-9)
		})
	}
}

func TestWindows(t *testing.T) {
	current, previous := Windows(Last7Days, refTime)

	assert.Equal(t, refTime.AddDate(0, 0, -7), current.Start)
	assert.Equal(t, refTime, current.End)
	assert.Equal(t, refTime.AddDate(0, 0, -14), previous.Start)
	assert.Equal(t, current.Start, previous.End)

	// An order exactly at the boundary belongs to the current window only.
	assert.True(t, current.Contains(current.Start))
	assert.False(t, previous.Contains(current.Start))
	assert.False(t, current.Contains(refTime))
}

func TestComputeGrowth(t *testing.T) {
	cur := Totals{TotalRevenue: 300, TotalOrders: 3, AverageOrderValue: 100}
	prev := Totals{TotalRevenue: 200, TotalOrders: 4, AverageOrderValue: 50}

	g := ComputeGrowth(Last30Days, cur, prev)
	assert.InDelta(t, 50, g.RevenueGrowth, 1e-9)
	assert.InDelta(t, -25, g.OrdersGrowth, 1e-9)
	assert.InDelta(t, 100, g.AverageOrderValueGrowth, 1e-9)

	assert.Equal(t, GrowthMetrics{}, ComputeGrowth(Last365Days, cur, prev))
}

func TestFilterOrders(t *testing.T) {
	w, err := domain.NewTimeWindow(refTime.Add(-time.Hour), refTime)
	require.NoError(t, err)

	orders := []domain.Order{
		{OrderID: "before", Timestamp: refTime.Add(-2 * time.Hour)},
		{OrderID: "start", Timestamp: refTime.Add(-time.Hour)},
		{OrderID: "inside", Timestamp: refTime.Add(-time.Minute)},
		{OrderID: "end", Timestamp: refTime},
	}

	got := FilterOrders(orders, w)
	require.Len(t, got, 2)
	assert.Equal(t, "start", got[0].OrderID)
	assert.Equal(t, "inside", got[1].OrderID)
}

func TestNewTimeWindow_RejectsInverted(t *testing.T) {
	_, err := domain.NewTimeWindow(refTime, refTime.Add(-time.Second))
	assert.Error(t, err)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("30d")
	require.NoError(t, err)
	assert.Equal(t, Last30Days, p)

	p, err = ParsePeriod("Last 24 hours")
	require.NoError(t, err)
	assert.Equal(t, Last24Hours, p)

	_, err = ParsePeriod("fortnight")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestPeriodTable(t *testing.T) {
	tests := []struct {
		period  Period
		buckets int
		width   time.Duration
	}{
		{Last24Hours, 24, time.Hour},
		{Last7Days, 7, 24 * time.Hour},
		{Last30Days, 30, 24 * time.Hour},
		{Last90Days, 90, 24 * time.Hour},
		{Last365Days, 12, 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.Equal(t, tt.buckets, tt.period.Buckets())
			assert.Equal(t, tt.width, tt.period.BucketWidth())
		})
	}
}
