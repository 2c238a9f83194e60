package analytics

import (
	"sort"

	"github.com/ignite/commerce-insights/internal/domain"
)

// TopN groups records by keyFn, sums metricFn per group and returns the n
// largest groups in descending order. Groups with equal sums keep the order
// in which they were first seen. A non-positive n returns an empty slice. The
// input slice is not modified.
func TopN[T any](records []T, keyFn func(T) string, metricFn func(T) float64, n int) []domain.ChartItem {
	if n <= 0 {
		return []domain.ChartItem{}
	}
	return rank(records, keyFn, metricFn, n)
}

// CountBy counts records per key, largest first.
func CountBy[T any](records []T, keyFn func(T) string) []domain.ChartItem {
	return rank(records, keyFn, func(T) float64 { return 1 }, -1)
}

// rank groups and sorts; a negative limit keeps every group.
func rank[T any](records []T, keyFn func(T) string, metricFn func(T) float64, limit int) []domain.ChartItem {
	var order []string
	sums := make(map[string]float64)
	for _, r := range records {
		k := keyFn(r)
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += metricFn(r)
	}

	items := make([]domain.ChartItem, len(order))
	for i, k := range order {
		items[i] = domain.ChartItem{Label: k, Value: sums[k]}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Value > items[j].Value
	})

	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
