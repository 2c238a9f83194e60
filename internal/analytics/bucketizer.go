package analytics

import (
	"math"
	"time"

	"github.com/ignite/commerce-insights/internal/domain"
)

// DefaultBucketCount is the histogram resolution used by the dashboards.
const DefaultBucketCount = 20

// Histogram distributes values over bucketCount equal-width buckets spanning
// [0, maxValue]. Buckets are half-open except the last, which also holds
// maxValue and anything above it. A bucketCount <= 0 falls back to
// DefaultBucketCount and a maxValue <= 0 to the largest value. Empty input
// yields an empty slice.
func Histogram(values []float64, bucketCount int, maxValue float64) []domain.HistogramBucket {
	if len(values) == 0 {
		return []domain.HistogramBucket{}
	}
	if bucketCount <= 0 {
		bucketCount = DefaultBucketCount
	}
	if maxValue <= 0 {
		maxValue = maxOf(values)
	}

	size := maxValue / float64(bucketCount)
	counts := make([]int, bucketCount)
	for _, v := range values {
		counts[bucketIndex(v, size, bucketCount)]++
	}

	total := float64(len(values))
	out := make([]domain.HistogramBucket, bucketCount)
	for i, c := range counts {
		out[i] = domain.HistogramBucket{
			BucketStart: float64(i) * size,
			BucketEnd:   float64(i+1) * size,
			Percentage:  float64(c) / total * 100,
		}
	}
	return out
}

func bucketIndex(v, size float64, count int) int {
	if size <= 0 || v <= 0 || math.IsNaN(v) {
		return 0
	}
	// Compare as float: huge quotients overflow the int conversion.
	q := v / size
	if q >= float64(count) || math.IsInf(q, 1) {
		return count - 1
	}
	if q < 0 || math.IsNaN(q) {
		return 0
	}
	return int(q)
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// TimeBuckets sums amounts into the period's fixed number of equal-width
// intervals ending at anchor. Interval i covers
// [anchor-(n-i)*w, anchor-(n-i-1)*w). Every interval is emitted, empty ones
// with a zero sum, and records outside the span are ignored.
func TimeBuckets[T any](records []T, p Period, anchor time.Time, tsFn func(T) time.Time, amountFn func(T) float64) []domain.RevenuePoint {
	n, w := p.Buckets(), p.BucketWidth()
	if n == 0 || w <= 0 {
		return []domain.RevenuePoint{}
	}

	start := anchor.Add(-time.Duration(n) * w)
	out := make([]domain.RevenuePoint, n)
	for i := range out {
		out[i].Date = start.Add(time.Duration(i) * w)
	}

	for _, r := range records {
		ts := tsFn(r)
		if ts.Before(start) || !ts.Before(anchor) {
			continue
		}
		i := int(ts.Sub(start) / w)
		if i >= n {
			i = n - 1
		}
		out[i].Revenue += amountFn(r)
	}
	return out
}

// LatestAnchor returns the latest timestamp among records, independent of
// input order. ok is false for empty input.
func LatestAnchor[T any](records []T, tsFn func(T) time.Time) (anchor time.Time, ok bool) {
	for _, r := range records {
		if ts := tsFn(r); !ok || ts.After(anchor) {
			anchor, ok = ts, true
		}
	}
	return anchor, ok
}
