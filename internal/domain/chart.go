package domain

import (
	"fmt"
	"time"
)

// ChartItem is a single labelled value for categorical charts.
type ChartItem struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// HistogramBucket is one bar of a value-distribution chart.
type HistogramBucket struct {
	BucketStart float64 `json:"bucket_start"`
	BucketEnd   float64 `json:"bucket_end"`
	Percentage  float64 `json:"percentage"`
}

// RevenuePoint is one interval of a revenue time series, keyed by the
// interval start.
type RevenuePoint struct {
	Date    time.Time `json:"date"`
	Revenue float64   `json:"revenue"`
}

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow returns a window, rejecting an end before the start.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if end.Before(start) {
		return TimeWindow{}, fmt.Errorf("time window end %s before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Contains reports whether t lies in [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
