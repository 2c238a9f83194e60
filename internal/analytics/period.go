package analytics

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownPeriod is returned by ParsePeriod for unsupported input.
var ErrUnknownPeriod = errors.New("unknown period")

// Period is a selectable dashboard time range.
type Period string

const (
	Last24Hours Period = "24h"
	Last7Days   Period = "7d"
	Last30Days  Period = "30d"
	Last90Days  Period = "90d"
	Last365Days Period = "365d"
)

const day = 24 * time.Hour

type periodSpec struct {
	label   string
	length  time.Duration
	buckets int
	width   time.Duration
}

var periodSpecs = map[Period]periodSpec{
	Last24Hours: {"Last 24 hours", day, 24, time.Hour},
	Last7Days:   {"Last 7 days", 7 * day, 7, day},
	Last30Days:  {"Last 30 days", 30 * day, 30, day},
	Last90Days:  {"Last 90 days", 90 * day, 90, day},
	Last365Days: {"Last 365 days", 365 * day, 12, 30 * day},
}

// Periods lists all supported periods, shortest first.
func Periods() []Period {
	return []Period{Last24Hours, Last7Days, Last30Days, Last90Days, Last365Days}
}

// ParsePeriod accepts a period key ("7d") or its display label
// ("Last 7 days").
func ParsePeriod(s string) (Period, error) {
	if _, ok := periodSpecs[Period(s)]; ok {
		return Period(s), nil
	}
	for p, spec := range periodSpecs {
		if spec.label == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Valid reports whether p is a supported period.
func (p Period) Valid() bool {
	_, ok := periodSpecs[p]
	return ok
}

// Label is the human readable name of the period.
func (p Period) Label() string { return periodSpecs[p].label }

// Length is the duration covered by one window of the period.
func (p Period) Length() time.Duration { return periodSpecs[p].length }

// Buckets is the number of time-series intervals for the period.
func (p Period) Buckets() int { return periodSpecs[p].buckets }

// BucketWidth is the width of one time-series interval.
func (p Period) BucketWidth() time.Duration { return periodSpecs[p].width }
