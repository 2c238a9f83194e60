package analytics

import (
	"fmt"
	"time"

	"github.com/ignite/commerce-insights/internal/domain"
)

// AgeBand is a labelled inclusive age range. Max < 0 means open-ended.
type AgeBand struct {
	Label string
	Min   int
	Max   int
}

// AgeBands are the fixed classification bands, youngest first.
var AgeBands = []AgeBand{
	{"0-17", 0, 17},
	{"18-24", 18, 24},
	{"25-34", 25, 34},
	{"35-44", 35, 44},
	{"45-54", 45, 54},
	{"55-64", 55, 64},
	{"65+", 65, -1},
}

// LookupAgeBand finds a band by label.
func LookupAgeBand(label string) (AgeBand, error) {
	for _, b := range AgeBands {
		if b.Label == label {
			return b, nil
		}
	}
	return AgeBand{}, fmt.Errorf("unknown age band %q", label)
}

// Contains reports whether age falls in the band.
func (b AgeBand) Contains(age int) bool {
	return age >= b.Min && (b.Max < 0 || age <= b.Max)
}

// BirthRange returns the half-open birth date range [from, to) of people
// whose age on ref's calendar day falls in the band. from is the zero time
// for the open-ended band.
func (b AgeBand) BirthRange(ref time.Time) (from, to time.Time) {
	to = anniversaryEnd(ref, b.Min)
	if b.Max >= 0 {
		from = anniversaryEnd(ref, b.Max+1)
	}
	return from, to
}

// Age is the number of whole years between birth and ref.
func Age(birth, ref time.Time) int {
	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return years
}

// BandFor returns the band holding age; ok is false for negative ages.
func BandFor(age int) (band AgeBand, ok bool) {
	for _, b := range AgeBands {
		if b.Contains(age) {
			return b, true
		}
	}
	return AgeBand{}, false
}

// ClassifyAges counts birth dates per band as of ref. All bands are
// returned in order, empty ones with 0. Birth dates after ref are skipped.
func ClassifyAges(birthDates []time.Time, ref time.Time) []domain.ChartItem {
	counts := make(map[string]int, len(AgeBands))
	for _, bd := range birthDates {
		if bd.IsZero() || bd.After(ref) {
			continue
		}
		if b, ok := BandFor(Age(bd, ref)); ok {
			counts[b.Label]++
		}
	}

	out := make([]domain.ChartItem, len(AgeBands))
	for i, b := range AgeBands {
		out[i] = domain.ChartItem{Label: b.Label, Value: float64(counts[b.Label])}
	}
	return out
}

// anniversaryEnd is the first birth date for which a person is not yet
// years old on ref's calendar day.
func anniversaryEnd(ref time.Time, years int) time.Time {
	y, m, d := ref.Date()
	t := time.Date(y-years, m, d, 0, 0, 0, 0, ref.Location())
	if t.Month() != m {
		// Feb 29 in a common year rolled over to Mar 1.
		return t
	}
	return t.AddDate(0, 0, 1)
}
