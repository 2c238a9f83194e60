package analytics

import (
	"math/rand"
	"testing"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	product string
	units   float64
}

func lineKey(l line) string { return l.product }
func lineUnits(l line) float64 { return l.units }

func TestTopN(t *testing.T) {
	lines := []line{
		{"tea", 2}, {"coffee", 5}, {"tea", 4}, {"cocoa", 1}, {"juice", 3},
	}

	got := TopN(lines, lineKey, lineUnits, 3)

	assert.Equal(t, []domain.ChartItem{
		{Label: "tea", Value: 6},
		{Label: "coffee", Value: 5},
		{Label: "juice", Value: 3},
	}, got)
}

func TestTopN_TiesKeepFirstSeenOrder(t *testing.T) {
	lines := []line{{"b", 1}, {"a", 1}, {"c", 2}, {"a", 0}}

	got := TopN(lines, lineKey, lineUnits, 10)

	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Label)
	assert.Equal(t, "b", got[1].Label)
	assert.Equal(t, "a", got[2].Label)
}

func TestTopN_DoesNotMutateInput(t *testing.T) {
	lines := []line{{"x", 1}, {"y", 9}, {"z", 5}}
	snapshot := append([]line(nil), lines...)

	TopN(lines, lineKey, lineUnits, 2)

	assert.Equal(t, snapshot, lines)
}

func TestTopN_PermutationInvariant(t *testing.T) {
	lines := []line{
		{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}, {"a", 10}, {"c", 0.5}, {"e", 7},
	}
	want := TopN(lines, lineKey, lineUnits, 4)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]line(nil), lines...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, TopN(shuffled, lineKey, lineUnits, 4))
	}
}

func TestTopN_Empty(t *testing.T) {
	assert.Empty(t, TopN[line](nil, lineKey, lineUnits, 5))
}

func TestTopN_NonPositiveLimit(t *testing.T) {
	lines := []line{{"a", 1}, {"b", 2}}

	for _, n := range []int{0, -1} {
		got := TopN(lines, lineKey, lineUnits, n)
		assert.NotNil(t, got)
		assert.Empty(t, got, "n=%d", n)
	}
}

func TestCountBy(t *testing.T) {
	orders := []domain.Order{
		{PaymentMethod: "card"}, {PaymentMethod: "paypal"}, {PaymentMethod: "card"},
	}
	got := CountBy(orders, func(o domain.Order) string { return o.PaymentMethod })

	assert.Equal(t, []domain.ChartItem{
		{Label: "card", Value: 2},
		{Label: "paypal", Value: 1},
	}, got)
}

func TestCountBy_KeepsEveryGroup(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "a"}
	got := CountBy(keys, func(s string) string { return s })

	require.Len(t, got, 7)
	assert.Equal(t, domain.ChartItem{Label: "a", Value: 2}, got[0])
	assert.Equal(t, "b", got[1].Label)
}
