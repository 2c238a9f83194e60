package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/cache"
	"github.com/ignite/commerce-insights/internal/domain"
)

// affinityProducts caps how many products get an affinity histogram.
const affinityProducts = 10

// ProductAffinity is the affinity score distribution (0-100) for one
// product.
type ProductAffinity struct {
	Product   string                   `json:"product"`
	Total     float64                  `json:"total"`
	Histogram []domain.HistogramBucket `json:"histogram"`
}

// CustomerInsights describes the whole customer base as of a reference
// instant.
type CustomerInsights struct {
	Reference          time.Time                `json:"reference"`
	TotalCustomers     int                      `json:"total_customers"`
	Types              []domain.ChartItem       `json:"types"`
	Genders            []domain.ChartItem       `json:"genders"`
	Ages               []domain.ChartItem       `json:"ages"`
	Reviews            []domain.ChartItem       `json:"reviews"`
	PaymentMethods     []domain.ChartItem       `json:"payment_methods"`
	Discounts          []domain.HistogramBucket `json:"discounts"`
	LifetimeValues     []domain.HistogramBucket `json:"lifetime_values"`
	ChurnProbabilities []domain.HistogramBucket `json:"churn_probabilities"`
	Affinities         []ProductAffinity        `json:"affinities"`
}

// Customers builds the customer insight view. Ages are computed against ref.
func (s *Service) Customers(ctx context.Context, ref time.Time) (*CustomerInsights, error) {
	ref = cacheRef(ref)
	key := cache.Key("customers", refKey(ref))
	return cached(ctx, s, key, func() (*CustomerInsights, error) {
		start := time.Now()
		defer observe("customers", "all", start)
		return s.buildCustomers(ctx, ref)
	})
}

func (s *Service) buildCustomers(ctx context.Context, ref time.Time) (*CustomerInsights, error) {
	var (
		customers   []domain.Customer
		orders      []domain.Order
		reviews     []domain.Review
		predictions []domain.Prediction
		affinities  []domain.Affinity
	)
	err := runGroup(ctx,
		func(ctx context.Context) (err error) {
			if customers, err = s.src.Customers.ListCustomers(ctx); err != nil {
				return fetchErr("customers", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			if orders, err = s.src.Orders.ListAllOrders(ctx); err != nil {
				return fetchErr("orders", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			if reviews, err = s.src.Insights.ListReviews(ctx); err != nil {
				return fetchErr("reviews", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			if predictions, err = s.src.Insights.ListPredictions(ctx); err != nil {
				return fetchErr("predictions", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			if affinities, err = s.src.Insights.ListAffinities(ctx); err != nil {
				return fetchErr("affinities", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	buckets := s.opts.HistogramBuckets

	births := make([]time.Time, 0, len(customers))
	for _, c := range customers {
		births = append(births, c.DateOfBirth)
	}

	discounts := make([]float64, len(orders))
	for i, o := range orders {
		discounts[i] = o.DiscountPercent()
	}

	ltv := make([]float64, len(predictions))
	churn := make([]float64, len(predictions))
	for i, p := range predictions {
		ltv[i] = p.LifetimeValue
		churn[i] = p.ChurnProbability * 100
	}

	return &CustomerInsights{
		Reference:      ref,
		TotalCustomers: len(customers),
		Types:          customerTypes(orders),
		Genders:        genders(customers),
		Ages:           analytics.ClassifyAges(births, ref),
		Reviews:        reviewCounts(reviews),
		PaymentMethods: chartOrEmpty(analytics.CountBy(orders, func(o domain.Order) string {
			if o.PaymentMethod == "" {
				return "Unknown"
			}
			return o.PaymentMethod
		})),
		Discounts:          analytics.Histogram(discounts, buckets, 0),
		LifetimeValues:     analytics.Histogram(ltv, buckets, 0),
		ChurnProbabilities: analytics.Histogram(churn, buckets, 100),
		Affinities:         productAffinities(affinities, buckets),
	}, nil
}

// customerTypes counts customers with exactly one order as new and with
// more as returning.
func customerTypes(orders []domain.Order) []domain.ChartItem {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[o.CustomerID]++
	}
	var newCount, returning float64
	for _, n := range counts {
		switch t, _ := domain.ClassifyCustomer(n); t {
		case domain.CustomerNew:
			newCount++
		case domain.CustomerReturning:
			returning++
		}
	}
	return []domain.ChartItem{
		{Label: "New", Value: newCount},
		{Label: "Returning", Value: returning},
	}
}

func genders(customers []domain.Customer) []domain.ChartItem {
	labels := []string{"Males", "Females", "Other"}
	counts := make(map[string]float64, len(labels))
	for _, c := range customers {
		switch c.Gender {
		case domain.GenderMale:
			counts["Males"]++
		case domain.GenderFemale:
			counts["Females"]++
		default:
			counts["Other"]++
		}
	}
	out := []domain.ChartItem{}
	for _, l := range labels {
		if counts[l] > 0 {
			out = append(out, domain.ChartItem{Label: l, Value: counts[l]})
		}
	}
	return out
}

// reviewCounts counts reviews per star rating, highest rating first.
func reviewCounts(reviews []domain.Review) []domain.ChartItem {
	counts := make(map[int]float64)
	for _, r := range reviews {
		counts[r.Rating]++
	}
	ratings := make([]int, 0, len(counts))
	for r := range counts {
		ratings = append(ratings, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ratings)))

	out := make([]domain.ChartItem, 0, len(ratings))
	for _, r := range ratings {
		label := strings.Repeat("★", max(r, 0))
		out = append(out, domain.ChartItem{Label: label, Value: counts[r]})
	}
	return out
}

// productAffinities builds a 0-100 histogram for the products with the
// largest summed affinity.
func productAffinities(affinities []domain.Affinity, buckets int) []ProductAffinity {
	product := func(a domain.Affinity) string { return a.ProductName }
	top := analytics.TopN(affinities, product, func(a domain.Affinity) float64 { return a.Score * 100 }, affinityProducts)

	scores := make(map[string][]float64, len(top))
	for _, a := range affinities {
		scores[a.ProductName] = append(scores[a.ProductName], a.Score*100)
	}

	out := make([]ProductAffinity, 0, len(top))
	for _, item := range top {
		out = append(out, ProductAffinity{
			Product:   item.Label,
			Total:     item.Value,
			Histogram: analytics.Histogram(scores[item.Label], buckets, 100),
		})
	}
	return out
}
