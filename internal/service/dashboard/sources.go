package dashboard

import (
	"context"

	"github.com/ignite/commerce-insights/internal/domain"
)

// OrderReader reads orders, order lines and channels.
type OrderReader interface {
	ListOrders(ctx context.Context, w domain.TimeWindow) ([]domain.Order, error)
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
	ListOrderItems(ctx context.Context, w domain.TimeWindow) ([]domain.OrderItem, error)
	ListChannels(ctx context.Context) ([]domain.Channel, error)
}

// CustomerReader reads customer records.
type CustomerReader interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}

// InsightsReader reads reviews and model outputs.
type InsightsReader interface {
	ListReviews(ctx context.Context) ([]domain.Review, error)
	ListPredictions(ctx context.Context) ([]domain.Prediction, error)
	ListAffinities(ctx context.Context) ([]domain.Affinity, error)
}

// Sources groups the readers a Service draws from. PostgreSQL and Snowflake
// both provide all three.
type Sources struct {
	Orders    OrderReader
	Customers CustomerReader
	Insights  InsightsReader
}
