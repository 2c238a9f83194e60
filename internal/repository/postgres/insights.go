package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/commerce-insights/internal/domain"
)

// InsightsRepo reads reviews and model outputs used by the customer
// dashboard.
type InsightsRepo struct {
	db *sql.DB
}

// NewInsightsRepo creates an insights repository.
func NewInsightsRepo(db *sql.DB) *InsightsRepo {
	return &InsightsRepo{db: db}
}

func (r *InsightsRepo) ListReviews(ctx context.Context) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT COALESCE(customer_id,''), rating FROM reviews`)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.CustomerID, &rv.Rating); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *InsightsRepo) ListPredictions(ctx context.Context) ([]domain.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT customer_id, COALESCE(predicted_lifetime_value,0), COALESCE(churn_probability,0)
		FROM customer_predictions`)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		var p domain.Prediction
		if err := rows.Scan(&p.CustomerID, &p.LifetimeValue, &p.ChurnProbability); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *InsightsRepo) ListAffinities(ctx context.Context) ([]domain.Affinity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pa.customer_id, p.name, pa.affinity_score
		FROM product_affinities pa
		JOIN products p ON p.product_id = pa.product_id`)
	if err != nil {
		return nil, fmt.Errorf("list affinities: %w", err)
	}
	defer rows.Close()

	var out []domain.Affinity
	for rows.Next() {
		var a domain.Affinity
		if err := rows.Scan(&a.CustomerID, &a.ProductName, &a.Score); err != nil {
			return nil, fmt.Errorf("scan affinity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
