package segmentation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/commerce-insights/internal/domain"
)

// CustomerSource is the read side of the customer store.
type CustomerSource interface {
	// FindCustomers returns customers matching the query.
	FindCustomers(ctx context.Context, q CustomerQuery) ([]domain.Customer, error)

	// OrderCounts returns the number of orders per customer for customers
	// matching the query. Customers without orders may be absent.
	OrderCounts(ctx context.Context, q CustomerQuery) (map[string]int, error)
}

// Engine resolves criteria into customer ids.
type Engine struct {
	source CustomerSource
	opts   Options
}

// NewEngine creates an engine reading from source.
func NewEngine(source CustomerSource, opts Options) *Engine {
	return &Engine{source: source, opts: opts}
}

// Resolve returns the ids of customers matching criteria as of ref, in
// first-seen order and without duplicates. Any store failure is reported
// as ErrFetch and no partial result is returned.
func (e *Engine) Resolve(ctx context.Context, c Criteria, ref time.Time) ([]string, error) {
	pred, err := NewPredicate(c, ref, e.opts)
	if err != nil {
		return nil, err
	}

	var (
		customers []domain.Customer
		counts    map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = e.source.FindCustomers(gctx, pred.Query())
		if err != nil {
			return fmt.Errorf("%w: customers: %w", ErrFetch, err)
		}
		return nil
	})
	if pred.NeedsOrderCounts() {
		g.Go(func() error {
			var err error
			counts, err = e.source.OrderCounts(gctx, pred.Query())
			if err != nil {
				return fmt.Errorf("%w: order counts: %w", ErrFetch, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Members(customers, counts, pred), nil
}

// Members filters customers through the predicate and deduplicates by id.
func Members(customers []domain.Customer, counts map[string]int, pred *Predicate) []string {
	seen := make(map[string]struct{}, len(customers))
	ids := make([]string, 0, len(customers))
	for _, c := range customers {
		if _, dup := seen[c.CustomerID]; dup {
			continue
		}
		if !pred.Matches(c, counts[c.CustomerID]) {
			continue
		}
		seen[c.CustomerID] = struct{}{}
		ids = append(ids, c.CustomerID)
	}
	return ids
}
