package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/segmentation"
)

// CustomerRepo reads customers and their order counts. It implements
// segmentation.CustomerSource.
type CustomerRepo struct {
	db *sql.DB
	ph Placeholder
}

// NewCustomerRepo creates a customer repository using ph for parameters.
func NewCustomerRepo(db *sql.DB, ph Placeholder) *CustomerRepo {
	return &CustomerRepo{db: db, ph: ph}
}

// customerFilter renders the query as SQL conditions on alias c.
func customerFilter(q segmentation.CustomerQuery, a *args) []string {
	var conds []string
	if len(q.BirthRanges) > 0 {
		ors := make([]string, 0, len(q.BirthRanges))
		for _, r := range q.BirthRanges {
			if r.From.IsZero() {
				ors = append(ors, fmt.Sprintf("c.date_of_birth < %s", a.add(r.To)))
				continue
			}
			ors = append(ors, fmt.Sprintf("(c.date_of_birth >= %s AND c.date_of_birth < %s)", a.add(r.From), a.add(r.To)))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if q.Gender != "" {
		conds = append(conds, "c.gender = "+a.add(string(q.Gender)))
	}
	return conds
}

// FindCustomers returns customers matching q ordered by id.
func (r *CustomerRepo) FindCustomers(ctx context.Context, q segmentation.CustomerQuery) ([]domain.Customer, error) {
	a := &args{ph: r.ph}
	query := `
		SELECT c.customer_id, COALESCE(c.name,''), COALESCE(c.phone,''), COALESCE(c.email,''),
		       COALESCE(c.gender,''), c.date_of_birth
		FROM customers c` + where(customerFilter(q, a)) + `
		ORDER BY c.customer_id`

	rows, err := r.db.QueryContext(ctx, query, a.vals...)
	if err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var (
			c   domain.Customer
			dob sql.NullTime
		)
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Phone, &c.Email, &c.Gender, &dob); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		if dob.Valid {
			c.DateOfBirth = dob.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// OrderCounts returns the number of orders per customer matching q.
func (r *CustomerRepo) OrderCounts(ctx context.Context, q segmentation.CustomerQuery) (map[string]int, error) {
	a := &args{ph: r.ph}
	query := `
		SELECT o.customer_id, COUNT(*)
		FROM orders o
		JOIN customers c ON c.customer_id = o.customer_id` + where(customerFilter(q, a)) + `
		GROUP BY o.customer_id`

	rows, err := r.db.QueryContext(ctx, query, a.vals...)
	if err != nil {
		return nil, fmt.Errorf("order counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan order count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ListCustomers returns every customer ordered by id.
func (r *CustomerRepo) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return r.FindCustomers(ctx, segmentation.CustomerQuery{})
}
