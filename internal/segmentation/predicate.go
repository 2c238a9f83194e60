package segmentation

import (
	"time"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/domain"
)

// Options tune predicate construction.
type Options struct {
	// EnforceCustomerType makes the new/returning selection a membership
	// constraint. When false the selection is accepted and ignored.
	EnforceCustomerType bool
}

// BirthRange is a half-open birth date interval [From, To). A zero From is
// unbounded.
type BirthRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies in the range.
func (r BirthRange) Contains(t time.Time) bool {
	return (r.From.IsZero() || !t.Before(r.From)) && t.Before(r.To)
}

// CustomerQuery is the store-side part of a predicate: birth ranges joined
// with OR, then AND an optional gender.
type CustomerQuery struct {
	BirthRanges []BirthRange
	Gender      domain.Gender
}

// Predicate is the composed membership test for one criteria selection.
type Predicate struct {
	query        CustomerQuery
	customerType domain.CustomerType
}

// NewPredicate composes criteria into a predicate, resolving age bands
// against ref.
func NewPredicate(c Criteria, ref time.Time, opts Options) (*Predicate, error) {
	c, err := c.normalize()
	if err != nil {
		return nil, err
	}

	p := &Predicate{}
	for _, label := range c.AgeRanges {
		band, err := analytics.LookupAgeBand(label)
		if err != nil {
			return nil, err
		}
		from, to := band.BirthRange(ref)
		p.query.BirthRanges = append(p.query.BirthRanges, BirthRange{From: from, To: to})
	}

	// Selecting both or neither value leaves the category unconstrained.
	if len(c.Genders) == 1 {
		p.query.Gender = c.Genders[0]
	}
	if opts.EnforceCustomerType && len(c.Types) == 1 {
		p.customerType = c.Types[0]
	}
	return p, nil
}

// Query returns the store-side filter.
func (p *Predicate) Query() CustomerQuery { return p.query }

// NeedsOrderCounts reports whether Matches depends on the order count.
func (p *Predicate) NeedsOrderCounts() bool { return p.customerType != "" }

// Matches evaluates every active category against one customer.
func (p *Predicate) Matches(c domain.Customer, orderCount int) bool {
	return p.matchesAge(c) && p.matchesGender(c) && p.matchesType(orderCount)
}

func (p *Predicate) matchesAge(c domain.Customer) bool {
	if len(p.query.BirthRanges) == 0 {
		return true
	}
	if c.DateOfBirth.IsZero() {
		return false
	}
	for _, r := range p.query.BirthRanges {
		if r.Contains(c.DateOfBirth) {
			return true
		}
	}
	return false
}

func (p *Predicate) matchesGender(c domain.Customer) bool {
	return p.query.Gender == "" || c.Gender == p.query.Gender
}

func (p *Predicate) matchesType(orderCount int) bool {
	if p.customerType == "" {
		return true
	}
	t, ok := domain.ClassifyCustomer(orderCount)
	return ok && t == p.customerType
}
