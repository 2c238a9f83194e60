package postgres

import (
	"fmt"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter. Read repositories
// take one so the same queries can run against a warehouse driver.
type Placeholder func(n int) string

// Dollar renders PostgreSQL-style $n parameters.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question renders positional ? parameters.
func Question(int) string { return "?" }

// args accumulates bind values and hands out placeholders in order.
type args struct {
	ph   Placeholder
	vals []interface{}
}

func (a *args) add(v interface{}) string {
	a.vals = append(a.vals, v)
	return a.ph(len(a.vals))
}

// where joins conditions with AND, or returns "" when there are none.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
