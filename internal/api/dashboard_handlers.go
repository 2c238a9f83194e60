package api

import (
	"net/http"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/pkg/httputil"
)

type periodOption struct {
	Key   analytics.Period `json:"key"`
	Label string           `json:"label"`
}

// GetPeriods lists the selectable dashboard periods.
//
//	GET /api/dashboard/periods
func (h *Handlers) GetPeriods(w http.ResponseWriter, r *http.Request) {
	periods := analytics.Periods()
	out := make([]periodOption, 0, len(periods))
	for _, p := range periods {
		out = append(out, periodOption{Key: p, Label: p.Label()})
	}
	httputil.OK(w, out)
}

// GetOverview returns totals, growth, revenue series and rankings.
//
//	GET /api/dashboard/overview?period=30d&ref=2024-10-23
func (h *Handlers) GetOverview(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		raw = string(analytics.Last30Days)
	}
	period, err := analytics.ParsePeriod(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := h.referenceTime(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	overview, err := h.dashboard.Overview(r.Context(), period, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, overview)
}

// GetCustomerInsights returns the customer distributions.
//
//	GET /api/dashboard/customers
func (h *Handlers) GetCustomerInsights(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceTime(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	insights, err := h.dashboard.Customers(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, insights)
}
