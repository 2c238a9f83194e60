package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/export"
	"github.com/ignite/commerce-insights/internal/segmentation"
	"github.com/ignite/commerce-insights/internal/service/campaign"
	"github.com/ignite/commerce-insights/internal/service/dashboard"
	"github.com/ignite/commerce-insights/internal/service/segment"
)

// DashboardService computes the dashboard views.
type DashboardService interface {
	Overview(ctx context.Context, p analytics.Period, ref time.Time) (*dashboard.Overview, error)
	Customers(ctx context.Context, ref time.Time) (*dashboard.CustomerInsights, error)
}

// SegmentService manages persisted segments.
type SegmentService interface {
	Create(ctx context.Context, in segment.CreateInput, ref time.Time) (*domain.Segment, error)
	Preview(ctx context.Context, c segmentation.Criteria, ref time.Time) (int, error)
	Get(ctx context.Context, id string) (*domain.Segment, error)
	List(ctx context.Context) ([]domain.Segment, error)
	Update(ctx context.Context, id string, u segment.UpdateFields) error
	Delete(ctx context.Context, id string) error
	Members(ctx context.Context, id string) ([]domain.Customer, error)
}

// CampaignService manages campaigns.
type CampaignService interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error)
	Create(ctx context.Context, in campaign.CreateInput) (*domain.Campaign, error)
	Update(ctx context.Context, id string, u campaign.UpdateFields) error
	Delete(ctx context.Context, id string) error
}

// Exporter uploads segment member files and lists past uploads.
type Exporter interface {
	Upload(ctx context.Context, s *domain.Segment, members []domain.Customer) (*export.Manifest, error)
	Manifests(ctx context.Context, segmentID string) ([]export.Manifest, error)
}

// Deps are the services the handlers delegate to. Exporter may be nil when
// S3 export is disabled.
type Deps struct {
	Dashboard DashboardService
	Segments  SegmentService
	Campaigns CampaignService
	Exporter  Exporter

	// Reference pins "now" for every computation. Zero means the clock.
	Reference time.Time
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	dashboard DashboardService
	segments  SegmentService
	campaigns CampaignService
	exporter  Exporter
	reference time.Time
	now       func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		dashboard: d.Dashboard,
		segments:  d.Segments,
		campaigns: d.Campaigns,
		exporter:  d.Exporter,
		reference: d.Reference,
		now:       time.Now,
	}
}

// referenceTime resolves the instant computations are anchored to: the
// ref query parameter (date or RFC3339), then the configured reference,
// then the clock.
func (h *Handlers) referenceTime(r *http.Request) (time.Time, error) {
	if raw := r.URL.Query().Get("ref"); raw != "" {
		if t, err := time.Parse(time.DateOnly, raw); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("ref must be YYYY-MM-DD or RFC3339, got %q", raw)
		}
		return t.UTC(), nil
	}
	if !h.reference.IsZero() {
		return h.reference, nil
	}
	return h.now().UTC(), nil
}
