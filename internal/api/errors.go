package api

import (
	"errors"
	"net/http"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/pkg/httputil"
	"github.com/ignite/commerce-insights/internal/pkg/logger"
	"github.com/ignite/commerce-insights/internal/segmentation"
	"github.com/ignite/commerce-insights/internal/service/campaign"
	"github.com/ignite/commerce-insights/internal/service/dashboard"
	"github.com/ignite/commerce-insights/internal/service/segment"
)

// =============================================================================
// ERROR SANITIZER
// Maps service errors onto HTTP statuses. Client errors keep their message;
// 5xx responses get a generic message and the full error is logged
// server-side.
// =============================================================================

// writeError classifies err and writes the matching JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *segment.ConflictError
	switch {
	case errors.As(err, &conflict):
		httputil.ErrorWithDetails(w, http.StatusConflict,
			"segment is referenced by campaigns", "segment_in_use",
			map[string]interface{}{"segment_id": conflict.SegmentID, "campaign_ids": conflict.CampaignIDs})

	case errors.Is(err, segment.ErrCreateInProgress):
		httputil.Conflict(w, err.Error())

	case errors.Is(err, segment.ErrNotFound), errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, err.Error())

	case errors.Is(err, segmentation.ErrInvalidCriteria),
		errors.Is(err, segment.ErrInvalidInput),
		errors.Is(err, campaign.ErrInvalidInput),
		errors.Is(err, campaign.ErrUnknownSegment),
		errors.Is(err, campaign.ErrUnknownChannel),
		errors.Is(err, analytics.ErrUnknownPeriod):
		httputil.BadRequest(w, err.Error())

	case errors.Is(err, segmentation.ErrFetch), errors.Is(err, dashboard.ErrFetch):
		logger.Error("data source failure", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.Error(w, http.StatusBadGateway, "upstream data source unavailable")

	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
