package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/pkg/httputil"
	"github.com/ignite/commerce-insights/internal/service/campaign"
)

// ListCampaigns returns a page of campaigns, optionally filtered by segment
// or channel.
//
//	GET /api/campaigns?segment_id=&channel_id=&page=&limit=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r, defaultPageLimit, maxPageLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	campaigns, total, err := h.campaigns.List(r.Context(), campaign.ListFilter{
		SegmentID: q.Get("segment_id"),
		ChannelID: q.Get("channel_id"),
		Limit:     p.Limit,
		Offset:    p.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	httputil.OK(w, NewPaginatedResponse(campaigns, p, total))
}

// CreateCampaign validates and persists a campaign.
//
//	POST /api/campaigns
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.campaigns.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.Created(w, c)
}

// GetCampaign returns a single campaign.
//
//	GET /api/campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, c)
}

// UpdateCampaign applies a partial update and returns the stored campaign.
//
//	PATCH /api/campaigns/{id}
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var u campaign.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	if err := h.campaigns.Update(r.Context(), id, u); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, c)
}

// DeleteCampaign removes a campaign.
//
//	DELETE /api/campaigns/{id}
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	httputil.NoContent(w)
}
