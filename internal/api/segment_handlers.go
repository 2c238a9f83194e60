package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/export"
	"github.com/ignite/commerce-insights/internal/pkg/httputil"
	"github.com/ignite/commerce-insights/internal/pkg/logger"
	"github.com/ignite/commerce-insights/internal/segmentation"
	"github.com/ignite/commerce-insights/internal/service/segment"
)

// SegmentOptions lists the values the segment builder offers.
type SegmentOptions struct {
	AgeRanges []string              `json:"age_ranges"`
	Genders   []domain.Gender       `json:"genders"`
	Types     []domain.CustomerType `json:"types"`
}

// GetSegmentOptions returns the selectable criteria values.
//
//	GET /api/segments/options
func (h *Handlers) GetSegmentOptions(w http.ResponseWriter, r *http.Request) {
	opts := SegmentOptions{
		Genders: []domain.Gender{domain.GenderMale, domain.GenderFemale},
		Types:   []domain.CustomerType{domain.CustomerNew, domain.CustomerReturning},
	}
	for _, b := range analytics.AgeBands {
		opts.AgeRanges = append(opts.AgeRanges, b.Label)
	}
	httputil.OK(w, opts)
}

// ListSegments returns every segment with its member count.
//
//	GET /api/segments
func (h *Handlers) ListSegments(w http.ResponseWriter, r *http.Request) {
	segs, err := h.segments.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if segs == nil {
		segs = []domain.Segment{}
	}
	httputil.OK(w, map[string]interface{}{"segments": segs, "count": len(segs)})
}

// PreviewSegment counts the customers matching criteria without saving.
//
//	POST /api/segments/preview
func (h *Handlers) PreviewSegment(w http.ResponseWriter, r *http.Request) {
	var c segmentation.Criteria
	if !httputil.Decode(w, r, &c) {
		return
	}
	ref, err := h.referenceTime(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	n, err := h.segments.Preview(r.Context(), c, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, map[string]int{"member_count": n})
}

// CreateSegment resolves criteria and persists the segment with its members.
//
//	POST /api/segments
func (h *Handlers) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var in segment.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	ref, err := h.referenceTime(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	seg, err := h.segments.Create(r.Context(), in, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.Created(w, seg)
}

// GetSegment returns a single segment.
//
//	GET /api/segments/{id}
func (h *Handlers) GetSegment(w http.ResponseWriter, r *http.Request) {
	seg, err := h.segments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, seg)
}

// UpdateSegment changes name and description.
//
//	PATCH /api/segments/{id}
func (h *Handlers) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var u segment.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	if err := h.segments.Update(r.Context(), id, u); err != nil {
		writeError(w, r, err)
		return
	}

	seg, err := h.segments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httputil.OK(w, seg)
}

// DeleteSegment removes a segment and its membership. Answers 409 with the
// referencing campaign ids while campaigns still use it.
//
//	DELETE /api/segments/{id}
func (h *Handlers) DeleteSegment(w http.ResponseWriter, r *http.Request) {
	if err := h.segments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// ListSegmentMembers returns the customers in a segment.
//
//	GET /api/segments/{id}/members
func (h *Handlers) ListSegmentMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.segments.Members(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if members == nil {
		members = []domain.Customer{}
	}
	httputil.OK(w, map[string]interface{}{"members": members, "count": len(members)})
}

// DownloadSegmentCSV streams the segment members as CSV.
//
//	GET /api/segments/{id}/export.csv
func (h *Handlers) DownloadSegmentCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	members, err := h.segments.Members(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.Attachment(w, "text/csv; charset=utf-8", "segment-"+id+".csv")
	if _, err := export.WriteCSV(w, members); err != nil {
		// Headers are already sent.
		logger.Error("segment csv stream failed", "segment_id", id, "error", err)
	}
}

// ExportSegment uploads the segment members to S3 and records a manifest.
//
//	POST /api/segments/{id}/exports
func (h *Handlers) ExportSegment(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httputil.Error(w, http.StatusNotImplemented, "export is not configured")
		return
	}
	id := chi.URLParam(r, "id")

	seg, err := h.segments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := h.segments.Members(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	manifest, err := h.exporter.Upload(r.Context(), seg, members)
	if err != nil {
		if manifest == nil {
			writeError(w, r, err)
			return
		}
		// The object is stored; only the manifest record failed.
		httputil.JSON(w, http.StatusCreated, map[string]interface{}{
			"manifest": manifest,
			"warning":  "export uploaded but manifest was not recorded",
		})
		return
	}
	httputil.Created(w, map[string]interface{}{"manifest": manifest})
}

// ListSegmentExports returns past uploads, newest first.
//
//	GET /api/segments/{id}/exports
func (h *Handlers) ListSegmentExports(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httputil.Error(w, http.StatusNotImplemented, "export is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.segments.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	manifests, err := h.exporter.Manifests(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if manifests == nil {
		manifests = []export.Manifest{}
	}
	httputil.OK(w, map[string]interface{}{"exports": manifests, "count": len(manifests)})
}
