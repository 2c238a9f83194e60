package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/commerce-insights/internal/analytics"
	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/export"
	"github.com/ignite/commerce-insights/internal/segmentation"
	"github.com/ignite/commerce-insights/internal/service/campaign"
	"github.com/ignite/commerce-insights/internal/service/dashboard"
	"github.com/ignite/commerce-insights/internal/service/segment"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeDashboard struct {
	err       error
	gotPeriod analytics.Period
	gotRef    time.Time
}

func (f *fakeDashboard) Overview(_ context.Context, p analytics.Period, ref time.Time) (*dashboard.Overview, error) {
	f.gotPeriod, f.gotRef = p, ref
	if f.err != nil {
		return nil, f.err
	}
	return &dashboard.Overview{Period: p, Label: p.Label(), Reference: ref}, nil
}

func (f *fakeDashboard) Customers(_ context.Context, ref time.Time) (*dashboard.CustomerInsights, error) {
	f.gotRef = ref
	if f.err != nil {
		return nil, f.err
	}
	return &dashboard.CustomerInsights{Reference: ref, TotalCustomers: 3}, nil
}

type fakeSegments struct {
	segments  map[string]*domain.Segment
	members   map[string][]domain.Customer
	createErr error
	deleteErr error
	previewN  int
	gotRef    time.Time
}

func newFakeSegments() *fakeSegments {
	return &fakeSegments{
		segments: map[string]*domain.Segment{
			"s1": {ID: "s1", Name: "Young women", MemberCount: 2},
		},
		members: map[string][]domain.Customer{
			"s1": {
				{CustomerID: "c1", Name: "Ana", Phone: "555-0101", Email: "ana@example.com", Gender: "F",
					DateOfBirth: time.Date(2001, 3, 4, 0, 0, 0, 0, time.UTC)},
				{CustomerID: "c2", Name: "Bea", Gender: "F"},
			},
		},
	}
}

func (f *fakeSegments) Create(_ context.Context, in segment.CreateInput, ref time.Time) (*domain.Segment, error) {
	f.gotRef = ref
	if f.createErr != nil {
		return nil, f.createErr
	}
	if err := in.Criteria.Validate(); err != nil {
		return nil, err
	}
	s := &domain.Segment{ID: "s2", Name: in.Name, MemberCount: 4}
	f.segments[s.ID] = s
	return s, nil
}

func (f *fakeSegments) Preview(_ context.Context, c segmentation.Criteria, ref time.Time) (int, error) {
	f.gotRef = ref
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return f.previewN, nil
}

func (f *fakeSegments) Get(_ context.Context, id string) (*domain.Segment, error) {
	s, ok := f.segments[id]
	if !ok {
		return nil, segment.ErrNotFound
	}
	return s, nil
}

func (f *fakeSegments) List(context.Context) ([]domain.Segment, error) {
	var out []domain.Segment
	for _, s := range f.segments {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSegments) Update(_ context.Context, id string, u segment.UpdateFields) error {
	s, ok := f.segments[id]
	if !ok {
		return segment.ErrNotFound
	}
	if u.Name != nil {
		s.Name = *u.Name
	}
	return nil
}

func (f *fakeSegments) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.segments[id]; !ok {
		return segment.ErrNotFound
	}
	delete(f.segments, id)
	return nil
}

func (f *fakeSegments) Members(_ context.Context, id string) ([]domain.Customer, error) {
	if _, ok := f.segments[id]; !ok {
		return nil, segment.ErrNotFound
	}
	return f.members[id], nil
}

type fakeCampaigns struct {
	campaigns map[string]*domain.Campaign
	gotFilter campaign.ListFilter
	total     int
}

func (f *fakeCampaigns) Get(_ context.Context, id string) (*domain.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	return c, nil
}

func (f *fakeCampaigns) List(_ context.Context, filter campaign.ListFilter) ([]domain.Campaign, int, error) {
	f.gotFilter = filter
	var out []domain.Campaign
	for _, c := range f.campaigns {
		out = append(out, *c)
	}
	return out, f.total, nil
}

func (f *fakeCampaigns) Create(_ context.Context, in campaign.CreateInput) (*domain.Campaign, error) {
	if in.SegmentID == "missing" {
		return nil, campaign.ErrUnknownSegment
	}
	c := &domain.Campaign{ID: "k2", Name: in.Name, Budget: in.Budget}
	f.campaigns[c.ID] = c
	return c, nil
}

func (f *fakeCampaigns) Update(_ context.Context, id string, u campaign.UpdateFields) error {
	c, ok := f.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	if u.Budget != nil {
		c.Budget = *u.Budget
	}
	return nil
}

func (f *fakeCampaigns) Delete(_ context.Context, id string) error {
	if _, ok := f.campaigns[id]; !ok {
		return campaign.ErrNotFound
	}
	delete(f.campaigns, id)
	return nil
}

type fakeExporter struct {
	manifestErr error
	uploaded    []domain.Customer
}

func (f *fakeExporter) Upload(_ context.Context, s *domain.Segment, members []domain.Customer) (*export.Manifest, error) {
	f.uploaded = members
	m := &export.Manifest{SegmentID: s.ID, Bucket: "exports", Key: "segments/" + s.ID + "/x.csv", Rows: len(members)}
	if f.manifestErr != nil {
		return m, f.manifestErr
	}
	return m, nil
}

func (f *fakeExporter) Manifests(_ context.Context, segmentID string) ([]export.Manifest, error) {
	return []export.Manifest{{SegmentID: segmentID, Rows: 2}}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("warehouse suspended") }

// =============================================================================
// SETUP
// =============================================================================

var testRef = time.Date(2024, 10, 23, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	router    http.Handler
	dash      *fakeDashboard
	segments  *fakeSegments
	campaigns *fakeCampaigns
	exporter  *fakeExporter
}

func setupTestHandlers(t *testing.T, withExporter bool) *testEnv {
	t.Helper()
	env := &testEnv{
		dash:     &fakeDashboard{},
		segments: newFakeSegments(),
		campaigns: &fakeCampaigns{campaigns: map[string]*domain.Campaign{
			"k1": {ID: "k1", Name: "Autumn sale", Budget: 500},
		}, total: 1},
	}
	deps := Deps{
		Dashboard: env.dash,
		Segments:  env.segments,
		Campaigns: env.campaigns,
		Reference: testRef,
	}
	if withExporter {
		env.exporter = &fakeExporter{}
		deps.Exporter = env.exporter
	}
	env.router = SetupRoutes(NewHandlers(deps), NewHealthChecker(nil, nil, nil, "", nil), []string{"http://localhost:5173"})
	return env
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp, "uptime")
	assert.Len(t, resp["checks"], 4)

	rec = do(t, env.router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decode(t, rec)["status"])

	rec = do(t, env.router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["ready"])
}

func TestHealthCheck_WarehouseDownIsDegraded(t *testing.T) {
	hc := NewHealthChecker(nil, nil, nil, "", failingPinger{})
	rec := httptest.NewRecorder()
	hc.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, true, resp["ready"])
}

func TestDetermineOverallStatus(t *testing.T) {
	assert.Equal(t, "unhealthy", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "down", Message: "ping failed: refused"},
	}))
	assert.Equal(t, "healthy", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "up"},
		"export":   {Status: "down", Message: notConfigured},
	}))
	assert.Equal(t, "degraded", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "up"},
		"redis":    {Status: "degraded"},
	}))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "42s", formatUptime(42*time.Second))
	assert.Equal(t, "2m 5s", formatUptime(125*time.Second))
	assert.Equal(t, "1d 1h 0m 0s", formatUptime(25*time.Hour))
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestGetPeriods(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodGet, "/api/dashboard/periods", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var periods []periodOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &periods))
	require.Len(t, periods, 5)
	assert.Equal(t, analytics.Last24Hours, periods[0].Key)
	assert.Equal(t, analytics.Last365Days, periods[4].Key)
}

func TestGetOverview_DefaultsAndConfiguredReference(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodGet, "/api/dashboard/overview", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.Last30Days, env.dash.gotPeriod)
	assert.Equal(t, testRef, env.dash.gotRef)
}

func TestGetOverview_RefParameter(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodGet, "/api/dashboard/overview?period=7d&ref=2024-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.Last7Days, env.dash.gotPeriod)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), env.dash.gotRef)

	rec = do(t, env.router, http.MethodGet, "/api/dashboard/overview?ref=2024-01-15T12:30:00%2B02:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), env.dash.gotRef)
}

func TestGetOverview_BadInput(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodGet, "/api/dashboard/overview?period=2w", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, env.router, http.MethodGet, "/api/dashboard/overview?ref=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOverview_FetchFailureIsBadGateway(t *testing.T) {
	env := setupTestHandlers(t, false)
	env.dash.err = fmt.Errorf("%w: orders: %w", dashboard.ErrFetch, errors.New("pq: connection refused"))

	rec := do(t, env.router, http.MethodGet, "/api/dashboard/overview?period=7d", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestGetCustomerInsights(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodGet, "/api/dashboard/customers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["total_customers"])
}

// =============================================================================
// SEGMENTS
// =============================================================================

func TestGetSegmentOptions(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodGet, "/api/segments/options", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var opts SegmentOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"0-17", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}, opts.AgeRanges)
	assert.Equal(t, []domain.Gender{"M", "F"}, opts.Genders)
}

func TestCreateSegment(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodPost, "/api/segments", map[string]interface{}{
		"name":     "Millennials",
		"criteria": map[string]interface{}{"age_ranges": []string{"25-34", "35-44"}},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Millennials", decode(t, rec)["name"])
	assert.Equal(t, testRef, env.segments.gotRef)
}

func TestCreateSegment_Errors(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		body      interface{}
		want      int
	}{
		{"malformed json", nil, "not-an-object", http.StatusBadRequest},
		{"unknown band", nil, map[string]interface{}{
			"name": "x", "criteria": map[string]interface{}{"age_ranges": []string{"100-120"}},
		}, http.StatusBadRequest},
		{"fetch failure", fmt.Errorf("%w: customers: timeout", segmentation.ErrFetch),
			map[string]interface{}{"name": "x"}, http.StatusBadGateway},
		{"concurrent create", segment.ErrCreateInProgress,
			map[string]interface{}{"name": "x"}, http.StatusConflict},
		{"blank name", fmt.Errorf("%w: name is required", segment.ErrInvalidInput),
			map[string]interface{}{"name": " "}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestHandlers(t, false)
			env.segments.createErr = tt.createErr
			rec := do(t, env.router, http.MethodPost, "/api/segments", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestPreviewSegment(t *testing.T) {
	env := setupTestHandlers(t, false)
	env.segments.previewN = 17

	rec := do(t, env.router, http.MethodPost, "/api/segments/preview?ref=2024-06-01",
		map[string]interface{}{"genders": []string{"female"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 17, decode(t, rec)["member_count"])
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), env.segments.gotRef)
}

func TestUpdateSegment(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodPatch, "/api/segments/s1", map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode(t, rec)["name"])

	rec = do(t, env.router, http.MethodPatch, "/api/segments/nope", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSegment(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodDelete, "/api/segments/s1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, env.router, http.MethodDelete, "/api/segments/s1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSegment_ReferencedByCampaigns(t *testing.T) {
	env := setupTestHandlers(t, false)
	env.segments.deleteErr = fmt.Errorf("delete segment: %w",
		&segment.ConflictError{SegmentID: "s1", CampaignIDs: []string{"k1", "k7"}})

	rec := do(t, env.router, http.MethodDelete, "/api/segments/s1", nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "segment_in_use", resp["code"])
	details := resp["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"k1", "k7"}, details["campaign_ids"])
	assert.Contains(t, env.segments.segments, "s1")
}

func TestListSegmentMembers(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodGet, "/api/segments/s1/members", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	rec = do(t, env.router, http.MethodGet, "/api/segments/nope/members", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadSegmentCSV(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodGet, "/api/segments/s1/export.csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="segment-s1.csv"`)

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"customer_id", "name", "phone", "email", "gender", "date_of_birth"}, rows[0])
	assert.Equal(t, []string{"c1", "Ana", "555-0101", "ana@example.com", "F", "2001-03-04"}, rows[1])
}

func TestExportSegment(t *testing.T) {
	env := setupTestHandlers(t, true)

	rec := do(t, env.router, http.MethodPost, "/api/segments/s1/exports", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	manifest := decode(t, rec)["manifest"].(map[string]interface{})
	assert.EqualValues(t, 2, manifest["rows"])
	assert.Len(t, env.exporter.uploaded, 2)

	rec = do(t, env.router, http.MethodGet, "/api/segments/s1/exports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
}

func TestExportSegment_ManifestFailureStillCreated(t *testing.T) {
	env := setupTestHandlers(t, true)
	env.exporter.manifestErr = errors.New("dynamodb throttled")

	rec := do(t, env.router, http.MethodPost, "/api/segments/s1/exports", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, decode(t, rec), "warning")
}

func TestExportSegment_NotConfigured(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodPost, "/api/segments/s1/exports", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

func TestListCampaigns_Pagination(t *testing.T) {
	env := setupTestHandlers(t, false)
	env.campaigns.total = 120

	rec := do(t, env.router, http.MethodGet, "/api/campaigns?page=3&limit=50&segment_id=s1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, campaign.ListFilter{SegmentID: "s1", Limit: 50, Offset: 100}, env.campaigns.gotFilter)
	meta := decode(t, rec)["pagination"].(map[string]interface{})
	assert.EqualValues(t, 3, meta["total_pages"])
	assert.Equal(t, false, meta["has_more"])
}

func TestListCampaigns_BadPage(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodGet, "/api/campaigns?page=two", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCampaign_UnknownSegment(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodPost, "/api/campaigns", map[string]interface{}{
		"name": "Winter", "segment_id": "missing", "budget": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteCampaign(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodPatch, "/api/campaigns/k1", map[string]float64{"budget": 750})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 750, decode(t, rec)["budget"])

	rec = do(t, env.router, http.MethodDelete, "/api/campaigns/k1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, env.router, http.MethodGet, "/api/campaigns/k1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ROUTING
// =============================================================================

func TestCORSHeaders(t *testing.T) {
	env := setupTestHandlers(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/segments", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestHandlers(t, false)
	rec := do(t, env.router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReferenceTime_FallsBackToClock(t *testing.T) {
	h := NewHandlers(Deps{})
	fixed := time.Date(2025, 2, 1, 8, 0, 0, 0, time.FixedZone("X", 3600))
	h.now = func() time.Time { return fixed }

	got, err := h.referenceTime(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fixed.UTC(), got)
}

func TestDecode_RejectsUnknownFieldsAndEmptyBody(t *testing.T) {
	env := setupTestHandlers(t, false)

	rec := do(t, env.router, http.MethodPost, "/api/segments", map[string]interface{}{"name": "x", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, env.router, http.MethodPost, "/api/campaigns", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body is required")
}
