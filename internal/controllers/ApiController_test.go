package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitd/internal/badges"
	"visitd/internal/detection"
	"visitd/internal/models"
	"visitd/internal/providers"
	"visitd/internal/services"
	"visitd/internal/tracker"
)

// --- local mocks (scoped to controller tests) ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type editCall struct {
	region  string
	visited bool
}

type mockVisits struct {
	samples   []models.Sample
	edits     []editCall
	viewed    []string
	settings  models.Settings
	records   models.RecordSet
	events    models.EventLog
	badges    models.BadgeSet
	submitErr error
}

func (m *mockVisits) SubmitSample(_ context.Context, s models.Sample) (services.SampleResult, error) {
	if m.submitErr != nil {
		return services.SampleResult{}, m.submitErr
	}
	m.samples = append(m.samples, s)
	return services.SampleResult{
		Accepted:  true,
		Detection: detection.Detection{Region: "Nevada", Method: detection.MethodPrimary},
	}, nil
}

func (m *mockVisits) ApplyManualEdit(_ context.Context, region string, visited bool) (models.RegionVisit, error) {
	if region == "Atlantis" {
		return models.RegionVisit{}, eris.Wrap(tracker.ErrUnknownRegion, "region Atlantis")
	}
	m.edits = append(m.edits, editCall{region, visited})
	return models.RegionVisit{Edited: true, IsActive: visited}, nil
}

func (m *mockVisits) MarkBadgesViewed(_ context.Context, ids []string) ([]string, error) {
	m.viewed = append(m.viewed, ids...)
	return ids, nil
}

func (m *mockVisits) UpdateSettings(_ context.Context, s models.Settings) (models.Settings, error) {
	s.LastUpdated = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.settings = s
	return s, nil
}

func (m *mockVisits) Reconcile(_ context.Context, _ models.RemoteState) (models.State, error) {
	return models.State{}, nil
}
func (m *mockVisits) Restore(_ context.Context, _ models.State) error { return nil }
func (m *mockVisits) Records() models.RecordSet                       { return m.records }
func (m *mockVisits) Events() models.EventLog                         { return m.events }
func (m *mockVisits) Badges() models.BadgeSet                         { return m.badges }
func (m *mockVisits) Settings() models.Settings                       { return m.settings }
func (m *mockVisits) LocalState() models.State                        { return models.State{} }
func (m *mockVisits) Stop()                                           {}

type mockLocator struct{}

func (mockLocator) RegionContaining(lat, lon float64) (string, bool) {
	if lat > 35 && lat < 42 && lon > -120 && lon < -114 {
		return "Nevada", true
	}
	return "", false
}

type mockArchive struct {
	events map[string]models.EventLog
}

func (m *mockArchive) Months() []string {
	out := make([]string, 0, len(m.events))
	for k := range m.events {
		out = append(out, k)
	}
	return out
}

func (m *mockArchive) Load(month string) (models.EventLog, error) {
	if len(month) != 7 {
		return nil, eris.New("bad month")
	}
	return m.events[month], nil
}

// --- helpers ---

var when = time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)

func newTestController(visits *mockVisits) *ApiController {
	return NewApiController(&mockLogger{}, visits, badges.NewEvaluator(badges.DefaultCatalog(), nil), mockLocator{}, nil)
}

func do(handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// --- samples ---

func TestReceiveSamples_Single(t *testing.T) {
	visits := &mockVisits{}
	ac := newTestController(visits)

	rr := do(ac.ReceiveSamples, http.MethodPost, "/samples",
		`{"latitude":39.5,"longitude":-117,"horizontalAccuracy":5,"timestamp":"2024-07-04T12:00:00Z"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.Len(t, visits.samples, 1)
	assert.Equal(t, when, visits.samples[0].Timestamp)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, true, res["accepted"])
}

func TestReceiveSamples_Batch(t *testing.T) {
	visits := &mockVisits{}
	ac := newTestController(visits)

	rr := do(ac.ReceiveSamples, http.MethodPost, "/samples", `[
		{"latitude":39.5,"longitude":-117,"timestamp":"2024-07-04T12:00:00Z"},
		{"latitude":40,"longitude":-111,"timestamp":"2024-07-04T13:00:00Z"}
	]`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, visits.samples, 2)
	var res []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Len(t, res, 2)
}

func TestReceiveSamples_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"not json":          `{"latitude":`,
		"empty":             ``,
		"missing timestamp": `{"latitude":39.5,"longitude":-117}`,
		"latitude range":    `{"latitude":95,"longitude":-117,"timestamp":"2024-07-04T12:00:00Z"}`,
		"bad batch entry":   `[{"latitude":39.5,"longitude":-117,"timestamp":"2024-07-04T12:00:00Z"},{"latitude":1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			visits := &mockVisits{}
			rr := do(newTestController(visits).ReceiveSamples, http.MethodPost, "/samples", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, visits.samples, "a bad batch is rejected as a whole")
		})
	}
}

func TestReceiveSamples_OversizedBody(t *testing.T) {
	body := `{"latitude":1,"pad":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	rr := do(newTestController(&mockVisits{}).ReceiveSamples, http.MethodPost, "/samples", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReceiveSamples_ServiceStopped(t *testing.T) {
	visits := &mockVisits{submitErr: services.ErrServiceStopped}
	rr := do(newTestController(visits).ReceiveSamples, http.MethodPost, "/samples",
		`{"latitude":39.5,"longitude":-117,"timestamp":"2024-07-04T12:00:00Z"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// --- regions ---

func TestEditRegion(t *testing.T) {
	visits := &mockVisits{}
	ac := newTestController(visits)

	rr := do(ac.EditRegion, http.MethodPost, "/regions/edit", `{"region":"Utah","visited":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []editCall{{"Utah", true}}, visits.edits)

	rr = do(ac.EditRegion, http.MethodPost, "/regions/edit", `{"region":"Atlantis","visited":true}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(ac.EditRegion, http.MethodPost, "/regions/edit", `{"visited":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetRegions(t *testing.T) {
	rs := models.NewRecordSet()
	rs.Regions["Nevada"] = models.RegionVisit{Visited: true, WasEverVisited: true, IsActive: true}
	rs.Regions["Utah"] = models.RegionVisit{Edited: true, WasEverVisited: false, IsActive: false}
	ac := newTestController(&mockVisits{records: rs})

	rr := do(ac.GetRegions, http.MethodGet, "/regions", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp regionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Nevada"}, resp.Active)
	assert.Equal(t, []string{"Nevada"}, resp.EverVisited)
	assert.Len(t, resp.Regions, 2)
}

func TestLocate(t *testing.T) {
	ac := newTestController(&mockVisits{})

	rr := do(ac.Locate, http.MethodGet, "/regions/locate?lat=39.5&lon=-117", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"region":"Nevada","found":true}`, rr.Body.String())

	rr = do(ac.Locate, http.MethodGet, "/regions/locate?lat=0&lon=0", "")
	assert.JSONEq(t, `{"found":false}`, rr.Body.String())

	rr = do(ac.Locate, http.MethodGet, "/regions/locate?lat=abc&lon=0", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(ac.Locate, http.MethodGet, "/regions/locate?lat=1&lon=200", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- events ---

func TestGetEvents_Filters(t *testing.T) {
	visits := &mockVisits{events: models.EventLog{
		{Region: "Nevada", Timestamp: when, Source: models.SourceGPS},
		{Region: "Utah", Timestamp: when.Add(time.Hour), Source: models.SourceGPS},
		{Region: "Nevada", Timestamp: when.Add(2 * time.Hour), Source: models.SourceManual},
	}}
	ac := newTestController(visits)

	var out models.EventLog
	rr := do(ac.GetEvents, http.MethodGet, "/events", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 3)

	rr = do(ac.GetEvents, http.MethodGet, "/events?region=nv", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 2)

	rr = do(ac.GetEvents, http.MethodGet, "/events?since=2024-07-04T12:30:00Z", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 2)

	rr = do(ac.GetEvents, http.MethodGet, "/events?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetEvents_EmptyIsArray(t *testing.T) {
	rr := do(newTestController(&mockVisits{}).GetEvents, http.MethodGet, "/events", "")
	assert.Equal(t, "[]", rr.Body.String())
}

func TestGetArchivedEvents(t *testing.T) {
	ac := newTestController(&mockVisits{})
	rr := do(ac.GetArchivedEvents, http.MethodGet, "/events/archive", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	ac.archive = &mockArchive{events: map[string]models.EventLog{
		"2024-06": {{Region: "Ohio", Timestamp: when.AddDate(0, -1, 0), Source: models.SourceGPS}},
	}}
	rr = do(ac.GetArchivedEvents, http.MethodGet, "/events/archive", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"months":["2024-06"]}`, rr.Body.String())

	rr = do(ac.GetArchivedEvents, http.MethodGet, "/events/archive?month=2024-06", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp archiveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2024-06", resp.Month)
	assert.Len(t, resp.Events, 1)

	rr = do(ac.GetArchivedEvents, http.MethodGet, "/events/archive?month=June", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- badges ---

func TestGetBadges_CatalogOrder(t *testing.T) {
	visits := &mockVisits{badges: models.BadgeSet{
		"states-1": {ID: "states-1", Earned: true, EarnedAt: &when, ContributingRegions: []string{"Nevada"}},
	}}
	rr := do(newTestController(visits).GetBadges, http.MethodGet, "/badges", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var out []badgeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, len(badges.DefaultCatalog()))
	assert.Equal(t, "states-1", out[0].ID)
	assert.True(t, out[0].Earned)
	assert.Equal(t, "threshold", out[0].Kind)
	assert.False(t, out[1].Earned)
	assert.NotNil(t, out[1].ContributingRegions)
}

func TestMarkBadgesViewed(t *testing.T) {
	visits := &mockVisits{}
	ac := newTestController(visits)

	rr := do(ac.MarkBadgesViewed, http.MethodPost, "/badges/viewed", `{"ids":["states-1"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"marked":["states-1"]}`, rr.Body.String())
	assert.Equal(t, []string{"states-1"}, visits.viewed)

	rr = do(ac.MarkBadgesViewed, http.MethodPost, "/badges/viewed", `{"ids":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- settings ---

func TestSettings(t *testing.T) {
	visits := &mockVisits{settings: models.DefaultSettings()}
	ac := newTestController(visits)

	rr := do(ac.GetSettings, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Settings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 100.0, got.SpeedThresholdMph)

	rr = do(ac.UpdateSettings, http.MethodPost, "/settings", `{"speedThresholdMph":65,"notifyOnNewRegion":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 65.0, visits.settings.SpeedThresholdMph)
	assert.False(t, visits.settings.NotifyOnNewRegion)
	assert.Equal(t, models.DefaultSettings().FillColor, visits.settings.FillColor, "omitted fields keep their values")

	rr = do(ac.UpdateSettings, http.MethodPost, "/settings", `[]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
