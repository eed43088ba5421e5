package controllers

import (
	"bytes"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"visitd/internal/badges"
	"visitd/internal/boundary"
	"visitd/internal/models"
	"visitd/internal/providers"
	"visitd/internal/regions"
	"visitd/internal/services"
	"visitd/internal/tracker"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// maxBatchSize bounds one POST /samples batch.
const maxBatchSize = 1000

// EventArchiveInterface is the read side of the on-disk event archive.
type EventArchiveInterface interface {
	Months() []string
	Load(month string) (models.EventLog, error)
}

type ApiController struct {
	logger  providers.Logger
	visits  services.VisitServiceInterface
	catalog []badges.Definition
	locator boundary.Locator
	archive EventArchiveInterface
}

// NewApiController wires the HTTP surface. archive may be nil when event
// archiving is disabled.
func NewApiController(logger providers.Logger, visits services.VisitServiceInterface, evaluator badges.EvaluatorInterface, locator boundary.Locator, archive EventArchiveInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		visits:  visits,
		catalog: evaluator.Catalog(),
		locator: locator,
		archive: archive,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func validSample(s models.Sample) bool {
	switch {
	case math.IsNaN(s.Latitude) || math.IsNaN(s.Longitude):
		return false
	case s.Latitude < -90 || s.Latitude > 90:
		return false
	case s.Longitude < -180 || s.Longitude > 180:
		return false
	}
	return !s.Timestamp.IsZero()
}

// ReceiveSamples accepts one sample object or an array of them and returns
// the outcome of each in the same shape.
func (ac *ApiController) ReceiveSamples(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	body = bytes.TrimSpace(body)

	batch := len(body) > 0 && body[0] == '['
	var samples []models.Sample
	if batch {
		err = json.Unmarshal(body, &samples)
	} else {
		var s models.Sample
		err = json.Unmarshal(body, &s)
		samples = []models.Sample{s}
	}
	if err != nil || len(samples) > maxBatchSize {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	for _, s := range samples {
		if !validSample(s) {
			http.Error(w, "Bad Request: sample needs a timestamp and coordinates in range", http.StatusBadRequest)
			return
		}
	}

	results := make([]services.SampleResult, 0, len(samples))
	for _, s := range samples {
		res, err := ac.visits.SubmitSample(r.Context(), s)
		if err != nil {
			ac.logger.Errorf(providers.TypeApi, "Sample rejected: %s", err)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		results = append(results, res)
	}

	if batch {
		writeJSON(w, http.StatusOK, results)
		return
	}
	writeJSON(w, http.StatusOK, results[0])
}

type editRequest struct {
	Region  string `json:"region"`
	Visited bool   `json:"visited"`
}

func (ac *ApiController) EditRegion(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeBody(w, r, &req); err != nil || req.Region == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	rv, err := ac.visits.ApplyManualEdit(r.Context(), req.Region, req.Visited)
	switch {
	case errors.Is(err, tracker.ErrUnknownRegion):
		http.Error(w, "Unknown region", http.StatusNotFound)
		return
	case err != nil:
		ac.logger.Errorf(providers.TypeApi, "Manual edit failed: %s", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

type regionsResponse struct {
	LastUpdated time.Time                     `json:"lastUpdated"`
	Regions     map[string]models.RegionVisit `json:"regions"`
	Active      []string                      `json:"active"`
	EverVisited []string                      `json:"everVisited"`
}

func (ac *ApiController) GetRegions(w http.ResponseWriter, r *http.Request) {
	rs := ac.visits.Records()
	writeJSON(w, http.StatusOK, regionsResponse{
		LastUpdated: rs.LastUpdated,
		Regions:     rs.Regions,
		Active:      rs.Active(),
		EverVisited: rs.EverVisited(),
	})
}

type locateResponse struct {
	Region string `json:"region,omitempty"`
	Found  bool   `json:"found"`
}

// Locate answers a bare point-in-region query: GET /regions/locate?lat=&lon=.
func (ac *ApiController) Locate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		http.Error(w, "Bad Request: lat", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		http.Error(w, "Bad Request: lon", http.StatusBadRequest)
		return
	}
	region, ok := ac.locator.RegionContaining(lat, lon)
	writeJSON(w, http.StatusOK, locateResponse{Region: region, Found: ok})
}

// GetEvents returns the live event log, optionally filtered by region and
// a lower time bound (?region=Utah&since=2024-07-01T00:00:00Z).
func (ac *ApiController) GetEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var since time.Time
	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, "Bad Request: since", http.StatusBadRequest)
			return
		}
		since = t
	}
	region := q.Get("region")

	out := models.EventLog{}
	for _, ev := range ac.visits.Events() {
		if ev.Timestamp.Before(since) {
			continue
		}
		if region != "" && ev.Region != regions.Key(region) {
			continue
		}
		out = append(out, ev)
	}
	writeJSON(w, http.StatusOK, out)
}

type archiveResponse struct {
	Months []string        `json:"months"`
	Month  string          `json:"month,omitempty"`
	Events models.EventLog `json:"events,omitempty"`
}

// GetArchivedEvents lists archived months, or the events of ?month=2006-01.
func (ac *ApiController) GetArchivedEvents(w http.ResponseWriter, r *http.Request) {
	if ac.archive == nil {
		http.Error(w, "Event archive disabled", http.StatusNotFound)
		return
	}
	resp := archiveResponse{Months: ac.archive.Months()}
	if month := r.URL.Query().Get("month"); month != "" {
		events, err := ac.archive.Load(month)
		if err != nil {
			http.Error(w, "Bad Request: month", http.StatusBadRequest)
			return
		}
		resp.Month = month
		resp.Events = events
	}
	writeJSON(w, http.StatusOK, resp)
}

type badgeView struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Kind                string     `json:"kind"`
	Earned              bool       `json:"earned"`
	EarnedAt            *time.Time `json:"earnedAt,omitempty"`
	ContributingRegions []string   `json:"contributingRegions"`
	Viewed              bool       `json:"viewed"`
}

// GetBadges lists the catalog in order with this device's badge state.
func (ac *ApiController) GetBadges(w http.ResponseWriter, r *http.Request) {
	state := ac.visits.Badges()
	out := make([]badgeView, 0, len(ac.catalog))
	for _, def := range ac.catalog {
		b := state[def.ID]
		contributing := b.ContributingRegions
		if contributing == nil {
			contributing = []string{}
		}
		out = append(out, badgeView{
			ID:                  def.ID,
			Title:               def.Title,
			Kind:                def.Kind.String(),
			Earned:              b.Earned,
			EarnedAt:            b.EarnedAt,
			ContributingRegions: contributing,
			Viewed:              b.Viewed,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type viewedRequest struct {
	IDs []string `json:"ids"`
}

type viewedResponse struct {
	Marked []string `json:"marked"`
}

func (ac *ApiController) MarkBadgesViewed(w http.ResponseWriter, r *http.Request) {
	var req viewedRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	marked, err := ac.visits.MarkBadgesViewed(r.Context(), req.IDs)
	if err != nil {
		ac.logger.Errorf(providers.TypeApi, "Mark viewed failed: %s", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	if marked == nil {
		marked = []string{}
	}
	writeJSON(w, http.StatusOK, viewedResponse{Marked: marked})
}

func (ac *ApiController) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.visits.Settings())
}

// UpdateSettings applies a partial update: fields absent from the body keep
// their current values.
func (ac *ApiController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	in := ac.visits.Settings()
	if err := decodeBody(w, r, &in); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	out, err := ac.visits.UpdateSettings(r.Context(), in)
	if err != nil {
		ac.logger.Errorf(providers.TypeApi, "Settings update failed: %s", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
