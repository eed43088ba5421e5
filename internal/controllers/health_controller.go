package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"visitd/internal/providers"
	"visitd/internal/services"
)

type HealthController struct {
	visits    services.VisitServiceInterface
	sync      services.SyncServiceInterface
	cache     providers.CacheProviderInterface
	startTime time.Time
}

type healthResponse struct {
	Status         string  `json:"status"`
	Uptime         string  `json:"uptime"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	RegionsVisited int     `json:"regions_visited"`
	Events         int     `json:"events"`
	Sync           string  `json:"sync"`

	BoundaryCache providers.CacheStats `json:"boundary_cache"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:         "ok",
		Uptime:         formatDuration(uptime),
		UptimeSeconds:  uptime.Seconds(),
		RegionsVisited: len(hc.visits.Records().EverVisited()),
		Events:         len(hc.visits.Events()),
		Sync:           hc.sync.Status().State,
		BoundaryCache:  hc.cache.Stats(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(visits services.VisitServiceInterface, sync services.SyncServiceInterface, cache providers.CacheProviderInterface) *HealthController {
	return &HealthController{
		visits:    visits,
		sync:      sync,
		cache:     cache,
		startTime: time.Now(),
	}
}
