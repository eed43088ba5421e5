package controllers

import (
	"errors"
	"net/http"

	"visitd/internal/providers"
	"visitd/internal/services"
)

type SyncController struct {
	logger providers.Logger
	sync   services.SyncServiceInterface
}

func NewSyncController(logger providers.Logger, sync services.SyncServiceInterface) *SyncController {
	return &SyncController{logger: logger, sync: sync}
}

// Sync runs (or joins) a sync and reports the resulting status. A failed
// sync answers 502 with the status body; local state is unchanged.
func (sc *SyncController) Sync(w http.ResponseWriter, r *http.Request) {
	status, err := sc.sync.Sync(r.Context())
	switch {
	case errors.Is(err, services.ErrSyncDisabled):
		http.Error(w, "Sync is not configured", http.StatusConflict)
	case err != nil:
		sc.logger.Warnf(providers.TypeApi, "Sync request failed: %s", err)
		writeJSON(w, http.StatusBadGateway, status)
	default:
		writeJSON(w, http.StatusOK, status)
	}
}

func (sc *SyncController) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sc.sync.Status())
}
