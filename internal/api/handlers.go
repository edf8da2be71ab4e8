package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/signalfold/triage-engine/internal/anomaly"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/services"
	"github.com/signalfold/triage-engine/internal/utils"
)

// StateSource exposes the anomaly detector's per-bucket statistics.
type StateSource interface {
	Snapshot() []anomaly.BucketView
}

// RunSource exposes the most recent pipeline run and batch statistics.
type RunSource interface {
	LastRun() (models.PipelineRunRecord, bool)
	Stats() services.BatchStats
}

// Handlers bundles the ops endpoints over their data sources.
type Handlers struct {
	logger *slog.Logger
	state  StateSource
	runs   RunSource
}

// NewHandlers constructs the handler set.
func NewHandlers(logger *slog.Logger, state StateSource, runs RunSource) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{logger: logger, state: state, runs: runs}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AnomalyState returns the EWMA bucket statistics.
func (h *Handlers) AnomalyState(w http.ResponseWriter, r *http.Request) {
	if h.state == nil {
		h.writeError(w, http.StatusServiceUnavailable, utils.NewAppError("api.anomaly_state", "detector not configured", nil))
		return
	}
	buckets := h.state.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"buckets": buckets,
		"count":   len(buckets),
	})
}

// LastRun returns the record of the most recently completed batch.
func (h *Handlers) LastRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, http.StatusServiceUnavailable, utils.NewAppError("api.last_run", "runner not configured", nil))
		return
	}
	record, ok := h.runs.LastRun()
	if !ok {
		h.writeError(w, http.StatusNotFound, utils.NewAppError("api.last_run", "no batch has completed yet", nil))
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// Stats returns batch latency percentiles.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, http.StatusServiceUnavailable, utils.NewAppError("api.stats", "runner not configured", nil))
		return
	}
	h.writeJSON(w, http.StatusOK, h.runs.Stats())
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("write response failed", slog.Any("error", err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
