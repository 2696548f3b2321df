package orchestrator

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sentinela-health/platform/pkg/common/logger"
	"github.com/sentinela-health/platform/pkg/common/models"
)

// Handler exposes the batch entry points as administrative triggers. They
// run the same code paths as the scheduled ticks and are safe to invoke
// while a tick is in flight.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/jobs/entry-batch", h.handleEntryBatch).Methods(http.MethodPost)
	r.HandleFunc("/jobs/weekly-insights", h.handleWeeklyInsights).Methods(http.MethodPost)
}

func (h *Handler) handleEntryBatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunEntryBatch(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("manual entry batch failed")
		http.Error(w, "entry batch failed", http.StatusInternalServerError)
		return
	}
	writeResult(w, result)
}

func (h *Handler) handleWeeklyInsights(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunWeeklyInsights(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("manual weekly batch failed")
		http.Error(w, "weekly batch failed", http.StatusInternalServerError)
		return
	}
	writeResult(w, result)
}

func writeResult(w http.ResponseWriter, result models.ProcessingResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Log.WithError(err).Warn("failed to encode job result")
	}
}
