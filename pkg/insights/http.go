package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sentinela-health/platform/pkg/common/logger"
)

// HistorySource is the read surface the handler needs; *Repository
// satisfies it.
type HistorySource interface {
	History(ctx context.Context, subjectID uint, limit int) ([]WeeklyInsight, error)
}

// Handler exposes a subject's insight history, newest first.
type Handler struct {
	source HistorySource
}

func NewHandler(source HistorySource) *Handler {
	return &Handler{source: source}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/insights", h.handleHistory).Methods(http.MethodGet)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseUint(r.URL.Query().Get("subject_id"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid subject_id", http.StatusBadRequest)
		return
	}

	limit := 12
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history, err := h.source.History(r.Context(), uint(subjectID), limit)
	if err != nil {
		logger.Log.WithError(err).WithField("subject_id", subjectID).Error("failed to load insight history")
		http.Error(w, "failed to load insight history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"insights": history}); err != nil {
		logger.Log.WithError(err).Error("failed to encode insight history")
	}
}
