package consent

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sentinela-health/platform/pkg/common/logger"
)

// AuditSource is the read surface the handler needs; *Repository satisfies it.
type AuditSource interface {
	AuditTrail(ctx context.Context, subjectID uint, limit int) ([]AuditEntry, error)
}

// Handler exposes the consent audit trail for compliance review.
type Handler struct {
	source AuditSource
}

func NewHandler(source AuditSource) *Handler {
	return &Handler{source: source}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/consent/{subjectId}/audit", h.handleAuditTrail).Methods(http.MethodGet)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseUint(mux.Vars(r)["subjectId"], 10, 64)
	if err != nil {
		http.Error(w, "invalid subject id", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.source.AuditTrail(r.Context(), uint(subjectID), limit)
	if err != nil {
		logger.Log.WithError(err).WithField("subject_id", subjectID).Error("failed to load consent audit trail")
		http.Error(w, "failed to load audit trail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"entries": entries}); err != nil {
		logger.Log.WithError(err).Error("failed to encode audit trail")
	}
}
