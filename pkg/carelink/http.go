package carelink

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sentinela-health/platform/pkg/common/logger"
)

// LinkStore is the surface the handler needs; *Repository satisfies it.
type LinkStore interface {
	Revoke(ctx context.Context, linkID uint, reason string) error
}

// Handler exposes link revocation. Revoking a link drops the pair out of
// the weekly batch and deactivates its processing consent; the row stays
// for audit.
type Handler struct {
	store LinkStore
}

func NewHandler(store LinkStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/care-links/{id}/revoke", h.handleRevoke).Methods(http.MethodPost)
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	linkID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid link id", http.StatusBadRequest)
		return
	}

	var req revokeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.store.Revoke(r.Context(), uint(linkID), req.Reason); err != nil {
		logger.Log.WithError(err).WithField("link_id", linkID).Error("failed to revoke care link")
		http.Error(w, "failed to revoke care link", http.StatusInternalServerError)
		return
	}

	logger.Log.WithField("link_id", linkID).Info("care link revoked")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": StatusRevoked}); err != nil {
		logger.Log.WithError(err).Error("failed to encode revoke response")
	}
}
