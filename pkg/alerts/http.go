package alerts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sentinela-health/platform/pkg/common/logger"
)

type Handler struct {
	repo      *Repository
	lifecycle *Lifecycle
}

func NewHandler(repo *Repository, lifecycle *Lifecycle) *Handler {
	return &Handler{repo: repo, lifecycle: lifecycle}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/alerts", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id}/acknowledge", h.handleAcknowledge).Methods(http.MethodPost)
	r.HandleFunc("/alerts/{id}/resolve", h.handleResolve).Methods(http.MethodPost)
	r.HandleFunc("/alerts/{id}/reactivate", h.handleReactivate).Methods(http.MethodPost)
}

type listResponse struct {
	Summary map[string]int `json:"summary"`
	Items   []Alert        `json:"items"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := reviewerFrom(r)
	if !ok {
		http.Error(w, "missing reviewer identity", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	limit := parseLimit(r, 50)

	items, err := h.repo.ListByReviewer(r.Context(), reviewerID, state, limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list alerts")
		http.Error(w, "failed to list alerts", http.StatusInternalServerError)
		return
	}

	summary, err := h.repo.SeveritySummary(r.Context(), reviewerID)
	if err != nil {
		logger.Log.WithError(err).Error("failed to summarize alerts")
		http.Error(w, "failed to list alerts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Summary: summary, Items: items})
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID, reviewerID uint) (*Alert, error) {
		return h.lifecycle.Acknowledge(r.Context(), id, reviewerID)
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID, reviewerID uint) (*Alert, error) {
		return h.lifecycle.Resolve(r.Context(), id, reviewerID)
	})
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID, reviewerID uint) (*Alert, error) {
		return h.lifecycle.Reactivate(r.Context(), id)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(uuid.UUID, uint) (*Alert, error)) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return
	}

	reviewerID, ok := reviewerFrom(r)
	if !ok {
		http.Error(w, "missing reviewer identity", http.StatusBadRequest)
		return
	}

	// Only the alert's reviewer may transition it.
	existing, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to load alert")
		http.Error(w, "failed to load alert", http.StatusInternalServerError)
		return
	}
	if existing.ReviewerID != reviewerID {
		http.Error(w, "alert belongs to another reviewer", http.StatusForbidden)
		return
	}

	alert, err := fn(id, reviewerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "alert not found", http.StatusNotFound)
		case errors.Is(err, ErrAlreadyAcknowledged),
			errors.Is(err, ErrAlreadyResolved),
			errors.Is(err, ErrNotResolved):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.Log.WithError(err).WithField("alert_id", id).Error("alert transition failed")
			http.Error(w, "alert transition failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"alert": alert})
}

// reviewerFrom reads the reviewer identity resolved by the deployment's
// auth layer, which sits in front of this service.
func reviewerFrom(r *http.Request) (uint, bool) {
	raw := r.Header.Get("X-Reviewer-ID")
	if raw == "" {
		raw = r.URL.Query().Get("reviewer_id")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
