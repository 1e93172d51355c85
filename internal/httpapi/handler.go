// Package httpapi exposes read-only batch status and history over HTTP,
// plus a retry trigger.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crobles/tunegrab/internal/logger"
	"github.com/crobles/tunegrab/internal/service"
)

const defaultHistoryLimit = 50

type Handler struct {
	Service *service.Service
	Logger  *logger.Logger
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Service: svc,
		Logger:  logger.Default().WithComponent("httpapi"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/status", h.GetStatus)
	r.Get("/api/failed", h.GetFailed)
	r.Get("/api/history", h.GetHistory)
	r.Get("/api/stats", h.GetStats)
	r.Post("/api/retry", h.PostRetry)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Service.Status())
}

func (h *Handler) GetFailed(w http.ResponseWriter, r *http.Request) {
	failed := h.Service.Registry().Load()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(failed),
		"failed": failed,
	})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	hist := h.Service.History()
	if hist == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	rows, err := hist.Recent(limit)
	if err != nil {
		h.Logger.Error("Failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	hist := h.Service.History()
	if hist == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	stats, err := hist.GetStats()
	if err != nil {
		h.Logger.Error("Failed to load stats", "error", err)
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// PostRetry kicks off a retry pass of the failed registry in the
// background and returns immediately.
func (h *Handler) PostRetry(w http.ResponseWriter, r *http.Request) {
	if h.Service.Status().Running {
		http.Error(w, "a batch is already running", http.StatusConflict)
		return
	}
	if h.Service.Registry().Count() == 0 {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "nothing to retry"})
		return
	}

	// The request context dies with the response; the batch outlives it.
	go func() {
		if _, err := h.Service.Retry(context.Background()); err != nil {
			h.Logger.Error("Retry batch failed", "error", err)
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "retry started"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}
