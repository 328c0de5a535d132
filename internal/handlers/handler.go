// Package handlers exposes the player-facing control surface: queue
// updates feeding the prefetch scheduler, prefetch lookups, and cache
// maintenance.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchetti/cadenza/internal/catalog"
	"github.com/dmarchetti/cadenza/internal/logger"
	"github.com/dmarchetti/cadenza/internal/prefetch"
	"github.com/dmarchetti/cadenza/internal/store"
)

type Handler struct {
	Provider  catalog.Provider
	Store     *store.DB
	Scheduler *prefetch.Scheduler
	Quality   string
	Log       *logger.Logger
}

func NewHandler(p catalog.Provider, db *store.DB, s *prefetch.Scheduler, quality string, log *logger.Logger) *Handler {
	return &Handler{
		Provider:  p,
		Store:     db,
		Scheduler: s,
		Quality:   quality,
		Log:       log.WithComponent("handlers"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/search", h.Search)
	r.Get("/api/tracks/{id}", h.GetTrack)

	r.Post("/api/queue", h.UpdateQueue)
	r.Get("/api/prefetch/{id}", h.GetPrefetched)

	r.Get("/api/cache/usage", h.CacheUsage)
	r.Delete("/api/cache/{category}", h.DeleteCategory)
	r.Post("/api/cache/clear", h.ClearCache)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("Failed to encode response", "error", err)
	}
}
