package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchetti/cadenza/internal/catalog"
	"github.com/dmarchetti/cadenza/internal/domain"
	"github.com/dmarchetti/cadenza/internal/store"
)

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	tracks, err := h.Provider.Search(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, tracks)
}

func (h *Handler) GetTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	track, err := h.Provider.GetTrack(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, track)
}

type queueRequest struct {
	CurrentID string         `json:"currentId"`
	Quality   string         `json:"quality,omitempty"`
	Queue     []domain.Track `json:"queue"`
}

// UpdateQueue replaces the scheduler's view of the play queue. Called on
// every track change and reshuffle; each call supersedes the previous
// prefetch chain.
func (h *Handler) UpdateQueue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CurrentID == "" {
		http.Error(w, "currentId is required", http.StatusBadRequest)
		return
	}
	quality := req.Quality
	if quality == "" {
		quality = h.Quality
	}
	if !catalog.ValidQuality(quality) {
		http.Error(w, "unknown quality level", http.StatusBadRequest)
		return
	}

	h.Scheduler.ScheduleWindow(req.CurrentID, req.Queue, quality)
	h.writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (h *Handler) GetPrefetched(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	quality := r.URL.Query().Get("quality")
	if quality == "" {
		quality = h.Quality
	}

	entry := h.Scheduler.GetResolved(id, quality)
	if entry == nil {
		http.Error(w, "track not prefetched", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

type usageResponse struct {
	Total int64 `json:"total"`
	*store.CategoryUsage
}

func (h *Handler) CacheUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.Store.UsageByCategory()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := h.Store.UsageTotal()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, usageResponse{Total: total, CategoryUsage: usage})
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	category := store.Category(chi.URLParam(r, "category"))
	if !category.Valid() {
		http.Error(w, "unknown cache category", http.StatusBadRequest)
		return
	}
	if err := h.Store.DeleteByCategory(category); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.Log.Info("Cache category cleared", "category", string(category))
	h.writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

type clearRequest struct {
	Preserve []string `json:"preserve,omitempty"`
}

// ClearCache wipes every partition. An optional preserve list keeps
// selected keys, typically the account records, so a sign-in survives.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Store.ClearAll(req.Preserve); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.Log.Info("Cache cleared", "preserved", len(req.Preserve))
	h.writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}
