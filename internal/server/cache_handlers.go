package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cbram/clusterrisk/internal/tickersector"
)

type cacheHandlers struct {
	cache *tickersector.Cache
	log   zerolog.Logger
}

func newCacheHandlers(cache *tickersector.Cache, log zerolog.Logger) *cacheHandlers {
	return &cacheHandlers{cache: cache, log: log.With().Str("handler", "cache").Logger()}
}

// HandleLookup implements spec §6 "GET /api/cache/ticker-sector/{symbol}".
func (h *cacheHandlers) HandleLookup(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	sector, err := h.cache.Lookup(r.Context(), symbol, true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"symbol": symbol, "sector": sector})
}

type overrideRequest struct {
	Sector string `json:"sector"`
}

// HandleOverride lets an operator set a symbol's sector directly, bypassing
// the lookup chain (spec §13 EXPANSION "manual override").
func (h *cacheHandlers) HandleOverride(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	var body overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.cache.Override(r.Context(), symbol, body.Sector); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *cacheHandlers) HandleClearOne(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := h.cache.Clear(r.Context(), symbol); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearAll truncates the whole ticker->sector cache (spec §13
// EXPANSION "Cache clear").
func (h *cacheHandlers) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context(), ""); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *cacheHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
