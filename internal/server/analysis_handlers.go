package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cbram/clusterrisk/internal/database"
	"github.com/cbram/clusterrisk/internal/diagnostics"
	"github.com/cbram/clusterrisk/internal/history"
	"github.com/cbram/clusterrisk/internal/ingestion"
	"github.com/cbram/clusterrisk/internal/model"
	"github.com/cbram/clusterrisk/internal/resolver"
	"github.com/cbram/clusterrisk/internal/risk"
)

type analysisHandlers struct {
	repo       *history.Repository
	historyDB  *database.DB
	resolver   *resolver.Resolver
	thresholds risk.Thresholds
	log        zerolog.Logger
}

func newAnalysisHandlers(repo *history.Repository, historyDB *database.DB, res *resolver.Resolver, thresholds risk.Thresholds, log zerolog.Logger) *analysisHandlers {
	return &analysisHandlers{repo: repo, historyDB: historyDB, resolver: res, thresholds: thresholds, log: log.With().Str("handler", "analysis").Logger()}
}

// HandleRun ingests an uploaded snapshot and runs the full
// Ingestion -> Resolver -> Aggregator -> History pipeline synchronously
// (spec §6 "POST /api/analysis/run").
func (h *analysisHandlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("snapshot")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	diag := diagnostics.New()
	result, err := ingestion.Parse(file, diag)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	holdings := h.resolver.ResolveAll(r.Context(), result.Positions, diag)
	holdings = resolver.MergeDuplicates(holdings)
	tables := risk.Aggregate(holdings, h.thresholds)

	record := model.AnalysisRecord{
		Timestamp:      time.Now().UTC(),
		TotalValue:     result.TotalValue,
		TotalPositions: result.TotalPositions,
		ETFCount:       result.FundCount,
		StockCount:     result.StockCount,
		Tables:         tables,
	}

	id, err := h.repo.Insert(r.Context(), record)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to persist analysis record")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	record.ID = id

	writeJSON(w, http.StatusOK, record)
}

func (h *analysisHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := h.repo.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *analysisHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *analysisHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear deletes every analysis record then reclaims disk space
// (spec §6 "DELETE /api/analysis": clear-all, then VACUUM).
func (h *analysisHandlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if h.historyDB != nil {
		if err := h.historyDB.Vacuum(); err != nil {
			h.log.Warn().Err(err).Msg("vacuum after clear-all failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
