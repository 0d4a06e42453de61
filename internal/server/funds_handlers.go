package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/cbram/clusterrisk/internal/funddetail"
	"github.com/cbram/clusterrisk/internal/scheduler"
	"github.com/cbram/clusterrisk/internal/scraper"
)

type fundsHandlers struct {
	store     *funddetail.Store
	index     *funddetail.Index
	refresher *scraper.Refresher
	batchJob  *scheduler.BatchRefreshJob
	log       zerolog.Logger
}

func newFundsHandlers(store *funddetail.Store, index *funddetail.Index, refresher *scraper.Refresher, batchJob *scheduler.BatchRefreshJob, log zerolog.Logger) *fundsHandlers {
	return &fundsHandlers{store: store, index: index, refresher: refresher, batchJob: batchJob, log: log.With().Str("handler", "funds").Logger()}
}

// HandleEnumerate lists every stored fund with its staleness (spec §6
// "GET /api/funds").
func (h *fundsHandlers) HandleEnumerate(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.Enumerate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *fundsHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	detail, ok, err := h.store.Get(symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("fund detail not found for symbol "+symbol))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleRefreshOne scrapes a single fund on demand (spec §6
// "POST /api/funds/{symbol}/refresh"). An optional "proxy" query parameter
// names the identifier of a physically-replicating fund on the same index
// to scrape holdings/allocations from, for funds whose own page is judged
// unusable (synthetic/swap replication, or no data).
func (h *fundsHandlers) HandleRefreshOne(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	proxyIdentifier := r.URL.Query().Get("proxy")
	identifier, ok := h.index.IdentifierForSymbol(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no known identifier for symbol "+symbol))
		return
	}
	if err := h.refresher.RefreshOne(r.Context(), symbol, identifier, proxyIdentifier); err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("on-demand refresh failed")
		writeError(w, http.StatusBadGateway, err)
		return
	}
	detail, _, err := h.store.Get(symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleBatchRefresh upgrades to a websocket and streams one JSON frame per
// fund as the batch-update job progresses (spec §6 "POST
// /api/funds/batch-refresh").
func (h *fundsHandlers) HandleBatchRefresh(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	job := h.batchJob
	job.SetProgressSink(func(evt scheduler.ProgressEvent) {
		writeCtx, writeCancel := context.WithTimeout(ctx, 5*time.Second)
		defer writeCancel()
		if err := wsjson.Write(writeCtx, conn, evt); err != nil {
			h.log.Warn().Err(err).Msg("failed to push batch-refresh progress frame")
		}
	})
	defer job.SetProgressSink(nil)

	if err := job.Run(ctx); err != nil {
		h.log.Error().Err(err).Msg("batch refresh run failed")
		conn.Close(websocket.StatusInternalError, "batch refresh failed")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "batch refresh complete")
}
