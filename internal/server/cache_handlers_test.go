package server

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/cbram/clusterrisk/internal/tickersector"
)

const cacheSchema = `
CREATE TABLE ticker_sector (
	symbol     TEXT PRIMARY KEY,
	sector     TEXT NOT NULL,
	source     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

func newTestCacheHandlers(t *testing.T) *cacheHandlers {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(cacheSchema)
	require.NoError(t, err)

	cache := tickersector.NewCache(db, nil, nil, 90*24*time.Hour, zerolog.Nop())
	return newCacheHandlers(cache, zerolog.Nop())
}

func withSymbolParam(req *http.Request, symbol string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("symbol", symbol)
	return req.WithContext(withChiContext(req, rctx))
}

func TestHandleOverride_ThenLookupReturnsManualSector(t *testing.T) {
	h := newTestCacheHandlers(t)

	putReq := withSymbolParam(httptest.NewRequest(http.MethodPut, "/api/cache/ticker-sector/AAPL", bytes.NewBufferString(`{"sector":"Technology"}`)), "AAPL")
	putRec := httptest.NewRecorder()
	h.HandleOverride(putRec, putReq)
	require.Equal(t, http.StatusNoContent, putRec.Code)

	getReq := withSymbolParam(httptest.NewRequest(http.MethodGet, "/api/cache/ticker-sector/AAPL", nil), "AAPL")
	getRec := httptest.NewRecorder()
	h.HandleLookup(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	require.Contains(t, getRec.Body.String(), "Technology")
}

func TestHandleClearOne_RemovesEntry(t *testing.T) {
	h := newTestCacheHandlers(t)
	putReq := withSymbolParam(httptest.NewRequest(http.MethodPut, "/api/cache/ticker-sector/AAPL", bytes.NewBufferString(`{"sector":"Technology"}`)), "AAPL")
	h.HandleOverride(httptest.NewRecorder(), putReq)

	delReq := withSymbolParam(httptest.NewRequest(http.MethodDelete, "/api/cache/ticker-sector/AAPL", nil), "AAPL")
	delRec := httptest.NewRecorder()
	h.HandleClearOne(delRec, delReq)
	require.Equal(t, http.StatusNoContent, delRec.Code)
}

func TestHandleStats_ReportsTotalEntries(t *testing.T) {
	h := newTestCacheHandlers(t)
	putReq := withSymbolParam(httptest.NewRequest(http.MethodPut, "/api/cache/ticker-sector/AAPL", bytes.NewBufferString(`{"sector":"Technology"}`)), "AAPL")
	h.HandleOverride(httptest.NewRecorder(), putReq)

	statsReq := httptest.NewRequest(http.MethodGet, "/api/cache/ticker-sector/stats", nil)
	statsRec := httptest.NewRecorder()
	h.HandleStats(statsRec, statsReq)
	require.Equal(t, http.StatusOK, statsRec.Code)
	require.Contains(t, statsRec.Body.String(), `"Total":1`)
}
