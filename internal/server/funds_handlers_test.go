package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cbram/clusterrisk/internal/funddetail"
	"github.com/cbram/clusterrisk/internal/model"
)

func TestHandleEnumerate_ListsStoredFunds(t *testing.T) {
	dir := t.TempDir()
	store := funddetail.NewStore(dir)
	index := funddetail.NewIndex(dir)
	require.NoError(t, store.Put("EUNL", model.FundDetail{
		Identifier: "IE00B4L5Y983", DisplayName: "iShares Core MSCI World", LastUpdated: time.Now().UTC(),
	}))

	h := newFundsHandlers(store, index, nil, nil, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/api/funds/", nil)
	rec := httptest.NewRecorder()
	h.HandleEnumerate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "EUNL")
}

func TestHandleGet_MissingFundReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	store := funddetail.NewStore(dir)
	index := funddetail.NewIndex(dir)
	h := newFundsHandlers(store, index, nil, nil, zerolog.Nop())

	req := withSymbolParam(httptest.NewRequest(http.MethodGet, "/api/funds/ZZZZ", nil), "ZZZZ")
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGet_ReturnsStoredDetail(t *testing.T) {
	dir := t.TempDir()
	store := funddetail.NewStore(dir)
	index := funddetail.NewIndex(dir)
	require.NoError(t, store.Put("EUNL", model.FundDetail{
		Identifier: "IE00B4L5Y983", DisplayName: "iShares Core MSCI World", LastUpdated: time.Now().UTC(),
	}))
	h := newFundsHandlers(store, index, nil, nil, zerolog.Nop())

	req := withSymbolParam(httptest.NewRequest(http.MethodGet, "/api/funds/EUNL", nil), "EUNL")
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "iShares Core MSCI World")
}

func TestHandleRefreshOne_UnknownIdentifierReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	store := funddetail.NewStore(dir)
	index := funddetail.NewIndex(dir)
	h := newFundsHandlers(store, index, nil, nil, zerolog.Nop())

	req := withSymbolParam(httptest.NewRequest(http.MethodPost, "/api/funds/ZZZZ/refresh", nil), "ZZZZ")
	rec := httptest.NewRecorder()
	h.HandleRefreshOne(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
