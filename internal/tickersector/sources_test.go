package tickersector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooSectorSource_LookupParsesAssetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"assetProfile":{"sector":"Technology"}}]}}`))
	}))
	defer srv.Close()

	src := NewYahooSectorSource(srv.URL)
	sectorName, err := src.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", sectorName)
}

func TestYahooSectorSource_EmptyResultIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[]}}`))
	}))
	defer srv.Close()

	src := NewYahooSectorSource(srv.URL)
	_, err := src.Lookup(context.Background(), "ZZZZ")
	assert.Error(t, err)
}

func TestOpenFIGISectorSource_LookupParsesMarketSector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data":[{"marketSector":"Equity","securityType":"Common Stock"}]}]`))
	}))
	defer srv.Close()

	src := NewOpenFIGISectorSource("")
	src.mappingURL = srv.URL
	sectorName, err := src.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Equity", sectorName)
}

func TestOpenFIGISectorSource_NoDataIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"data":[]}]`))
	}))
	defer srv.Close()

	src := NewOpenFIGISectorSource("test-key")
	src.mappingURL = srv.URL
	_, err := src.Lookup(context.Background(), "ZZZZ")
	assert.Error(t, err)
}
