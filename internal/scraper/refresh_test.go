package scraper

import (
	"context"
	"testing"

	"github.com/cbram/clusterrisk/internal/funddetail"
	"github.com/cbram/clusterrisk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	summaries []funddetail.Summary
	puts      map[string]model.FundDetail
}

func (s *stubStore) Put(symbol string, detail model.FundDetail) error {
	if s.puts == nil {
		s.puts = map[string]model.FundDetail{}
	}
	s.puts[symbol] = detail
	return nil
}

func (s *stubStore) Enumerate() ([]funddetail.Summary, error) {
	return s.summaries, nil
}

type stubIndex struct {
	bySymbol map[string]string
	puts     int
}

func (s *stubIndex) IdentifierForSymbol(symbol string) (string, bool) {
	id, ok := s.bySymbol[symbol]
	return id, ok
}

func (s *stubIndex) Put(isin, symbol, name string) error {
	s.puts++
	return nil
}

func TestRefresher_StaleSymbolsFiltersFreshOnes(t *testing.T) {
	store := &stubStore{summaries: []funddetail.Summary{
		{Symbol: "EUNL", Stale: true},
		{Symbol: "VWRL", Stale: false},
		{Symbol: "SWDA", Stale: true},
	}}
	r := NewRefresher(nil, store, &stubIndex{})

	symbols, err := r.StaleSymbols(context.Background(), 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"EUNL", "SWDA"}, symbols)
}

func TestRefresher_StaleSymbolsSkipsManualEntries(t *testing.T) {
	store := &stubStore{summaries: []funddetail.Summary{
		{Symbol: "EUNL", Stale: true},
		{Symbol: "CURATED", Stale: true, Manual: true},
	}}
	r := NewRefresher(nil, store, &stubIndex{})

	symbols, err := r.StaleSymbols(context.Background(), 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"EUNL"}, symbols)
}

func TestRefresher_IdentifierForSymbolDelegatesToIndex(t *testing.T) {
	idx := &stubIndex{bySymbol: map[string]string{"EUNL": "IE00B4L5Y983"}}
	r := NewRefresher(nil, &stubStore{}, idx)

	id, ok := r.IdentifierForSymbol("EUNL")
	assert.True(t, ok)
	assert.Equal(t, "IE00B4L5Y983", id)

	_, ok = r.IdentifierForSymbol("UNKNOWN")
	assert.False(t, ok)
}
