package funddetail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_PutThenLookup(t *testing.T) {
	dir := t.TempDir()
	idx := NewIndex(dir)

	require.NoError(t, idx.Put("IE00B4L5Y983", "EUNL", "iShares Core MSCI World"))

	symbol, ok := idx.SymbolForIdentifier("IE00B4L5Y983")
	assert.True(t, ok)
	assert.Equal(t, "EUNL", symbol)

	_, ok = idx.SymbolForIdentifier("UNKNOWN")
	assert.False(t, ok)
}

func TestIndex_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	idx := NewIndex(dir)
	require.NoError(t, idx.Put("IE00B3RBWM25", "VWRL", "Vanguard FTSE All-World"))

	reloaded := NewIndex(dir)
	symbol, ok := reloaded.SymbolForIdentifier("IE00B3RBWM25")
	assert.True(t, ok)
	assert.Equal(t, "VWRL", symbol)
}
