package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type stubRefresher struct {
	symbols     []string
	identifiers map[string]string
	failSymbols map[string]bool
}

func (r *stubRefresher) StaleSymbols(ctx context.Context, staleAfter time.Duration) ([]string, error) {
	return r.symbols, nil
}

func (r *stubRefresher) IdentifierForSymbol(symbol string) (string, bool) {
	id, ok := r.identifiers[symbol]
	return id, ok
}

func (r *stubRefresher) RefreshOne(ctx context.Context, symbol, identifier, proxyIdentifier string) error {
	if r.failSymbols[symbol] {
		return errors.New("refresh failed")
	}
	return nil
}

func TestBatchRefreshJob_CountsUpdatedSkippedFailed(t *testing.T) {
	refresher := &stubRefresher{
		symbols:     []string{"AAPL", "MSFT", "UNKNOWN"},
		identifiers: map[string]string{"AAPL": "US0378331005", "MSFT": "US5949181045"},
		failSymbols: map[string]bool{"MSFT": true},
	}
	job := NewBatchRefreshJob(BatchRefreshJobConfig{
		Log:       zerolog.Nop(),
		Refresher: refresher,
	})

	var events []ProgressEvent
	job.SetProgressSink(func(evt ProgressEvent) { events = append(events, evt) })

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, events, 3)
	assert.Equal(t, "updated", events[0].Status)
	assert.Equal(t, "failed", events[1].Status)
	assert.Equal(t, "skipped", events[2].Status)
	assert.Equal(t, 1, events[2].Updated)
	assert.Equal(t, 1, events[2].Skipped)
	assert.Equal(t, 1, events[2].Failed)
}

func TestBatchRefreshJob_RecordsRunWhenRunDBSet(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE scrape_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		updated INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL
	)`)
	require.NoError(t, err)

	refresher := &stubRefresher{
		symbols:     []string{"AAPL"},
		identifiers: map[string]string{"AAPL": "US0378331005"},
	}
	job := NewBatchRefreshJob(BatchRefreshJobConfig{
		Log:       zerolog.Nop(),
		Refresher: refresher,
		RunDB:     db,
	})

	require.NoError(t, job.Run(context.Background()))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM scrape_runs`).Scan(&count))
	assert.Equal(t, 1, count)

	var runID string
	require.NoError(t, db.QueryRow(`SELECT run_id FROM scrape_runs`).Scan(&runID))
	assert.NotEmpty(t, runID)
}

func TestBatchRefreshJob_NilRunDBSkipsRecording(t *testing.T) {
	refresher := &stubRefresher{symbols: nil}
	job := NewBatchRefreshJob(BatchRefreshJobConfig{Log: zerolog.Nop(), Refresher: refresher})
	require.NoError(t, job.Run(context.Background()))
}
