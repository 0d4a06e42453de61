// Package scheduler drives the periodic jobs the ClusterRisk server runs in
// the background: the Scraper's batch-update and the WAL checkpoint of the
// cache and History databases (spec §5 EXPANSION).
package scheduler

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProgressEvent is pushed to an optional caller-supplied callback after
// every fund in a batch-refresh run (spec §5, mirrored by the websocket
// frame shape in §6 EXPANSION).
type ProgressEvent struct {
	Symbol  string
	Status  string // "updated" | "skipped" | "failed"
	Updated int
	Skipped int
	Failed  int
}

// FundRefresher performs one fund's scrape-and-store cycle. staleAfter
// bounds which funds are refreshed in a batch run.
type FundRefresher interface {
	RefreshOne(ctx context.Context, symbol, identifier, proxyIdentifier string) error
	StaleSymbols(ctx context.Context, staleAfter time.Duration) ([]string, error)
	IdentifierForSymbol(symbol string) (string, bool)
}

// BatchRefreshJob scrapes every stale fund, counting updated/skipped/failed
// the way TradernetMetadataSyncJob counts its per-security outcomes.
type BatchRefreshJob struct {
	log        zerolog.Logger
	refresher  FundRefresher
	staleAfter time.Duration
	runDB      *sql.DB // optional: records one scrape_runs row per batch (config.db)

	mu         sync.Mutex
	onProgress func(ProgressEvent)
}

type BatchRefreshJobConfig struct {
	Log        zerolog.Logger
	Refresher  FundRefresher
	StaleAfter time.Duration
	RunDB      *sql.DB
	OnProgress func(ProgressEvent)
}

func NewBatchRefreshJob(cfg BatchRefreshJobConfig) *BatchRefreshJob {
	return &BatchRefreshJob{
		log:        cfg.Log.With().Str("job", "fund_detail_batch_refresh").Logger(),
		refresher:  cfg.Refresher,
		staleAfter: cfg.StaleAfter,
		runDB:      cfg.RunDB,
		onProgress: cfg.OnProgress,
	}
}

func (j *BatchRefreshJob) Name() string {
	return "fund_detail_batch_refresh"
}

// SetProgressSink replaces the progress callback for the duration of one
// run; the HTTP handler uses this to stream frames over a websocket
// connection scoped to a single request (spec §6 "batch-refresh progress").
func (j *BatchRefreshJob) SetProgressSink(fn func(ProgressEvent)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.onProgress = fn
}

// Run refreshes every stale fund, serialised with the Client's own
// inter-request rate limiter (spec §5: "serialised with an inter-request
// delay"). Cancellation is observed between items.
func (j *BatchRefreshJob) Run(ctx context.Context) error {
	start := time.Now()
	runID := uuid.New().String()
	log := j.log.With().Str("run_id", runID).Logger()

	symbols, err := j.refresher.StaleSymbols(ctx, j.staleAfter)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(symbols)).Msg("starting fund-detail batch refresh")

	updated, skipped, failed := 0, 0, 0
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		identifier, ok := j.refresher.IdentifierForSymbol(symbol)
		if !ok {
			skipped++
			j.report(symbol, "skipped", updated, skipped, failed)
			continue
		}

		if err := j.refresher.RefreshOne(ctx, symbol, identifier, ""); err != nil {
			failed++
			log.Warn().Err(err).Str("symbol", symbol).Msg("fund refresh failed")
			j.report(symbol, "failed", updated, skipped, failed)
			continue
		}
		updated++
		j.report(symbol, "updated", updated, skipped, failed)
	}

	log.Info().
		Int("updated", updated).
		Int("skipped", skipped).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("fund-detail batch refresh completed")

	j.recordRun(ctx, runID, start, updated, skipped, failed)
	return nil
}

// recordRun writes one row into scrape_runs so past batch runs can be
// audited; a nil runDB (no config database wired) silently skips this.
func (j *BatchRefreshJob) recordRun(ctx context.Context, runID string, start time.Time, updated, skipped, failed int) {
	if j.runDB == nil {
		return
	}
	_, err := j.runDB.ExecContext(ctx,
		`INSERT INTO scrape_runs (run_id, started_at, finished_at, updated, skipped, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, start.Unix(), time.Now().Unix(), updated, skipped, failed,
	)
	if err != nil {
		j.log.Warn().Err(err).Msg("failed to record batch refresh run")
	}
}

func (j *BatchRefreshJob) report(symbol, status string, updated, skipped, failed int) {
	j.mu.Lock()
	sink := j.onProgress
	j.mu.Unlock()
	if sink == nil {
		return
	}
	sink(ProgressEvent{Symbol: symbol, Status: status, Updated: updated, Skipped: skipped, Failed: failed})
}
