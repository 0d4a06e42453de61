// Command server runs the ClusterRisk HTTP API: it wires the Fund-Detail
// Store, Fund-Detail Scraper, Ticker->Sector Cache, Look-through Resolver,
// Risk Aggregator, and Analysis History store behind a chi router, then
// serves until it receives SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cbram/clusterrisk/internal/config"
	"github.com/cbram/clusterrisk/internal/database"
	"github.com/cbram/clusterrisk/internal/funddetail"
	"github.com/cbram/clusterrisk/internal/history"
	"github.com/cbram/clusterrisk/internal/resolver"
	"github.com/cbram/clusterrisk/internal/risk"
	"github.com/cbram/clusterrisk/internal/scheduler"
	"github.com/cbram/clusterrisk/internal/scraper"
	"github.com/cbram/clusterrisk/internal/server"
	"github.com/cbram/clusterrisk/internal/tickersector"
	"github.com/cbram/clusterrisk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open cache database")
	}
	defer cacheDB.Close()
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate cache database")
	}

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileLedger,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open history database")
	}
	defer historyDB.Close()
	if err := historyDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate history database")
	}

	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open config database")
	}
	defer configDB.Close()
	if err := configDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate config database")
	}

	historyRepo := history.NewRepository(historyDB.Conn())

	fundDetailDir := filepath.Join(cfg.DataDir, "funds")
	if err := os.MkdirAll(fundDetailDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create fund-detail directory")
	}
	fundStore := funddetail.NewStore(fundDetailDir)
	fundIndex := funddetail.NewIndex(cfg.DataDir)

	referenceSource, err := resolver.NewReferenceSource()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load built-in reference fund dataset")
	}
	overlaySource := resolver.NewOverlaySource()
	storeSource := resolver.NewStoreSource(fundIndex, fundStore)
	fundSources := []resolver.HoldingsSource{storeSource, overlaySource, referenceSource}

	// Primary/secondary external sector services (spec §13 SUPPLEMENTED
	// FEATURES). No concrete per-identifier lookup service is named
	// anywhere in scope, so identifierSvc stays nil (see DESIGN.md).
	tickerPrimary := tickersector.NewYahooSectorSource("https://query1.finance.yahoo.com")
	tickerSecondary := tickersector.NewOpenFIGISectorSource(os.Getenv("OPENFIGI_API_KEY"))
	tickerCache := tickersector.NewCache(cacheDB.Conn(), tickerPrimary, tickerSecondary, cfg.TickerSectorMaxAge, log)

	res := resolver.New(fundSources, nil, tickerCache)

	thresholds := risk.DefaultThresholds()

	scrapeClient := scraper.NewClient(cfg.ScrapeBaseURL, cfg.ScrapeRequestDelay, log)
	refresher := scraper.NewRefresher(scrapeClient, fundStore, fundIndex)

	batchJob := scheduler.NewBatchRefreshJob(scheduler.BatchRefreshJobConfig{
		Log:        log,
		Refresher:  refresher,
		StaleAfter: cfg.BatchRefreshStaleAfter,
		RunDB:      configDB.Conn(),
	})

	schedulerMgr := scheduler.NewManager(log)
	if err := schedulerMgr.AddJob(toSixField(cfg.BatchRefreshCron), batchJob); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule fund-detail batch refresh")
	}
	walJob := scheduler.NewWALCheckpointJob(cacheDB, historyDB, log)
	if err := schedulerMgr.AddJob("0 */15 * * * *", walJob); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule WAL checkpoint job")
	}
	schedulerMgr.Start()
	defer schedulerMgr.Stop()

	srv := server.New(server.Config{
		Log:          log,
		Cfg:          cfg,
		CacheDB:      cacheDB,
		HistoryDB:    historyDB,
		HistoryRepo:  historyRepo,
		FundStore:    fundStore,
		FundIndex:    fundIndex,
		Resolver:     res,
		Thresholds:   thresholds,
		TickerCache:  tickerCache,
		ScrapeClient: scrapeClient,
		Refresher:    refresher,
		BatchJob:     batchJob,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during HTTP server shutdown")
	}
	log.Info().Msg("shutdown complete")
}

// toSixField adapts a 5-field cron expression (the format
// Config.BatchRefreshCron is documented and defaulted in) to the 6-field
// seconds-first format robfig/cron/v3's WithSeconds() parser requires.
func toSixField(fiveField string) string {
	return "0 " + fiveField
}
