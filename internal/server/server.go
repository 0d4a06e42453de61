// Package server provides the HTTP API for ClusterRisk: analysis runs,
// fund-detail browsing and refresh, and ticker->sector cache lookups
// (spec §6 EXPANSION).
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/cbram/clusterrisk/internal/config"
	"github.com/cbram/clusterrisk/internal/database"
	"github.com/cbram/clusterrisk/internal/funddetail"
	"github.com/cbram/clusterrisk/internal/history"
	"github.com/cbram/clusterrisk/internal/resolver"
	"github.com/cbram/clusterrisk/internal/risk"
	"github.com/cbram/clusterrisk/internal/scheduler"
	"github.com/cbram/clusterrisk/internal/scraper"
	"github.com/cbram/clusterrisk/internal/tickersector"
)

// Config holds the dependencies the HTTP server wires into its handlers.
type Config struct {
	Log         zerolog.Logger
	Cfg         *config.Config
	CacheDB     *database.DB
	HistoryDB   *database.DB
	HistoryRepo *history.Repository
	FundStore   *funddetail.Store
	FundIndex   *funddetail.Index
	Resolver    *resolver.Resolver
	Thresholds  risk.Thresholds
	TickerCache *tickersector.Cache
	ScrapeClient *scraper.Client
	Refresher   *scraper.Refresher
	BatchJob    *scheduler.BatchRefreshJob
}

// Server is the ClusterRisk HTTP API.
type Server struct {
	router *chi.Mux
	http   *http.Server
	log    zerolog.Logger
	cfg    *config.Config

	analysis *analysisHandlers
	funds    *fundsHandlers
	cache    *cacheHandlers
	health   *healthHandlers
}

func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Cfg,
	}

	s.analysis = newAnalysisHandlers(cfg.HistoryRepo, cfg.HistoryDB, cfg.Resolver, cfg.Thresholds, cfg.Log)
	s.funds = newFundsHandlers(cfg.FundStore, cfg.FundIndex, cfg.Refresher, cfg.BatchJob, cfg.Log)
	s.cache = newCacheHandlers(cfg.TickerCache, cfg.Log)
	s.health = newHealthHandlers(cfg.CacheDB, cfg.HistoryDB, cfg.Log)

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.health.HandleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/analysis", func(r chi.Router) {
			r.Post("/run", s.analysis.HandleRun)
			r.Get("/", s.analysis.HandleList)
			r.Delete("/", s.analysis.HandleClear)
			r.Get("/{id}", s.analysis.HandleGet)
			r.Delete("/{id}", s.analysis.HandleDelete)
		})

		r.Route("/funds", func(r chi.Router) {
			r.Get("/", s.funds.HandleEnumerate)
			r.Post("/batch-refresh", s.funds.HandleBatchRefresh)
			r.Get("/{symbol}", s.funds.HandleGet)
			r.Post("/{symbol}/refresh", s.funds.HandleRefreshOne)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/ticker-sector/stats", s.cache.HandleStats)
			r.Delete("/ticker-sector", s.cache.HandleClearAll)
			r.Get("/ticker-sector/{symbol}", s.cache.HandleLookup)
			r.Put("/ticker-sector/{symbol}", s.cache.HandleOverride)
			r.Delete("/ticker-sector/{symbol}", s.cache.HandleClearOne)
		})
	})
}

func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
