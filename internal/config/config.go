// Package config provides configuration management for the ClusterRisk service.
//
// Configuration loads from environment variables (and an optional .env file)
// with sane defaults, following the precedence: .env file < process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir      string // base directory for the fund-detail store and SQLite databases
	Port         int    // HTTP server port
	LogLevel     string // debug, info, warn, error
	DevMode      bool   // enables pretty console logging

	ScrapeBaseURL          string        // base host for the fund-detail profile scraper
	ScrapeRequestDelay     time.Duration // inter-request delay within a batch scrape
	TickerSectorMaxAge     time.Duration // freshness window for a cached ticker->sector entry
	BatchRefreshStaleAfter time.Duration // fund-detail records older than this are re-scraped
	BatchRefreshCron       string        // cron schedule for the batch-refresh job
}

// Load reads configuration from environment variables.
//
// dataDirOverride takes priority over CLUSTERRISK_DATA_DIR if provided (e.g. from a CLI flag).
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	var dataDir string
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("CLUSTERRISK_DATA_DIR", "")
		if dataDir == "" {
			dataDir = "./data"
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                absDataDir,
		Port:                   getEnvAsInt("HTTP_PORT", 8080),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DevMode:                getEnvAsBool("DEV_MODE", false),
		ScrapeBaseURL:          getEnv("SCRAPE_BASE_URL", "https://www.justetf.com"),
		ScrapeRequestDelay:     time.Duration(getEnvAsInt("SCRAPE_INTERVAL_DELAY_MS", 2000)) * time.Millisecond,
		TickerSectorMaxAge:     time.Duration(getEnvAsInt("TICKER_SECTOR_MAX_AGE_DAYS", 90)) * 24 * time.Hour,
		BatchRefreshStaleAfter: time.Duration(getEnvAsInt("BATCH_REFRESH_STALE_DAYS", 30)) * 24 * time.Hour,
		BatchRefreshCron:       getEnv("BATCH_REFRESH_CRON", "0 3 * * *"),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
