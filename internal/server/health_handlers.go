package server

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/cbram/clusterrisk/internal/database"
)

type healthHandlers struct {
	cacheDB   *database.DB
	historyDB *database.DB
	log       zerolog.Logger
	startedAt time.Time
}

func newHealthHandlers(cacheDB, historyDB *database.DB, log zerolog.Logger) *healthHandlers {
	return &healthHandlers{cacheDB: cacheDB, historyDB: historyDB, log: log.With().Str("handler", "health").Logger(), startedAt: time.Now()}
}

type healthStatus struct {
	Status      string  `json:"status"`
	UptimeSec   float64 `json:"uptime_seconds"`
	CacheDBOK   bool    `json:"cache_db_ok"`
	HistoryDBOK bool    `json:"history_db_ok"`
	ProcessRSS  uint64  `json:"process_rss_bytes"`
	ProcessCPU  float64 `json:"process_cpu_percent"`
}

// HandleHealthz reports liveness/readiness: a ping against both SQLite
// databases plus this process's resource usage via gopsutil (spec §6
// "GET /healthz").
func (h *healthHandlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok", UptimeSec: time.Since(h.startedAt).Seconds()}

	if h.cacheDB != nil {
		status.CacheDBOK = h.cacheDB.QuickCheck(r.Context()) == nil
	}
	if h.historyDB != nil {
		status.HistoryDBOK = h.historyDB.QuickCheck(r.Context()) == nil
	}
	if !status.CacheDBOK || !status.HistoryDBOK {
		status.Status = "degraded"
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			status.ProcessRSS = mem.RSS
		}
		if cpuPct, err := proc.CPUPercent(); err == nil {
			status.ProcessCPU = cpuPct
		}
	} else {
		h.log.Warn().Err(err).Msg("failed to read process stats")
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
