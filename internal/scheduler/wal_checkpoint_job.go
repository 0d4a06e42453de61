package scheduler

import (
	"context"

	"github.com/cbram/clusterrisk/internal/database"
	"github.com/rs/zerolog"
)

// WALCheckpointJob monitors the cache and history databases' WAL files and
// forces a checkpoint once either grows past walFrameWarnThreshold, keeping
// the on-disk footprint bounded between full VACUUMs.
type WALCheckpointJob struct {
	log       zerolog.Logger
	cacheDB   *database.DB
	historyDB *database.DB
}

const walFrameWarnThreshold = 1000

func NewWALCheckpointJob(cacheDB, historyDB *database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
		cacheDB:   cacheDB,
		historyDB: historyDB,
	}
}

func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

func (j *WALCheckpointJob) Run(ctx context.Context) error {
	databases := map[string]*database.DB{
		"cache":   j.cacheDB,
		"history": j.historyDB,
	}

	for name, db := range databases {
		if db == nil {
			continue
		}
		var busy, wal, checkpointed int
		if err := db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &wal, &checkpointed); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("failed to check WAL checkpoint status")
			continue
		}

		if wal <= walFrameWarnThreshold {
			j.log.Debug().Str("database", name).Int("wal_frames", wal).Msg("WAL checkpoint status OK")
			continue
		}

		j.log.Warn().Str("database", name).Int("wal_frames", wal).Msg("WAL file large, forcing TRUNCATE checkpoint")
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("forced checkpoint failed")
		}
	}

	return nil
}
