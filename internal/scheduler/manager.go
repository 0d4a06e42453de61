package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a background task the Manager runs on a cron schedule.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Manager owns the cron scheduler driving every background job: the
// Scraper's batch refresh and the WAL checkpoint of the cache and History
// databases (spec §5 EXPANSION).
type Manager struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

func (m *Manager) Start() {
	m.cron.Start()
	m.log.Info().Msg("scheduler started")
}

func (m *Manager) Stop() {
	done := m.cron.Stop()
	<-done.Done()
	m.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on the given cron schedule. Schedule accepts the
// standard six-field cron syntax plus "@every 30m"-style descriptors.
func (m *Manager) AddJob(schedule string, job Job) error {
	_, err := m.cron.AddFunc(schedule, func() {
		m.log.Debug().Str("job", job.Name()).Msg("running job")
		if err := job.Run(context.Background()); err != nil {
			m.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
			return
		}
		m.log.Debug().Str("job", job.Name()).Msg("job completed")
	})
	if err != nil {
		return err
	}
	m.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// RunNow executes job immediately, outside its configured schedule. The
// HTTP batch-refresh endpoint does not go through it; it calls the job's
// Run directly.
func (m *Manager) RunNow(ctx context.Context, job Job) error {
	m.log.Info().Str("job", job.Name()).Msg("running job on demand")
	return job.Run(ctx)
}
