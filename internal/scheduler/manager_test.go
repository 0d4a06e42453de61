package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int32
	err  error
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	return j.err
}

func TestManager_RunNowExecutesImmediately(t *testing.T) {
	m := NewManager(zerolog.Nop())
	job := &countingJob{name: "test"}
	err := m.RunNow(context.Background(), job)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&job.runs))
}

func TestManager_RunNowPropagatesJobError(t *testing.T) {
	m := NewManager(zerolog.Nop())
	job := &countingJob{name: "failing", err: errors.New("boom")}
	err := m.RunNow(context.Background(), job)
	assert.Error(t, err)
}

func TestManager_AddJobRunsOnSchedule(t *testing.T) {
	m := NewManager(zerolog.Nop())
	job := &countingJob{name: "scheduled"}
	require.NoError(t, m.AddJob("* * * * * *", job))
	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.runs) >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestManager_AddJobRejectsInvalidSchedule(t *testing.T) {
	m := NewManager(zerolog.Nop())
	err := m.AddJob("not a schedule", &countingJob{name: "bad"})
	assert.Error(t, err)
}
