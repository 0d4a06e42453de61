package scheduler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cbram/clusterrisk/internal/database"
)

func newTestDB(t *testing.T, name string) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWALCheckpointJob_RunSucceedsOnEmptyDatabases(t *testing.T) {
	cacheDB := newTestDB(t, "cache")
	historyDB := newTestDB(t, "history")

	job := NewWALCheckpointJob(cacheDB, historyDB, zerolog.Nop())
	require.Equal(t, "wal_checkpoint", job.Name())
	require.NoError(t, job.Run(context.Background()))
}

func TestWALCheckpointJob_RunToleratesNilDatabase(t *testing.T) {
	cacheDB := newTestDB(t, "cache")
	job := NewWALCheckpointJob(cacheDB, nil, zerolog.Nop())
	require.NoError(t, job.Run(context.Background()))
}
