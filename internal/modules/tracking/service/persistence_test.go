package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trackingadapter "tally/internal/modules/tracking/adapter/out"
	"tally/internal/modules/tracking/domain"
	trackingout "tally/internal/modules/tracking/port/out"
	"tally/internal/modules/tracking/service"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/sanitize"
	"tally/internal/platform/sqlitedb"
)

func newCoordinator(t *testing.T) (*service.PersistenceCoordinator, trackingout.Storage) {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	storage, err := trackingadapter.NewSQLiteStorage(db)
	require.NoError(t, err)
	return service.NewPersistenceCoordinator(storage, sanitize.New(0), nil), storage
}

func sampleSession() domain.Session {
	start := time.Date(2026, 6, 2, 14, 30, 0, 0, time.Local)
	return domain.Session{
		Name:        "Write spec",
		GroupKey:    "Write spec::Docs::Acme",
		ProjectID:   3,
		ClientID:    4,
		StartedAt:   start,
		StartedWall: "2026-06-02 14:30:00",
	}
}

func TestPersistLifecycleAgainstSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	coord, storage := newCoordinator(t)

	id, err := coord.PersistStart(ctx, sampleSession())
	require.NoError(t, err)
	require.Positive(t, id)

	rows, err := storage.Query(ctx, `SELECT name, project_id, client_id, start_time, end_time, time_spent FROM tasks WHERE id = ?`, id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Write spec", rows[0]["name"])
	assert.Equal(t, int64(3), rows[0]["project_id"])
	assert.Nil(t, rows[0]["end_time"])
	assert.Equal(t, int64(0), rows[0]["time_spent"])

	require.NoError(t, coord.PersistCheckpoint(ctx, id, 5))
	require.NoError(t, coord.PersistStop(ctx, id, "2026-06-02 14:30:09", 9))

	rows, err = storage.Query(ctx, `SELECT end_time, time_spent FROM tasks WHERE id = ?`, id)
	require.NoError(t, err)
	assert.Equal(t, "2026-06-02 14:30:09", rows[0]["end_time"])
	assert.Equal(t, int64(9), rows[0]["time_spent"])

	err = coord.PersistCheckpoint(ctx, id, 10)
	assert.ErrorIs(t, err, apperrors.ErrCheckpointFailed, "closed rows take no checkpoints")
	err = coord.PersistStop(ctx, id, "2026-06-02 14:31:00", 60)
	assert.ErrorIs(t, err, apperrors.ErrPersistStopFailed, "a closed row cannot be stopped twice")
}

func TestPersistStartValidatesBeforeWriting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	coord, storage := newCoordinator(t)

	bad := sampleSession()
	bad.Name = "with\x07bell"
	_, err := coord.PersistStart(ctx, bad)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	bad = sampleSession()
	bad.StartedWall = "not a time"
	_, err = coord.PersistStart(ctx, bad)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	rows, err := storage.Query(ctx, `SELECT COUNT(*) AS n FROM tasks`)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows[0]["n"])
}

func TestPersistMissingRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	coord, _ := newCoordinator(t)
	assert.ErrorIs(t, coord.PersistCheckpoint(ctx, 99, 1), apperrors.ErrCheckpointFailed)
	assert.ErrorIs(t, coord.PersistCheckpoint(ctx, 0, 1), apperrors.ErrCheckpointFailed)
	assert.ErrorIs(t, coord.PersistStop(ctx, 99, "2026-06-02 14:31:00", 1), apperrors.ErrPersistStopFailed)
	assert.ErrorIs(t, coord.PersistStop(ctx, 1, "later", 1), apperrors.ErrPersistStopFailed)
}

type zeroInsertStorage struct{ queries int }

func (s *zeroInsertStorage) Query(context.Context, string, ...any) ([]trackingout.Row, error) {
	s.queries++
	return nil, nil
}

func (s *zeroInsertStorage) Exec(context.Context, string, ...any) (trackingout.ExecResult, error) {
	return trackingout.ExecResult{}, nil
}

type lostIDStorage struct{}

func (lostIDStorage) Query(context.Context, string, ...any) ([]trackingout.Row, error) {
	return []trackingout.Row{{"id": int64(41)}}, nil
}

func (lostIDStorage) Exec(context.Context, string, ...any) (trackingout.ExecResult, error) {
	return trackingout.ExecResult{RowsAffected: 1}, nil
}

func TestPersistStartZeroRowsAndVerificationFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	zero := &zeroInsertStorage{}
	_, err := service.NewPersistenceCoordinator(zero, sanitize.New(0), nil).PersistStart(ctx, sampleSession())
	assert.ErrorIs(t, err, apperrors.ErrPersistStartFailed)
	assert.Zero(t, zero.queries, "no verification after a failed insert")

	id, err := service.NewPersistenceCoordinator(lostIDStorage{}, sanitize.New(0), nil).PersistStart(ctx, sampleSession())
	require.NoError(t, err)
	assert.Equal(t, int64(41), id, "verification read supplies the id when the driver does not")
}
