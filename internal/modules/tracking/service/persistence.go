package service

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/modules/tracking/domain"
	trackingout "tally/internal/modules/tracking/port/out"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/logging"
)

const (
	insertTaskSQL = `INSERT INTO tasks (name, project_id, client_id, start_time, end_time, time_spent, created_at)
VALUES (?, ?, ?, ?, NULL, 0, ?)`
	verifyStartSQL = `SELECT id FROM tasks WHERE name = ? AND start_time = ? ORDER BY id DESC LIMIT 1`
	checkpointSQL  = `UPDATE tasks SET time_spent = ? WHERE id = ? AND end_time IS NULL`
	stopSQL        = `UPDATE tasks SET end_time = ?, time_spent = ? WHERE id = ? AND end_time IS NULL`
)

// PersistenceCoordinator is the only writer of the task table for tracking.
type PersistenceCoordinator struct {
	storage   trackingout.Storage
	validator trackingout.Validator
	logger    *slog.Logger
}

func NewPersistenceCoordinator(storage trackingout.Storage, validator trackingout.Validator, logger *slog.Logger) *PersistenceCoordinator {
	return &PersistenceCoordinator{storage: storage, validator: validator, logger: logging.OrDiscard(logger)}
}

// PersistStart inserts the open task row and returns its id. A verification
// read follows the insert; a mismatch there is only logged.
func (c *PersistenceCoordinator) PersistStart(ctx context.Context, session domain.Session) (int64, error) {
	name, err := c.validator.Text("name", session.Name)
	if err != nil {
		return 0, err
	}
	if err := c.validator.ID("project id", session.ProjectID); err != nil {
		return 0, err
	}
	if err := c.validator.ID("client id", session.ClientID); err != nil {
		return 0, err
	}
	start, err := c.validator.Timestamp("start time", session.StartedWall)
	if err != nil {
		return 0, err
	}

	res, err := c.storage.Exec(ctx, insertTaskSQL, name, nullableID(session.ProjectID), nullableID(session.ClientID), start, start)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistStartFailed, err)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: insert affected no rows", apperrors.ErrPersistStartFailed)
	}
	return c.verifyStart(ctx, res.LastInsertID, name, start), nil
}

func (c *PersistenceCoordinator) verifyStart(ctx context.Context, insertedID int64, name, start string) int64 {
	rows, err := c.storage.Query(ctx, verifyStartSQL, name, start)
	if err != nil {
		c.logger.Warn("start verification query failed", "task_id", insertedID, "name", name, "err", err)
		return insertedID
	}
	if len(rows) == 0 {
		c.logger.Warn("start verification found no row", "task_id", insertedID, "name", name, "start_time", start)
		return insertedID
	}
	found := asInt64(rows[0]["id"])
	if insertedID == 0 {
		return found
	}
	if found != insertedID {
		c.logger.Warn("start verification mismatch", "task_id", insertedID, "verified_id", found, "name", name)
	}
	return insertedID
}

// PersistCheckpoint records in-progress elapsed time on the open row. The
// error is informational; callers on the tick path drop it.
func (c *PersistenceCoordinator) PersistCheckpoint(ctx context.Context, taskID, elapsedSeconds int64) error {
	if taskID <= 0 {
		return fmt.Errorf("%w: no task id", apperrors.ErrCheckpointFailed)
	}
	if err := c.validator.Seconds("elapsed seconds", elapsedSeconds); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrCheckpointFailed, err)
	}
	res, err := c.storage.Exec(ctx, checkpointSQL, elapsedSeconds, taskID)
	if err != nil {
		c.logger.Warn("checkpoint write failed", "task_id", taskID, "elapsed", elapsedSeconds, "err", err)
		return fmt.Errorf("%w: %w", apperrors.ErrCheckpointFailed, err)
	}
	if res.RowsAffected == 0 {
		c.logger.Warn("checkpoint matched no open row", "task_id", taskID, "elapsed", elapsedSeconds)
		return fmt.Errorf("%w: no open row for task %d", apperrors.ErrCheckpointFailed, taskID)
	}
	return nil
}

// PersistStop closes the row. Zero affected rows means the row is missing or
// already closed and is reported as a stop failure.
func (c *PersistenceCoordinator) PersistStop(ctx context.Context, taskID int64, endTimestamp string, finalElapsedSeconds int64) error {
	if taskID <= 0 {
		return fmt.Errorf("%w: no task id", apperrors.ErrPersistStopFailed)
	}
	end, err := c.validator.Timestamp("end time", endTimestamp)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrPersistStopFailed, err)
	}
	if err := c.validator.Seconds("elapsed seconds", finalElapsedSeconds); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrPersistStopFailed, err)
	}
	res, err := c.storage.Exec(ctx, stopSQL, end, finalElapsedSeconds, taskID)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrPersistStopFailed, err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: task %d is missing or already closed", apperrors.ErrPersistStopFailed, taskID)
	}
	return nil
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
