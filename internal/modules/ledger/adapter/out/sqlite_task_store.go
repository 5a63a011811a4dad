package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/modules/ledger/domain"
	ledgerout "tally/internal/modules/ledger/port/out"
	apperrors "tally/internal/platform/errors"
)

// SQLiteTaskStore reads the tasks table the tracking module writes, joined
// with the catalog names. Both tables must already exist.
type SQLiteTaskStore struct {
	db *sql.DB
}

func NewSQLiteTaskStore(db *sql.DB) ledgerout.TaskStore {
	return &SQLiteTaskStore{db: db}
}

const selectTasks = `
SELECT t.id, t.name, t.project_id, COALESCE(p.name, ''), t.client_id, COALESCE(c.name, ''),
       t.start_time, t.end_time, t.time_spent
FROM tasks t
LEFT JOIN projects p ON p.id = t.project_id
LEFT JOIN clients c ON c.id = t.client_id`

func (s *SQLiteTaskStore) List(ctx context.Context) ([]domain.Task, error) {
	return s.query(ctx, selectTasks+` ORDER BY t.start_time, t.id`)
}

func (s *SQLiteTaskStore) ListOpen(ctx context.Context) ([]domain.Task, error) {
	return s.query(ctx, selectTasks+` WHERE t.end_time IS NULL ORDER BY t.start_time, t.id`)
}

func (s *SQLiteTaskStore) Find(ctx context.Context, id int64) (domain.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, selectTasks+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("task %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

func (s *SQLiteTaskStore) Close(ctx context.Context, id int64, endTime string, timeSpent int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET end_time = ?, time_spent = ? WHERE id = ? AND end_time IS NULL`,
		endTime, timeSpent, id)
	if err != nil {
		return fmt.Errorf("close task: %w", err)
	}
	return requireRow(res, id)
}

func (s *SQLiteTaskStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res, id)
}

func (s *SQLiteTaskStore) query(ctx context.Context, q string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	var out []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (domain.Task, error) {
	var (
		task      domain.Task
		projectID sql.NullInt64
		clientID  sql.NullInt64
		endTime   sql.NullString
	)
	if err := row.Scan(&task.ID, &task.Name, &projectID, &task.ProjectName, &clientID, &task.ClientName,
		&task.StartTime, &endTime, &task.TimeSpent); err != nil {
		return domain.Task{}, err
	}
	task.ProjectID = projectID.Int64
	task.ClientID = clientID.Int64
	task.EndTime = endTime.String
	return task, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("open task %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
