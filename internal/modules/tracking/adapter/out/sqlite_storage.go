package out

import (
	"context"
	"database/sql"
	"fmt"

	trackingout "tally/internal/modules/tracking/port/out"
)

// SQLiteStorage runs tracking statements against the tasks table.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(db *sql.DB) (trackingout.Storage, error) {
	storage := &SQLiteStorage{db: db}
	if err := EnsureTaskSchema(context.Background(), db); err != nil {
		return nil, err
	}
	return storage, nil
}

// EnsureTaskSchema creates the tasks table. Its columns are the only
// persisted contract between process runs.
func EnsureTaskSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  project_id INTEGER,
  client_id INTEGER,
  start_time TEXT NOT NULL,
  end_time TEXT,
  time_spent INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_open ON tasks (end_time);
CREATE INDEX IF NOT EXISTS idx_tasks_name_start ON tasks (name, start_time);
`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Query(ctx context.Context, query string, args ...any) ([]trackingout.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	var out []trackingout.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(trackingout.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStorage) Exec(ctx context.Context, query string, args ...any) (trackingout.ExecResult, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return trackingout.ExecResult{}, fmt.Errorf("exec: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return trackingout.ExecResult{}, fmt.Errorf("rows affected: %w", err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		lastID = 0
	}
	return trackingout.ExecResult{RowsAffected: affected, LastInsertID: lastID}, nil
}
