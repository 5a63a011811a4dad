package out

import (
	"context"
	"time"
)

// Row is one result row keyed by column name.
type Row map[string]any

type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Storage executes parameterized statements against the task table.
type Storage interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Exec(ctx context.Context, query string, args ...any) (ExecResult, error)
}

// Validator vets values before they are bound into statements.
type Validator interface {
	Text(field, value string) (string, error)
	ID(field string, id int64) error
	Seconds(field string, seconds int64) error
	Timestamp(field, value string) (string, error)
}

// Scheduler runs fn every period until cancel is called. cancel must not
// block on a running fn.
type Scheduler interface {
	Every(period time.Duration, fn func()) (cancel func())
}
