package out

import (
	"context"
	"io"

	"tally/internal/modules/ledger/domain"
	"tally/internal/modules/ledger/dto"
)

type TaskStore interface {
	List(ctx context.Context) ([]domain.Task, error)
	ListOpen(ctx context.Context) ([]domain.Task, error)
	Find(ctx context.Context, id int64) (domain.Task, error)
	// Close sets end_time and time_spent only on a row that is still open.
	Close(ctx context.Context, id int64, endTime string, timeSpent int64) error
	Delete(ctx context.Context, id int64) error
}

type Encoder interface {
	Format() string
	Encode(w io.Writer, report dto.Report) error
}

// Merger is an Encoder that can rewrite its own section of an existing
// document and leave the rest untouched.
type Merger interface {
	Encoder
	Merge(existing string, report dto.Report) (string, error)
}
