package in

import (
	"context"
	"io"

	"tally/internal/modules/ledger/dto"
)

type Usecase interface {
	Tasks(ctx context.Context) ([]dto.TaskOutput, error)
	Stacks(ctx context.Context) ([]dto.StackOutput, error)
	Stale(ctx context.Context, input dto.StaleInput) ([]dto.TaskOutput, error)
	CloseStale(ctx context.Context, input dto.StaleActionInput) (dto.TaskOutput, error)
	DiscardStale(ctx context.Context, input dto.StaleActionInput) error
	Export(ctx context.Context, w io.Writer, input dto.ExportInput) error
}
