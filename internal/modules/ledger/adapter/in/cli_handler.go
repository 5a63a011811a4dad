package in

import (
	"context"
	"io"

	ledgerdto "tally/internal/modules/ledger/dto"
	ledgerin "tally/internal/modules/ledger/port/in"
)

type CLIHandler struct {
	usecase ledgerin.Usecase
}

func NewCLIHandler(usecase ledgerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Tasks(ctx context.Context) ([]ledgerdto.TaskOutput, error) {
	return h.usecase.Tasks(ctx)
}

func (h CLIHandler) Stacks(ctx context.Context) ([]ledgerdto.StackOutput, error) {
	return h.usecase.Stacks(ctx)
}

func (h CLIHandler) Stale(ctx context.Context, activeTaskID int64) ([]ledgerdto.TaskOutput, error) {
	return h.usecase.Stale(ctx, ledgerdto.StaleInput{ExcludeTaskID: activeTaskID})
}

func (h CLIHandler) CloseStale(ctx context.Context, id, activeTaskID int64) (ledgerdto.TaskOutput, error) {
	return h.usecase.CloseStale(ctx, ledgerdto.StaleActionInput{TaskID: id, ActiveTaskID: activeTaskID})
}

func (h CLIHandler) DiscardStale(ctx context.Context, id, activeTaskID int64) error {
	return h.usecase.DiscardStale(ctx, ledgerdto.StaleActionInput{TaskID: id, ActiveTaskID: activeTaskID})
}

func (h CLIHandler) Export(ctx context.Context, w io.Writer, format, existing string) error {
	return h.usecase.Export(ctx, w, ledgerdto.ExportInput{Format: format, Existing: existing})
}
