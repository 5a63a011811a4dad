package usecase

import (
	"context"
	"io"
	"strings"

	"tally/internal/modules/ledger/domain"
	"tally/internal/modules/ledger/dto"
	ledgerin "tally/internal/modules/ledger/port/in"
	ledgerout "tally/internal/modules/ledger/port/out"
	"tally/internal/modules/ledger/service"
	"tally/internal/platform/clock"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/timefmt"
)

type Interactor struct {
	svc      *service.LedgerService
	clock    clock.Clock
	encoders map[string]ledgerout.Encoder
}

func NewInteractor(svc *service.LedgerService, clk clock.Clock, encoders ...ledgerout.Encoder) ledgerin.Usecase {
	byFormat := make(map[string]ledgerout.Encoder, len(encoders))
	for _, enc := range encoders {
		byFormat[enc.Format()] = enc
	}
	return &Interactor{svc: svc, clock: clk, encoders: byFormat}
}

func (i *Interactor) Tasks(ctx context.Context) ([]dto.TaskOutput, error) {
	tasks, err := i.svc.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	return taskOutputs(tasks), nil
}

func (i *Interactor) Stacks(ctx context.Context) ([]dto.StackOutput, error) {
	stacks, err := i.svc.Stacks(ctx)
	if err != nil {
		return nil, err
	}
	return stackOutputs(stacks), nil
}

func (i *Interactor) Stale(ctx context.Context, input dto.StaleInput) ([]dto.TaskOutput, error) {
	tasks, err := i.svc.Stale(ctx, input.ExcludeTaskID)
	if err != nil {
		return nil, err
	}
	return taskOutputs(tasks), nil
}

func (i *Interactor) CloseStale(ctx context.Context, input dto.StaleActionInput) (dto.TaskOutput, error) {
	task, err := i.svc.CloseStale(ctx, input.TaskID, input.ActiveTaskID)
	if err != nil {
		return dto.TaskOutput{}, err
	}
	return taskOutput(task), nil
}

func (i *Interactor) DiscardStale(ctx context.Context, input dto.StaleActionInput) error {
	return i.svc.DiscardStale(ctx, input.TaskID, input.ActiveTaskID)
}

func (i *Interactor) Export(ctx context.Context, w io.Writer, input dto.ExportInput) error {
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = "yaml"
	}
	enc, ok := i.encoders[format]
	if !ok {
		return apperrors.Invalid("format", "unsupported export format "+format)
	}
	tasks, err := i.svc.Tasks(ctx)
	if err != nil {
		return err
	}
	report := dto.Report{
		GeneratedAt: timefmt.FormatTimestamp(i.clock.Now()),
		Tasks:       taskOutputs(tasks),
		Stacks:      stackOutputs(domain.BuildStacks(tasks)),
	}
	if merger, ok := enc.(ledgerout.Merger); ok && input.Existing != "" {
		merged, err := merger.Merge(input.Existing, report)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, merged)
		return err
	}
	return enc.Encode(w, report)
}

func taskOutputs(tasks []domain.Task) []dto.TaskOutput {
	out := make([]dto.TaskOutput, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskOutput(task))
	}
	return out
}

func taskOutput(task domain.Task) dto.TaskOutput {
	return dto.TaskOutput{
		ID:          task.ID,
		Name:        task.Name,
		GroupKey:    task.GroupKey(),
		ProjectName: task.ProjectName,
		ClientName:  task.ClientName,
		StartTime:   task.StartTime,
		EndTime:     task.EndTime,
		TimeSpent:   task.TimeSpent,
		Open:        task.Open(),
	}
}

func stackOutputs(stacks []domain.Stack) []dto.StackOutput {
	out := make([]dto.StackOutput, 0, len(stacks))
	for _, s := range stacks {
		out = append(out, dto.StackOutput{
			GroupKey:     s.GroupKey,
			BaseName:     s.BaseName,
			ProjectID:    s.ProjectID,
			ProjectName:  s.ProjectName,
			ClientID:     s.ClientID,
			ClientName:   s.ClientName,
			Count:        s.Count,
			TotalSeconds: s.TotalSeconds,
			Open:         s.Open,
			LastStart:    s.LastStart,
			TaskIDs:      s.TaskIDs,
		})
	}
	return out
}
