package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/modules/ledger/domain"
	ledgerout "tally/internal/modules/ledger/port/out"
	"tally/internal/platform/clock"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/logging"
	"tally/internal/platform/sanitize"
	"tally/internal/platform/timefmt"
)

// DefaultLiveWindow is how recent a checkpoint must be for an open row to
// count as tracked by another running process.
const DefaultLiveWindow = time.Minute

type LedgerService struct {
	clock      clock.Clock
	sanitizer  sanitize.Sanitizer
	store      ledgerout.TaskStore
	liveWindow time.Duration
	logger     *slog.Logger
}

func NewLedgerService(clk clock.Clock, sanitizer sanitize.Sanitizer, store ledgerout.TaskStore, liveWindow time.Duration, logger *slog.Logger) *LedgerService {
	if liveWindow <= 0 {
		liveWindow = DefaultLiveWindow
	}
	return &LedgerService{
		clock:      clk,
		sanitizer:  sanitizer,
		store:      store,
		liveWindow: liveWindow,
		logger:     logging.OrDiscard(logger),
	}
}

func (s *LedgerService) Tasks(ctx context.Context) ([]domain.Task, error) {
	return s.store.List(ctx)
}

func (s *LedgerService) Stacks(ctx context.Context) ([]domain.Stack, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildStacks(tasks), nil
}

// Stale lists rows left open by an earlier process. They are reported,
// never resumed. Rows checkpointed within the live window belong to a tracker
// still running elsewhere and are skipped.
func (s *LedgerService) Stale(ctx context.Context, excludeID int64) ([]domain.Task, error) {
	open, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(open))
	for _, task := range open {
		if excludeID > 0 && task.ID == excludeID {
			continue
		}
		if s.live(task) {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

// CloseStale ends an open row at start_time + time_spent, the last moment
// a checkpoint vouched for.
func (s *LedgerService) CloseStale(ctx context.Context, id, activeID int64) (domain.Task, error) {
	task, err := s.staleTask(ctx, id, activeID)
	if err != nil {
		return domain.Task{}, err
	}
	started, err := timefmt.ParseTimestamp(task.StartTime)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %d start time: %w", id, apperrors.Invalid("start time", err.Error()))
	}
	end := timefmt.FormatTimestamp(started.Add(time.Duration(task.TimeSpent) * time.Second))
	if err := s.store.Close(ctx, task.ID, end, task.TimeSpent); err != nil {
		return domain.Task{}, err
	}
	s.logger.Info("stale task closed", "task_id", task.ID, "end_time", end)
	task.EndTime = end
	return task, nil
}

func (s *LedgerService) DiscardStale(ctx context.Context, id, activeID int64) error {
	task, err := s.staleTask(ctx, id, activeID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, task.ID); err != nil {
		return err
	}
	s.logger.Info("stale task discarded", "task_id", task.ID, "name", task.Name)
	return nil
}

func (s *LedgerService) staleTask(ctx context.Context, id, activeID int64) (domain.Task, error) {
	if err := s.sanitizer.ID("task id", id); err != nil {
		return domain.Task{}, err
	}
	if id == 0 {
		return domain.Task{}, apperrors.Invalid("task id", "is required")
	}
	if activeID > 0 && id == activeID {
		return domain.Task{}, apperrors.Invalid("task id", "belongs to the running session")
	}
	task, err := s.store.Find(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.Open() {
		return domain.Task{}, apperrors.Invalid("task id", "is already closed")
	}
	if s.live(task) {
		return domain.Task{}, fmt.Errorf("%w: task %d was checkpointed less than %s ago and may still be tracked", apperrors.ErrConflict, id, s.liveWindow)
	}
	return task, nil
}

// live reports whether the row's last checkpoint, start_time + time_spent,
// falls inside the live window. Unparseable start times are never live.
func (s *LedgerService) live(task domain.Task) bool {
	started, err := timefmt.ParseTimestamp(task.StartTime)
	if err != nil {
		return false
	}
	last := started.Add(time.Duration(task.TimeSpent) * time.Second)
	return s.clock.Now().Sub(last) < s.liveWindow
}
