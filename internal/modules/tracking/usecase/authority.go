package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	catalogdto "tally/internal/modules/catalog/dto"
	catalogin "tally/internal/modules/catalog/port/in"
	"tally/internal/modules/tracking/domain"
	trackingdto "tally/internal/modules/tracking/dto"
	trackingin "tally/internal/modules/tracking/port/in"
	trackingout "tally/internal/modules/tracking/port/out"
	"tally/internal/modules/tracking/service"
	"tally/internal/platform/clock"
	"tally/internal/platform/logging"
	"tally/internal/platform/timefmt"
)

const DefaultTickPeriod = time.Second

// Authority owns the single tracking session. Start, Stop, State and the
// tick are serialized by mu. Events are queued under mu and delivered after
// it is released, one dispatcher at a time, so observers may call back into
// the authority and still see start, ticks and stop in order.
type Authority struct {
	mu sync.Mutex

	clock     clock.Clock
	scheduler trackingout.Scheduler
	store     *service.PersistenceCoordinator
	bus       *service.Bus
	catalog   catalogin.Usecase
	validator trackingout.Validator
	logger    *slog.Logger
	period    time.Duration

	session     *domain.Session
	lastElapsed int64
	cancelTick  func()
	// generation changes on every start and stop so a tick that fires after
	// its timer was cancelled is recognised and dropped.
	generation uint64

	pending     []trackingdto.Event
	dispatching bool
}

func NewAuthority(
	clk clock.Clock,
	scheduler trackingout.Scheduler,
	store *service.PersistenceCoordinator,
	bus *service.Bus,
	catalog catalogin.Usecase,
	validator trackingout.Validator,
	logger *slog.Logger,
	period time.Duration,
) *Authority {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &Authority{
		clock:     clk,
		scheduler: scheduler,
		store:     store,
		bus:       bus,
		catalog:   catalog,
		validator: validator,
		logger:    logging.OrDiscard(logger),
		period:    period,
	}
}

var _ trackingin.Usecase = (*Authority)(nil)

// Start begins timing a task. An active session is stopped first, so
// observers see its stop before the new start. Validation and catalog
// failures leave the current state untouched; a failed insert leaves the
// authority idle.
func (a *Authority) Start(ctx context.Context, input trackingdto.StartInput) (trackingdto.StartOutput, error) {
	defer a.dispatch()
	a.mu.Lock()
	defer a.mu.Unlock()

	name, err := a.validator.Text("name", input.Name)
	if err != nil {
		return trackingdto.StartOutput{}, err
	}
	if err := a.validator.ID("project id", input.ProjectID); err != nil {
		return trackingdto.StartOutput{}, err
	}
	if err := a.validator.ID("client id", input.ClientID); err != nil {
		return trackingdto.StartOutput{}, err
	}
	where, err := a.describe(ctx, input.ProjectID, input.ClientID)
	if err != nil {
		return trackingdto.StartOutput{}, err
	}
	name, err = domain.ResolveUniqueName(name, where.ProjectName, where.ClientName, a.activeTasksLocked())
	if err != nil {
		return trackingdto.StartOutput{}, err
	}
	// The suffix can push the name past the length limit.
	if name, err = a.validator.Text("name", name); err != nil {
		return trackingdto.StartOutput{}, err
	}

	if a.session != nil {
		if _, err := a.stopLocked(ctx); err != nil {
			a.logger.Error("implicit stop failed", "err", err)
		}
	}

	now := a.clock.Now()
	session := domain.Session{
		GroupKey:    domain.GroupKey(name, where.ProjectName, where.ClientName),
		Name:        name,
		BaseName:    domain.BaseName(name),
		ProjectID:   where.ProjectID,
		ProjectName: where.ProjectName,
		ClientID:    where.ClientID,
		ClientName:  where.ClientName,
		RateCents:   where.RateCents,
		StartedAt:   now,
		StartedWall: timefmt.FormatTimestamp(now),
	}
	taskID, err := a.store.PersistStart(ctx, session)
	if err != nil {
		a.logger.Error("start not persisted", "name", name, "err", err)
		return trackingdto.StartOutput{}, err
	}
	session.TaskID = taskID

	a.session = &session
	a.lastElapsed = 0
	a.generation++
	gen := a.generation
	a.cancelTick = a.scheduler.Every(a.period, func() { a.tick(gen) })

	a.logger.Info("tracking started", "task_id", taskID, "group_key", session.GroupKey)
	a.pending = append(a.pending, eventFor(trackingdto.EventStart, session, 0))

	return trackingdto.StartOutput{
		TaskID:      taskID,
		TaskName:    session.Name,
		GroupKey:    session.GroupKey,
		ProjectName: session.ProjectName,
		ClientName:  session.ClientName,
		StartedAt:   session.StartedWall,
	}, nil
}

// Stop ends the active session. Stopping while idle succeeds and reports
// Stopped=false. The authority is idle afterwards even when the final write
// fails; that failure is returned and carried on the stop event.
func (a *Authority) Stop(ctx context.Context) (trackingdto.StopOutput, error) {
	defer a.dispatch()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return trackingdto.StopOutput{}, nil
	}
	return a.stopLocked(ctx)
}

func (a *Authority) stopLocked(ctx context.Context) (trackingdto.StopOutput, error) {
	if a.cancelTick != nil {
		a.cancelTick()
		a.cancelTick = nil
	}
	session := *a.session
	now := a.clock.Now()
	final := a.elapsedLocked(now)
	a.session = nil
	a.lastElapsed = 0
	a.generation++

	endedAt := timefmt.FormatTimestamp(now)
	persistErr := a.store.PersistStop(ctx, session.TaskID, endedAt, final)
	if persistErr != nil {
		a.logger.Error("stop not persisted", "task_id", session.TaskID, "elapsed", final, "err", persistErr)
	} else {
		a.logger.Info("tracking stopped", "task_id", session.TaskID, "elapsed", final)
	}

	event := eventFor(trackingdto.EventStop, session, final)
	event.Err = persistErr
	a.pending = append(a.pending, event)

	return trackingdto.StopOutput{
		Stopped:        true,
		TaskID:         session.TaskID,
		TaskName:       session.Name,
		GroupKey:       session.GroupKey,
		ElapsedSeconds: final,
		EndedAt:        endedAt,
	}, persistErr
}

// tick recomputes elapsed time, notifies, then checkpoints. The checkpoint is
// skipped when an observer stopped or replaced the session meanwhile. Checkpoint
// failures are logged by the coordinator and otherwise ignored; the next tick
// writes again.
func (a *Authority) tick(gen uint64) {
	a.mu.Lock()
	if a.session == nil || gen != a.generation {
		a.mu.Unlock()
		return
	}
	taskID := a.session.TaskID
	elapsed := a.elapsedLocked(a.clock.Now())
	a.pending = append(a.pending, eventFor(trackingdto.EventTick, *a.session, elapsed))
	a.mu.Unlock()
	a.dispatch()

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.period)
	defer cancel()
	_ = a.store.PersistCheckpoint(ctx, taskID, elapsed)
}

// State returns a snapshot of the current session.
func (a *Authority) State() trackingdto.StateOutput {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return trackingdto.StateOutput{State: string(domain.StateIdle)}
	}
	elapsed := a.session.ElapsedSeconds(a.clock.Now())
	if elapsed < a.lastElapsed {
		elapsed = a.lastElapsed
	}
	return trackingdto.StateOutput{
		State:          string(domain.StateActive),
		Active:         true,
		TaskID:         a.session.TaskID,
		TaskName:       a.session.Name,
		GroupKey:       a.session.GroupKey,
		ProjectName:    a.session.ProjectName,
		ClientName:     a.session.ClientName,
		ElapsedSeconds: elapsed,
		RateCents:      a.session.RateCents,
		StartedAt:      a.session.StartedWall,
	}
}

func (a *Authority) Register(observer trackingin.Observer) trackingin.Registration {
	return a.bus.Register(observer)
}

func (a *Authority) Close(ctx context.Context) error {
	_, err := a.Stop(ctx)
	return err
}

// dispatch delivers queued events outside mu. A call made while another
// dispatch is running, including one from inside an observer, only queues;
// the running dispatcher delivers its events after the current one.
func (a *Authority) dispatch() {
	a.mu.Lock()
	if a.dispatching {
		a.mu.Unlock()
		return
	}
	a.dispatching = true
	for len(a.pending) > 0 {
		event := a.pending[0]
		a.pending = a.pending[1:]
		a.mu.Unlock()
		a.bus.Publish(event)
		a.mu.Lock()
	}
	a.pending = nil
	a.dispatching = false
	a.mu.Unlock()
}

// elapsedLocked keeps reported elapsed time non-decreasing within a session.
func (a *Authority) elapsedLocked(now time.Time) int64 {
	elapsed := a.session.ElapsedSeconds(now)
	if elapsed < a.lastElapsed {
		elapsed = a.lastElapsed
	}
	a.lastElapsed = elapsed
	return elapsed
}

func (a *Authority) activeTasksLocked() []domain.ActiveTask {
	if a.session == nil {
		return nil
	}
	return []domain.ActiveTask{{Name: a.session.Name, GroupKey: a.session.GroupKey}}
}

func (a *Authority) describe(ctx context.Context, projectID, clientID int64) (catalogdto.ContextOutput, error) {
	if a.catalog == nil {
		if projectID != 0 || clientID != 0 {
			return catalogdto.ContextOutput{}, errors.New("catalog is not configured")
		}
		return catalogdto.ContextOutput{}, nil
	}
	return a.catalog.Describe(ctx, catalogdto.DescribeInput{ProjectID: projectID, ClientID: clientID})
}

func eventFor(kind trackingdto.EventKind, session domain.Session, elapsed int64) trackingdto.Event {
	return trackingdto.Event{
		Kind:           kind,
		GroupKey:       session.GroupKey,
		TaskID:         session.TaskID,
		TaskName:       session.Name,
		BaseName:       session.BaseName,
		ProjectName:    session.ProjectName,
		ClientName:     session.ClientName,
		ElapsedSeconds: elapsed,
		RateCents:      session.RateCents,
		EarnedCents:    session.EarnedCents(elapsed),
		StartedAt:      session.StartedWall,
	}
}
