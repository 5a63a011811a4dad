package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	catalogdto "tally/internal/modules/catalog/dto"
	trackingdto "tally/internal/modules/tracking/dto"
	trackingin "tally/internal/modules/tracking/port/in"
	trackingout "tally/internal/modules/tracking/port/out"
	"tally/internal/modules/tracking/service"
	"tally/internal/modules/tracking/usecase"
	"tally/internal/platform/sanitize"
	"tally/internal/testutil"
)

type call struct {
	op   string
	args []any
}

// recordingStorage classifies statements by what they do to the tasks table.
type recordingStorage struct {
	mu    sync.Mutex
	calls []call

	nextID           int64
	insertAffected   int64
	checkpointAffect int64
	stopAffected     int64
	insertErr        error
	checkpointErr    error
	stopErr          error
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{nextID: 1, insertAffected: 1, checkpointAffect: 1, stopAffected: 1}
}

func (s *recordingStorage) Query(_ context.Context, query string, args ...any) ([]trackingout.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{op: "verify", args: args})
	return []trackingout.Row{{"id": s.nextID - 1}}, nil
}

func (s *recordingStorage) Exec(_ context.Context, query string, args ...any) (trackingout.ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.HasPrefix(query, "INSERT"):
		s.calls = append(s.calls, call{op: "start", args: args})
		if s.insertErr != nil {
			return trackingout.ExecResult{}, s.insertErr
		}
		if s.insertAffected == 0 {
			return trackingout.ExecResult{}, nil
		}
		id := s.nextID
		s.nextID++
		return trackingout.ExecResult{RowsAffected: s.insertAffected, LastInsertID: id}, nil
	case strings.Contains(query, "SET time_spent"):
		s.calls = append(s.calls, call{op: "checkpoint", args: args})
		if s.checkpointErr != nil {
			return trackingout.ExecResult{}, s.checkpointErr
		}
		return trackingout.ExecResult{RowsAffected: s.checkpointAffect}, nil
	case strings.Contains(query, "SET end_time"):
		s.calls = append(s.calls, call{op: "stop", args: args})
		if s.stopErr != nil {
			return trackingout.ExecResult{}, s.stopErr
		}
		return trackingout.ExecResult{RowsAffected: s.stopAffected}, nil
	}
	return trackingout.ExecResult{}, errors.New("unexpected statement: " + query)
}

func (s *recordingStorage) ops(op string) []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (s *recordingStorage) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeCatalog struct {
	contexts map[[2]int64]catalogdto.ContextOutput
	calls    int
}

func (f *fakeCatalog) AddClient(context.Context, catalogdto.AddClientInput) (catalogdto.ClientOutput, error) {
	return catalogdto.ClientOutput{}, nil
}
func (f *fakeCatalog) ListClients(context.Context) ([]catalogdto.ClientOutput, error) { return nil, nil }
func (f *fakeCatalog) AddProject(context.Context, catalogdto.AddProjectInput) (catalogdto.ProjectOutput, error) {
	return catalogdto.ProjectOutput{}, nil
}
func (f *fakeCatalog) ListProjects(context.Context) ([]catalogdto.ProjectOutput, error) {
	return nil, nil
}
func (f *fakeCatalog) Describe(_ context.Context, input catalogdto.DescribeInput) (catalogdto.ContextOutput, error) {
	f.calls++
	return f.contexts[[2]int64{input.ProjectID, input.ClientID}], nil
}

// recorder is an observer that keeps every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []trackingdto.Event
}

func (r *recorder) observe(kind trackingdto.ObserverKind, scope string) trackingin.ObserverFunc {
	return trackingin.ObserverFunc{ObserverKind: kind, GroupKey: scope, Fn: func(e trackingdto.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	}}
}

func (r *recorder) kinds() []trackingdto.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trackingdto.EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *recorder) all() []trackingdto.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trackingdto.Event, len(r.events))
	copy(out, r.events)
	return out
}

type harness struct {
	authority *usecase.Authority
	storage   *recordingStorage
	clock     *testutil.ManualClock
	scheduler *testutil.ManualScheduler
	catalog   *fakeCatalog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		storage:   newRecordingStorage(),
		clock:     testutil.NewManualClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local)),
		scheduler: testutil.NewManualScheduler(),
		catalog: &fakeCatalog{contexts: map[[2]int64]catalogdto.ContextOutput{
			{1, 1}: {ProjectID: 1, ProjectName: "Docs", ClientID: 1, ClientName: "Acme", RateCents: 7200},
			{2, 1}: {ProjectID: 2, ProjectName: "Web", ClientID: 1, ClientName: "Acme"},
		}},
	}
	san := sanitize.New(0)
	h.authority = usecase.NewAuthority(
		h.clock,
		h.scheduler,
		service.NewPersistenceCoordinator(h.storage, san, nil),
		service.NewBus(nil),
		h.catalog,
		san,
		nil,
		time.Second,
	)
	return h
}

// tick moves the clock one period and fires the live timer.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	h.clock.Advance(time.Second)
	h.scheduler.Fire()
}
