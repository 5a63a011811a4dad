package app

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	trackingdto "tally/internal/modules/tracking/dto"
)

// globalObservers are registered for the lifetime of the program with no
// scope. Row highlights are registered per stack as stacks load.
var globalObservers = []trackingdto.ObserverKind{
	trackingdto.ObserverButton,
	trackingdto.ObserverTimeLabel,
	trackingdto.ObserverMoneyLabel,
	trackingdto.ObserverHeader,
	trackingdto.ObserverCompactTracker,
}

type Options struct {
	Currency string
	Compact  bool
	// AltScreen is off for the compact tracker so it stays inline.
	AltScreen bool
}

// Run starts the TUI and blocks until it quits or ctx is done. Every
// observer it registered is unregistered before it returns.
func Run(ctx context.Context, tracker trackerPort, ledger ledgerPort, catalog catalogPort, opts Options) error {
	model := NewModel(tracker, ledger, catalog, opts.Currency, opts.Compact)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen && !opts.Compact {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, progOpts...)
	model.fwd.attach(program.Send)
	defer model.fwd.attach(nil)

	unregister := make([]func(), 0, len(globalObservers))
	for _, kind := range globalObservers {
		unregister = append(unregister, tracker.Watch(kind, "", model.fwd.observer(kind)))
	}
	defer func() {
		for _, fn := range unregister {
			fn()
		}
		model.rows.clear()
	}()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// forwarder turns observer callbacks into program messages. Before attach
// and after the program ends, events are dropped.
type forwarder struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (f *forwarder) attach(send func(tea.Msg)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.send = send
}

func (f *forwarder) observer(kind trackingdto.ObserverKind) func(trackingdto.Event) {
	return func(e trackingdto.Event) {
		f.mu.Lock()
		send := f.send
		f.mu.Unlock()
		if send != nil {
			send(EventMsg{Observer: kind, Event: e})
		}
	}
}

// rowWatches keeps one row_highlight observer per visible stack and
// unregisters rows that disappear.
type rowWatches struct {
	mu      sync.Mutex
	tracker trackerPort
	fwd     *forwarder
	byKey   map[string]func()
}

func newRowWatches(tracker trackerPort, fwd *forwarder) *rowWatches {
	return &rowWatches{tracker: tracker, fwd: fwd, byKey: map[string]func(){}}
}

func (r *rowWatches) sync(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
		if _, ok := r.byKey[k]; !ok {
			r.byKey[k] = r.tracker.Watch(trackingdto.ObserverRowHighlight, k, r.fwd.observer(trackingdto.ObserverRowHighlight))
		}
	}
	for k, unregister := range r.byKey {
		if !want[k] {
			unregister()
			delete(r.byKey, k)
		}
	}
}

func (r *rowWatches) clear() {
	r.sync(nil)
}

func (r *rowWatches) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}
