package in

import (
	"context"

	"tally/internal/modules/tracking/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	Stop(ctx context.Context) (dto.StopOutput, error)
	State() dto.StateOutput
	Register(observer Observer) Registration
	// Close stops any active session and releases the tick timer.
	Close(ctx context.Context) error
}

// Observer is a UI surface that re-renders from session events. Scope is a
// group key, or "" to receive events for every session. Update runs on the
// caller of Start/Stop or on the tick, after the session lock is released;
// it may call State, Start or Stop, whose events are delivered after the
// current one.
type Observer interface {
	Kind() dto.ObserverKind
	Scope() string
	Update(event dto.Event)
}

// Registration ties an observer's lifetime to its owner. Unregister is
// idempotent and safe to call from inside Update.
type Registration interface {
	Unregister()
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc struct {
	ObserverKind dto.ObserverKind
	GroupKey     string
	Fn           func(dto.Event)
}

func (o ObserverFunc) Kind() dto.ObserverKind { return o.ObserverKind }
func (o ObserverFunc) Scope() string          { return o.GroupKey }
func (o ObserverFunc) Update(event dto.Event) {
	if o.Fn != nil {
		o.Fn(event)
	}
}
