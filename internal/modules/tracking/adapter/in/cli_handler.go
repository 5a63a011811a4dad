package in

import (
	"context"

	trackingdto "tally/internal/modules/tracking/dto"
	trackingin "tally/internal/modules/tracking/port/in"
	apperrors "tally/internal/platform/errors"
)

type CLIHandler struct {
	usecase trackingin.Usecase
}

func NewCLIHandler(usecase trackingin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, name string, projectID, clientID int64) (trackingdto.StartOutput, error) {
	return h.usecase.Start(ctx, trackingdto.StartInput{Name: name, ProjectID: projectID, ClientID: clientID})
}

func (h CLIHandler) Stop(ctx context.Context) (trackingdto.StopOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) State() trackingdto.StateOutput {
	return h.usecase.State()
}

// Active returns the running session or apperrors.ErrNoActiveSession.
func (h CLIHandler) Active() (trackingdto.StateOutput, error) {
	state := h.usecase.State()
	if !state.Active {
		return trackingdto.StateOutput{}, apperrors.ErrNoActiveSession
	}
	return state, nil
}

// Watch registers fn as an observer until the returned func is called.
func (h CLIHandler) Watch(kind trackingdto.ObserverKind, scope string, fn func(trackingdto.Event)) func() {
	reg := h.usecase.Register(trackingin.ObserverFunc{ObserverKind: kind, GroupKey: scope, Fn: fn})
	return reg.Unregister
}

func (h CLIHandler) Close(ctx context.Context) error {
	return h.usecase.Close(ctx)
}
