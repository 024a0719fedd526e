// Package fsm holds helpers for callbacks of github.com/looplab/fsm machines.
package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error returning callback. A non-nil error is stored on
// the event and returned by FSM.Event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// IgnoreNoTransition drops the errors FSM.Event returns when nothing went
// wrong: a transition to the current state or a transition cancelled by a guard.
func IgnoreNoTransition(err error) error {
	if err == nil {
		return nil
	}

	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError
	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return nil
	}
	return err
}
