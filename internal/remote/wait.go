package remote

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultPollTimeout  = 240 * time.Second
)

var (
	ErrExecutionFailed = errors.New("remote service execution failed")
	ErrTimeout         = errors.New("remote service did not finish in time")
)

// ExecutionError is returned when the vehicle reports StateError.
type ExecutionError struct {
	Status Status
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("remote service %s failed: %v", e.Status.EventID, e.Status.Details)
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed
}

// TimeoutError is returned when no final state arrived within the poll timeout.
type TimeoutError struct {
	EventID string
	Timeout time.Duration
	Last    Status
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("remote service %s still %s after %s", e.EventID, e.Last.State, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// FetchFunc returns the latest known status of eventID.
type FetchFunc func(ctx context.Context, eventID string) (Status, error)

// Poller waits for a remote service to reach a final state.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (p Poller) withDefaults() Poller {
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultPollTimeout
	}
	return p
}

// WaitUntilDone waits one interval, then fetches the status of eventID every
// interval until it is final. StateError yields an *ExecutionError. When the
// timeout passes first, the result is a *TimeoutError carrying the last status.
// Cancelling ctx returns ctx.Err().
func (p Poller) WaitUntilDone(ctx context.Context, eventID string, fetch FetchFunc) (Status, error) {
	p = p.withDefaults()

	deadline := time.NewTimer(p.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	last := Status{EventID: eventID, State: StateUnknown}
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-deadline.C:
			return last, &TimeoutError{EventID: eventID, Timeout: p.Timeout, Last: last}
		case <-ticker.C:
		}

		st, err := fetch(ctx, eventID)
		if err != nil {
			return last, err
		}
		last = st

		if st.State == StateError {
			return st, &ExecutionError{Status: st}
		}
		if st.State.Final() {
			return st, nil
		}
	}
}
