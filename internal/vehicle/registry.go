package vehicle

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/autopeer-io/cpeer-report/internal/pkg/metrics"
	"github.com/autopeer-io/cpeer-report/internal/report"
	"github.com/autopeer-io/cpeer-report/pkg/log"
)

// ErrEmptyVIN is returned when a document is ingested without a VIN.
var ErrEmptyVIN = errors.New("vin must not be empty")

// CommitFunc is called with the stored state while Ingest still holds the
// VIN. Consecutive commits of one VIN never overlap and see states in the
// order they were stored.
type CommitFunc func(State)

// Registry holds the latest State per VIN. It is safe for concurrent use.
// Documents of different VINs are derived concurrently; documents of one VIN
// are applied one after another.
type Registry struct {
	mu     sync.RWMutex
	states map[string]State
	// locks serializes Ingest per VIN. A slot is taken by sending to the channel.
	locks  map[string]chan struct{}
	logger log.Logger
}

func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry{
		states: make(map[string]State),
		locks:  make(map[string]chan struct{}),
		logger: logger.WithName("registry"),
	}
}

// Ingest applies doc to the stored state of vin, stores the result and runs
// commit with it. The stored state is updated even when some kinds fail; the
// returned error lists those kinds. If ctx is done before vin can be taken,
// ctx.Err() is returned and nothing is stored.
func (r *Registry) Ingest(ctx context.Context, vin string, doc report.Document, commit ...CommitFunc) (State, error) {
	if vin == "" {
		return State{}, ErrEmptyVIN
	}

	release, err := r.acquire(ctx, vin)
	if err != nil {
		return State{}, err
	}
	defer release()

	r.mu.RLock()
	prev, ok := r.states[vin]
	r.mu.RUnlock()
	if !ok {
		prev = State{VIN: vin}
	}

	next, err := prev.Apply(doc)

	r.mu.Lock()
	r.states[vin] = next
	metrics.VehiclesTracked.Set(float64(len(r.states)))
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("Vehicle state partially applied", "vin", vin, "error", err)
	} else {
		r.logger.Debug("Vehicle state applied", "vin", vin)
	}

	for _, fn := range commit {
		fn(next)
	}
	return next, err
}

func (r *Registry) acquire(ctx context.Context, vin string) (func(), error) {
	r.mu.Lock()
	lock, ok := r.locks[vin]
	if !ok {
		lock = make(chan struct{}, 1)
		r.locks[vin] = lock
	}
	r.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the state stored for vin.
func (r *Registry) Get(vin string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.states[vin]
	return s, ok
}

// List returns all stored states ordered by VIN.
func (r *Registry) List() []State {
	r.mu.RLock()
	out := make([]State, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].VIN < out[j].VIN })
	return out
}

// Len returns the number of tracked vehicles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}
