// Package vehicle keeps the derived report snapshot of each vehicle and
// applies incoming state documents to it.
package vehicle

import (
	"fmt"
	"sync"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/cpeer-report/internal/pkg/metrics"
	"github.com/autopeer-io/cpeer-report/internal/report"
)

// State is the report snapshot of one vehicle.
type State struct {
	VIN          string                    `json:"vin"`
	Services     report.ServiceReport      `json:"services"`
	CheckControl report.CheckControlReport `json:"check_control"`
	Headunit     report.Headunit           `json:"headunit"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

type derived struct {
	update report.Update
	err    error
}

// Apply derives every report kind from doc and returns the resulting state.
// s is not modified. A kind whose derivation fails keeps its previous value;
// the failures are returned together as an aggregate error.
func (s State) Apply(doc report.Document) (State, error) {
	return s.apply(doc, report.Derivers())
}

func (s State) apply(doc report.Document, derivers []report.Deriver) (State, error) {
	results := make([]derived, len(derivers))

	var wg sync.WaitGroup
	for i, d := range derivers {
		wg.Go(func() {
			start := time.Now()
			u, err := derive(d, doc)
			results[i] = derived{update: u, err: err}

			switch {
			case err != nil:
				metrics.ObserveDerivation(string(d.Kind()), metrics.ResultFailed, start)
			case u.Empty():
				metrics.ObserveDerivation(string(d.Kind()), metrics.ResultEmpty, start)
			default:
				metrics.ObserveDerivation(string(d.Kind()), metrics.ResultSuccess, start)
			}
		})
	}
	wg.Wait()

	out := s
	changed := false
	var errs []error
	for i, d := range derivers {
		r := results[i]
		if r.err == nil {
			r.err = out.merge(d.Kind(), r.update)
		}
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Kind(), r.err))
			continue
		}
		changed = changed || !r.update.Empty()
	}

	if changed {
		out.UpdatedAt = time.Now().UTC()
	}
	return out, utilerrors.NewAggregate(errs)
}

// derive runs d, turning a panic into an error of its kind.
func derive(d report.Deriver, doc report.Document) (u report.Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			u, err = nil, fmt.Errorf("deriver panicked: %v", r)
		}
	}()
	return d.Derive(doc)
}

func (s *State) merge(kind report.Kind, u report.Update) error {
	if u.Empty() {
		return nil
	}

	var err error
	switch kind {
	case report.KindServices:
		s.Services, err = s.Services.Merge(u)
	case report.KindCheckControl:
		s.CheckControl, err = s.CheckControl.Merge(u)
	case report.KindHeadunit:
		s.Headunit, err = s.Headunit.Merge(u)
	default:
		err = fmt.Errorf("unknown report kind %q", kind)
	}
	return err
}
