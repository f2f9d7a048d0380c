// Package evaluate computes the truth value of every event from the
// current distances and the stored rules.
package evaluate

import (
	"errors"

	"github.com/sweeney/range-haptics/internal/eventstore"
	"github.com/sweeney/range-haptics/internal/ranging"
)

// Status holds one truth value per event.
type Status [eventstore.NumEvents]bool

// RecordSource supplies event records. *eventstore.Store implements it.
type RecordSource interface {
	Read(index int) (eventstore.Record, error)
}

// Evaluator owns the status array. It is kept between passes: a compound
// event that references a higher-numbered compound event sees that
// event's value from the previous pass.
type Evaluator struct {
	status Status
}

// New returns an Evaluator with every status false.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate recomputes all statuses, simple events 0-15 first and then
// compound events 16-19 in index order. A record that cannot be read is
// false; its error is joined into the returned error and the pass
// continues.
func (e *Evaluator) Evaluate(dist [ranging.NumChannels]uint32, src RecordSource) (Status, error) {
	var errs []error
	for i := 0; i < eventstore.NumEvents; i++ {
		r, err := src.Read(i)
		if err != nil {
			errs = append(errs, err)
			e.status[i] = false
			continue
		}
		e.status[i] = e.eval(r.Rule, dist)
	}
	return e.status, errors.Join(errs...)
}

func (e *Evaluator) eval(rule eventstore.Rule, dist [ranging.NumChannels]uint32) bool {
	if rule == nil || !rule.Enabled() {
		return false
	}
	switch r := rule.(type) {
	case eventstore.Simple:
		d := dist[r.Sensor]
		return r.MinMM <= d && d <= r.MaxMM
	case eventstore.Compound:
		if r.A >= eventstore.NumEvents || r.B >= eventstore.NumEvents {
			return false
		}
		return e.status[r.A] && e.status[r.B]
	}
	return false
}

// Status returns the result of the last pass.
func (e *Evaluator) Status() Status {
	return e.status
}
