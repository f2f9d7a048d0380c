// Package playback picks the highest-priority true event and plays its
// haptic pattern.
package playback

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sweeney/range-haptics/internal/actuator"
	"github.com/sweeney/range-haptics/internal/evaluate"
	"github.com/sweeney/range-haptics/internal/eventstore"
)

// None is the event index reported when no event is true.
const None = -1

// Select returns the highest index whose status is true.
func Select(status evaluate.Status) (int, bool) {
	for i := len(status) - 1; i >= 0; i-- {
		if status[i] {
			return i, true
		}
	}
	return None, false
}

// Player plays one pattern to completion.
type Player interface {
	Play(p eventstore.Pattern) error
}

// Duration returns how long p blocks when played, saturating at the
// largest time.Duration.
func Duration(p eventstore.Pattern) time.Duration {
	if !p.Enabled() {
		return 0
	}
	beat := time.Duration(p.OnMs)*time.Millisecond + time.Duration(p.OffMs)*time.Millisecond
	if beat > 0 && time.Duration(p.Beats) > math.MaxInt64/beat {
		return math.MaxInt64
	}
	return time.Duration(p.Beats) * beat
}

// Engine plays patterns on an actuator. Play blocks for the whole pattern.
type Engine struct {
	act   actuator.Actuator
	sleep func(time.Duration)
}

// New returns an Engine that drives act and waits with time.Sleep.
func New(act actuator.Actuator) *Engine {
	return &Engine{act: act, sleep: time.Sleep}
}

// NewWithSleep returns an Engine with an injected sleep function.
func NewWithSleep(act actuator.Actuator, sleep func(time.Duration)) *Engine {
	return &Engine{act: act, sleep: sleep}
}

// Play runs p: Beats times duty on for OnMs, then off for OffMs. A pattern
// with haptics off or zero beats does nothing. On an actuator error the
// motor is switched off and the error returned.
func (e *Engine) Play(p eventstore.Pattern) error {
	if !p.Enabled() {
		return nil
	}
	for b := uint32(0); b < p.Beats; b++ {
		if err := e.act.SetDuty(p.Duty); err != nil {
			err = fmt.Errorf("beat %d on: %w", b+1, err)
			if stopErr := e.act.SetDuty(0); stopErr != nil {
				err = errors.Join(err, fmt.Errorf("stop: %w", stopErr))
			}
			return err
		}
		e.sleep(time.Duration(p.OnMs) * time.Millisecond)
		if err := e.act.SetDuty(0); err != nil {
			return fmt.Errorf("beat %d off: %w", b+1, err)
		}
		e.sleep(time.Duration(p.OffMs) * time.Millisecond)
	}
	return nil
}
