// Package ranging time-multiplexes three ultrasonic sensors.
//
// A periodic Tick triggers one channel at a time in round robin; that
// channel's echo edges (OnEdge) measure the echo pulse width, which is
// converted to millimetres. A channel that has not completed by the next
// Tick reports zero.
//
// Tick and OnEdge are called from different goroutines (the scheduler and
// the GPIO event handler). All state is guarded by one mutex held only for
// the few instructions of each handler; Snapshot copies the distances
// under that lock so readers always see a consistent triple.
package ranging

import (
	"sync"
	"time"
)

// NumChannels is the number of sensor channels.
const NumChannels = 3

const (
	// TickHz is the rate of the edge-capture counter.
	TickHz = 40_000_000

	// MMPerTick converts counter ticks of echo pulse width to millimetres.
	MMPerTick = 0.0043125

	// TriggerWidth is the length of the trigger pulse.
	TriggerWidth = 10 * time.Microsecond

	// DefaultPoll is the scheduler period: 3,000,000 counter ticks.
	DefaultPoll = 75 * time.Millisecond
)

// Phase is the per-channel echo capture state.
type Phase int

const (
	ArmedForStart Phase = iota // waiting for the echo rising edge
	ArmedForEnd                // waiting for the echo falling edge
	Complete                   // measured, or not armed
)

func (p Phase) String() string {
	switch p {
	case ArmedForStart:
		return "armed-start"
	case ArmedForEnd:
		return "armed-end"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Trigger fires the trigger line of a channel.
type Trigger interface {
	Pulse(channel int, width time.Duration) error
}

// Ranger holds the ranging state of all channels.
type Ranger struct {
	trigger Trigger

	mu       sync.Mutex
	active   int
	phase    [NumChannels]Phase
	start    [NumChannels]time.Duration
	distance [NumChannels]uint32
	timeouts [NumChannels]uint64
}

// New returns a Ranger with no channel armed. The first Tick arms
// channel 0.
func New(trigger Trigger) *Ranger {
	r := &Ranger{
		trigger: trigger,
		active:  NumChannels - 1,
	}
	for i := range r.phase {
		r.phase[i] = Complete
	}
	return r
}

// Tick finishes the active channel's round and triggers the next channel.
// A channel that never reached Complete has its distance forced to zero.
func (r *Ranger) Tick() error {
	r.mu.Lock()
	if r.phase[r.active] != Complete {
		r.distance[r.active] = 0
		r.timeouts[r.active]++
	}
	r.active = (r.active + 1) % NumChannels
	r.phase[r.active] = ArmedForStart
	ch := r.active
	r.mu.Unlock()

	return r.trigger.Pulse(ch, TriggerWidth)
}

// OnEdge records an echo edge on channel seen at timestamp ts.
// The first edge of a round zeroes the counter; the second converts the
// elapsed counter value to a distance. Edges on channels that are not
// armed are ignored.
func (r *Ranger) OnEdge(channel int, ts time.Duration) {
	if channel < 0 || channel >= NumChannels {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if channel != r.active {
		return
	}
	switch r.phase[channel] {
	case ArmedForStart:
		r.start[channel] = ts
		r.phase[channel] = ArmedForEnd
	case ArmedForEnd:
		width := ts - r.start[channel]
		if width < 0 {
			width = 0
		}
		r.distance[channel] = ToMillimeters(TicksFromDuration(width))
		r.phase[channel] = Complete
	}
}

// Snapshot returns the last completed distance of every channel in mm.
func (r *Ranger) Snapshot() [NumChannels]uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.distance
}

// Active returns the channel currently being polled and its phase.
func (r *Ranger) Active() (int, Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.phase[r.active]
}

// Timeouts returns how many rounds of each channel ended without an echo.
func (r *Ranger) Timeouts() [NumChannels]uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeouts
}

// TicksFromDuration converts a pulse width to counter ticks.
func TicksFromDuration(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d.Nanoseconds()) * (TickHz / 1_000_000) / 1000
}

// ToMillimeters converts counter ticks to a distance in mm, truncated.
func ToMillimeters(ticks uint64) uint32 {
	return uint32(float64(ticks) * MMPerTick)
}
