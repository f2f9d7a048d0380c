// Package eventstore maps the non-volatile word space onto typed event
// records. Each of the 20 events owns an 8-word window at 8*index:
//
//	+0  sensor id (simple) / active flag (compound)
//	+1  min distance mm    / reference A
//	+2  max distance mm    / reference B
//	+3  haptic enabled
//	+4  beat count
//	+5  on time ms
//	+6  off time ms
//	+7  pwm duty percent
//
// Events 0-15 are simple distance rules; 16-19 are compound AND rules.
package eventstore

import "github.com/sweeney/range-haptics/internal/nvstore"

const (
	NumEvents     = 20
	NumSimple     = 16
	NumSensors    = 3
	WordsPerEvent = 8
)

// Disabled is the word-0 value written by Erase.
const Disabled = nvstore.Erased

// Rule is the condition half of a record: Simple or Compound.
type Rule interface {
	// Enabled reports whether word 0 marks the rule as in use.
	Enabled() bool

	words() [3]uint32
}

// Simple is true while sensor Sensor reads between MinMM and MaxMM inclusive.
type Simple struct {
	Sensor uint32
	MinMM  uint32
	MaxMM  uint32
}

// Enabled reports whether Sensor names one of the three channels.
func (s Simple) Enabled() bool { return s.Sensor < NumSensors }

func (s Simple) words() [3]uint32 { return [3]uint32{s.Sensor, s.MinMM, s.MaxMM} }

// Compound is true while both referenced events are true.
type Compound struct {
	Flag uint32
	A    uint32
	B    uint32
}

// Enabled reports whether the active flag is set to 1.
func (c Compound) Enabled() bool { return c.Flag == 1 }

func (c Compound) words() [3]uint32 { return [3]uint32{c.Flag, c.A, c.B} }

// NewCompound returns an active compound rule over events a and b.
func NewCompound(a, b uint32) Compound { return Compound{Flag: 1, A: a, B: b} }

// Pattern holds the haptic playback fields shared by both record shapes.
type Pattern struct {
	Haptic uint32 // 0 = off
	Beats  uint32
	OnMs   uint32
	OffMs  uint32
	Duty   uint32 // percent
}

// Enabled reports whether the pattern should actuate at all.
func (p Pattern) Enabled() bool { return p.Haptic != 0 }

// Unset reports whether the pattern words were never written.
func (p Pattern) Unset() bool {
	return p.Haptic == nvstore.Erased && p.Beats == nvstore.Erased &&
		p.OnMs == nvstore.Erased && p.OffMs == nvstore.Erased && p.Duty == nvstore.Erased
}

// Record is one decoded event slot.
type Record struct {
	Rule    Rule
	Pattern Pattern
}

// IsCompound reports whether index holds a compound rule.
func IsCompound(index int) bool {
	return index >= NumSimple && index < NumEvents
}

func encode(r Record) [WordsPerEvent]uint32 {
	w := r.Rule.words()
	return [WordsPerEvent]uint32{
		w[0], w[1], w[2],
		r.Pattern.Haptic,
		r.Pattern.Beats,
		r.Pattern.OnMs,
		r.Pattern.OffMs,
		r.Pattern.Duty,
	}
}

func decode(index int, w [WordsPerEvent]uint32) Record {
	var rule Rule
	if IsCompound(index) {
		rule = Compound{Flag: w[0], A: w[1], B: w[2]}
	} else {
		rule = Simple{Sensor: w[0], MinMM: w[1], MaxMM: w[2]}
	}
	return Record{
		Rule: rule,
		Pattern: Pattern{
			Haptic: w[3],
			Beats:  w[4],
			OnMs:   w[5],
			OffMs:  w[6],
			Duty:   w[7],
		},
	}
}
