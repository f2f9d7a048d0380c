package console

import (
	"errors"
	"fmt"
	"io"

	"github.com/sweeney/range-haptics/internal/eventstore"
)

// writeEvents dumps the rules. Word 0 is shown signed so an erased slot
// reads -1.
func writeEvents(w *errWriter, all [eventstore.NumEvents]eventstore.Record) {
	w.printf("\nEVENT LIST\n")
	for i := 0; i < eventstore.NumSimple; i++ {
		s, _ := all[i].Rule.(eventstore.Simple)
		w.printf("EVENT %2d  SENSOR %2d  Min Distance: %4d mm  Max Distance: %4d mm\n",
			i, int32(s.Sensor), s.MinMM, s.MaxMM)
	}
	w.printf("\nCOMPOUND EVENTS\n")
	for i := eventstore.NumSimple; i < eventstore.NumEvents; i++ {
		c, _ := all[i].Rule.(eventstore.Compound)
		w.printf("EVENT %2d  ACTIVE %2d  EVENT %2d AND EVENT %2d\n",
			i, int32(c.Flag), c.A, c.B)
	}
	w.printf("\n")
}

func writePatterns(w *errWriter, all [eventstore.NumEvents]eventstore.Record) {
	w.printf("\nPATTERN LIST\n")
	for i, r := range all {
		p := r.Pattern
		w.printf("EVENT %2d  Haptics: %1d (on = 1/off = 0)  PWM: %3d%%  Beat Count: %2d  Time on: %4d ms  Time off: %4d ms\n",
			i, p.Haptic, p.Duty, p.Beats, p.OnMs, p.OffMs)
	}
	w.printf("\n")
}

// ErrUnknownListing is returned by Dump for anything but "events" or "patterns".
var ErrUnknownListing = errors.New("unknown listing")

// Dump writes the same listing as the show command, for offline use.
func Dump(out io.Writer, store *eventstore.Store, what string) error {
	if what != "events" && what != "patterns" {
		return fmt.Errorf("show %q: %w", what, ErrUnknownListing)
	}
	all, err := store.All()
	if err != nil {
		return err
	}
	w := &errWriter{w: out}
	if what == "events" {
		writeEvents(w, all)
	} else {
		writePatterns(w, all)
	}
	return w.err
}
