// Package console implements the operator command interface: a
// line-oriented text protocol over a serial port or stdio that edits the
// stored events and shows live distances.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sweeney/range-haptics/internal/eventstore"
	"github.com/sweeney/range-haptics/internal/ranging"
)

// ErrReboot is returned by Feed after the reboot command.
var ErrReboot = errors.New("reboot requested")

// DisplayPeriod is the refresh interval of the display command.
const DisplayPeriod = 100 * time.Millisecond

// Console executes commands against the event store.
type Console struct {
	store *eventstore.Store
	dist  func() [ranging.NumChannels]uint32
	in    <-chan byte
	out   io.Writer
	line  lineBuffer

	displayEvery time.Duration
	after        func(time.Duration) <-chan time.Time
}

// New returns a Console reading bytes from in and replying on out.
// dist supplies live distances for the display command.
func New(store *eventstore.Store, dist func() [ranging.NumChannels]uint32, in <-chan byte, out io.Writer) *Console {
	return &Console{
		store:        store,
		dist:         dist,
		in:           in,
		out:          out,
		displayEvery: DisplayPeriod,
		after:        time.After,
	}
}

// Input returns the byte channel the main loop should select on.
func (c *Console) Input() <-chan byte {
	return c.in
}

// Feed adds one input byte and runs the command when a line completes.
// It returns ErrReboot for the reboot command and write errors from the
// output; operator mistakes are answered on the output, not returned.
func (c *Console) Feed(ctx context.Context, b byte) error {
	line, ok := c.line.feed(b)
	if !ok {
		return nil
	}
	return c.Exec(ctx, line)
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	cmd := command{fields: parseFields(line)}
	w := &errWriter{w: c.out}

	switch {
	case cmd.name() == "":
		return nil
	case cmd.is("help", 0):
		c.help(w)
	case cmd.is("reboot", 0):
		w.printf("Rebooting...\n")
		if w.err != nil {
			return w.err
		}
		return ErrReboot
	case cmd.is("event", 4):
		c.event(w, cmd)
	case cmd.is("and", 3):
		c.and(w, cmd)
	case cmd.is("erase", 1):
		c.erase(w, cmd)
	case cmd.is("show", 1):
		c.show(w, cmd)
	case cmd.is("haptic", 2):
		c.haptic(w, cmd)
	case cmd.is("pattern", 5):
		c.pattern(w, cmd)
	case cmd.is("display", 0):
		c.display(ctx, w)
	default:
		w.printf("Invalid command. Type \"help\" for a list of commands.\n\n")
	}
	return w.err
}

func (c *Console) help(w *errWriter) {
	w.printf("reboot        (no params)\n")
	w.printf("event         EVENT SENSOR MIN_DIST_MM MAX_DIST_MM\n")
	w.printf("and           EVENT EVENT1 EVENT2\n")
	w.printf("erase         EVENT\n")
	w.printf("show events   (no params)\n")
	w.printf("show patterns (no params)\n")
	w.printf("haptic        EVENT on/off\n")
	w.printf("pattern       EVENT PWM BEATS ON_TIME OFF_TIME\n")
	w.printf("display       (no params)\n")
	w.printf("help          (no params)\n")
}

// eventArg reads argument n as an event index in [lo, hi].
func eventArg(cmd command, n, lo, hi int) (int, bool) {
	v, ok := cmd.num(n)
	if !ok || v < int64(lo) || v > int64(hi) {
		return 0, false
	}
	return int(v), true
}

// wordArg reads argument n as a non-negative value that fits in a word.
func wordArg(cmd command, n int) (uint32, bool) {
	v, ok := cmd.num(n)
	if !ok || v < 0 || v > int64(^uint32(0)) {
		return 0, false
	}
	return uint32(v), true
}

// update applies fn to the record at index. A slot whose pattern was never
// written starts from an all-zero pattern, so haptics stay off until the
// operator turns them on.
func (c *Console) update(w *errWriter, index int, fn func(*eventstore.Record)) bool {
	err := c.store.Update(index, func(r *eventstore.Record) {
		if r.Pattern.Unset() {
			r.Pattern = eventstore.Pattern{}
		}
		fn(r)
	})
	if err != nil {
		log.Printf("console: update event %d: %v", index, err)
		w.printf("Storage error: %v\n\n", err)
		return false
	}
	return true
}

func (c *Console) event(w *errWriter, cmd command) {
	raw, _ := cmd.num(1)
	evt, ok := eventArg(cmd, 1, 0, eventstore.NumSimple-1)
	if !ok {
		if raw >= eventstore.NumSimple && raw < eventstore.NumEvents {
			w.printf("EVENTS 16-19 reserved for compound events (\"and\" command)\n\n")
		} else {
			w.printf("Invalid event number. Valid events: 0-15\n\n")
		}
		return
	}
	sensor, ok := wordArg(cmd, 2)
	if !ok || sensor >= eventstore.NumSensors {
		w.printf("Invalid sensor. Valid sensors: 0-2\n\n")
		return
	}
	lo, okLo := wordArg(cmd, 3)
	hi, okHi := wordArg(cmd, 4)
	if !okLo || !okHi || lo > hi {
		w.printf("Invalid distances. Use 0 <= MIN_DIST_MM <= MAX_DIST_MM\n\n")
		return
	}
	rule := eventstore.Simple{Sensor: sensor, MinMM: lo, MaxMM: hi}
	if c.update(w, evt, func(r *eventstore.Record) { r.Rule = rule }) {
		w.printf("Distances for EVENT %2d entered.\n\n", evt)
	}
}

func (c *Console) and(w *errWriter, cmd command) {
	raw, _ := cmd.num(1)
	evt, ok := eventArg(cmd, 1, eventstore.NumSimple, eventstore.NumEvents-1)
	if !ok {
		if raw >= 0 && raw < eventstore.NumSimple {
			w.printf("EVENTS 0-15 reserved for simple events (\"event\" command)\n\n")
		} else {
			w.printf("Invalid event number. Valid compound events: 16-19\n\n")
		}
		return
	}
	a, okA := eventArg(cmd, 2, 0, eventstore.NumEvents-1)
	b, okB := eventArg(cmd, 3, 0, eventstore.NumEvents-1)
	if !okA || !okB {
		w.printf("Invalid event reference. Valid events: 0-19\n\n")
		return
	}
	rule := eventstore.NewCompound(uint32(a), uint32(b))
	if c.update(w, evt, func(r *eventstore.Record) { r.Rule = rule }) {
		w.printf("Compound EVENT %2d entered.\n\n", evt)
	}
}

func (c *Console) erase(w *errWriter, cmd command) {
	evt, ok := eventArg(cmd, 1, 0, eventstore.NumEvents-1)
	if !ok {
		w.printf("Invalid event number. Valid events: 0-19\n\n")
		return
	}
	if err := c.store.Erase(evt); err != nil {
		log.Printf("console: erase event %d: %v", evt, err)
		w.printf("Storage error: %v\n\n", err)
		return
	}
	w.printf("EVENT %2d erased.\n\n", evt)
}

func (c *Console) show(w *errWriter, cmd command) {
	what, _ := cmd.str(1)
	if what != "events" && what != "patterns" {
		w.printf("Usage: show events | show patterns\n\n")
		return
	}
	all, err := c.store.All()
	if err != nil {
		log.Printf("console: read events: %v", err)
		w.printf("Storage error: %v\n\n", err)
		return
	}
	if what == "events" {
		writeEvents(w, all)
	} else {
		writePatterns(w, all)
	}
}

func (c *Console) haptic(w *errWriter, cmd command) {
	evt, ok := eventArg(cmd, 1, 0, eventstore.NumEvents-1)
	if !ok {
		w.printf("Invalid event number. Valid events: 0-19\n\n")
		return
	}
	var on bool
	switch s, _ := cmd.str(2); s {
	case "on":
		on = true
	case "off":
	default:
		w.printf("Invalid argument. Use on or off\n\n")
		return
	}
	if !c.update(w, evt, func(r *eventstore.Record) {
		r.Pattern.Haptic = 0
		if on {
			r.Pattern.Haptic = 1
		}
	}) {
		return
	}
	if on {
		w.printf("Haptic is on.\n\n")
	} else {
		w.printf("Haptic is off.\n\n")
	}
}

func (c *Console) pattern(w *errWriter, cmd command) {
	evt, ok := eventArg(cmd, 1, 0, eventstore.NumEvents-1)
	if !ok {
		w.printf("Invalid event number. Valid events: 0-19\n\n")
		return
	}
	pwm, ok := wordArg(cmd, 2)
	if !ok || pwm > 100 {
		w.printf("Invalid PWM. Valid duty: 0-100\n\n")
		return
	}
	beats, okB := wordArg(cmd, 3)
	on, okOn := wordArg(cmd, 4)
	off, okOff := wordArg(cmd, 5)
	if !okB || !okOn || !okOff {
		w.printf("Invalid pattern. BEATS, ON_TIME and OFF_TIME must be >= 0\n\n")
		return
	}
	if c.update(w, evt, func(r *eventstore.Record) {
		r.Pattern.Duty = pwm
		r.Pattern.Beats = beats
		r.Pattern.OnMs = on
		r.Pattern.OffMs = off
	}) {
		w.printf("Patterns for EVENT %2d entered.\n\n", evt)
	}
}

// display prints the distances until the next input byte arrives. That
// byte is kept as the start of the next command line.
func (c *Console) display(ctx context.Context, w *errWriter) {
	for {
		d := c.dist()
		for ch, mm := range d {
			w.printf("Sensor %d:    %5d (mm)\n", ch, mm)
		}
		w.printf("\n\n")
		if w.err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case b, ok := <-c.in:
			if ok {
				c.line.feed(b)
			}
			return
		case <-c.after(c.displayEvery):
		}
	}
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
