//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealEcho receives echo edges from actual hardware using the Linux GPIO
// character device.
type RealEcho struct {
	chip  *gpiocdev.Chip
	pins  [3]int
	lines []*gpiocdev.Line
}

// NewRealEcho opens chip for the given echo pins. Lines are requested by
// Start, once the handler is known.
func NewRealEcho(chip string, pins [3]int) (*RealEcho, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealEcho{chip: c, pins: pins}, nil
}

// Start requests the echo lines as inputs with pull-down, reporting both
// edges to h. The kernel timestamps each edge when it happens, so the
// pulse width is independent of handler latency.
func (r *RealEcho) Start(h EdgeHandler) error {
	for ch, pin := range r.pins {
		ch := ch
		line, err := r.chip.RequestLine(pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullDown,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				h(ch, evt.Timestamp)
			}))
		if err != nil {
			r.closeLines()
			return fmt.Errorf("request echo %d pin %d: %w", ch, pin, err)
		}
		r.lines = append(r.lines, line)
	}
	return nil
}

func (r *RealEcho) closeLines() []error {
	var errs []error
	for i, l := range r.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close echo %d: %w", i, err))
		}
	}
	r.lines = nil
	return errs
}

// Close releases the echo lines and the chip.
func (r *RealEcho) Close() error {
	errs := r.closeLines()
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealTrigger drives the trigger outputs on actual hardware.
type RealTrigger struct {
	chip  *gpiocdev.Chip
	lines [3]*gpiocdev.Line
}

// NewRealTrigger requests the trigger pins as outputs, initially low.
func NewRealTrigger(chip string, pins [3]int) (*RealTrigger, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	t := &RealTrigger{chip: c}
	for ch, pin := range pins {
		line, err := c.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("request trigger %d pin %d: %w", ch, pin, err)
		}
		t.lines[ch] = line
	}
	return t, nil
}

// Pulse drives the channel's trigger line high for width.
func (t *RealTrigger) Pulse(channel int, width time.Duration) error {
	if channel < 0 || channel >= len(t.lines) || t.lines[channel] == nil {
		return fmt.Errorf("no trigger line for channel %d", channel)
	}
	line := t.lines[channel]
	if err := line.SetValue(1); err != nil {
		return fmt.Errorf("set trigger %d high: %w", channel, err)
	}
	spin(width)
	if err := line.SetValue(0); err != nil {
		return fmt.Errorf("set trigger %d low: %w", channel, err)
	}
	return nil
}

// Close returns the trigger lines to inputs with pull-down (matching Pi
// boot defaults) and releases them.
func (t *RealTrigger) Close() error {
	var errs []error
	for i, l := range t.lines {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure trigger %d: %w", i, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger %d: %w", i, err))
		}
		t.lines[i] = nil
	}
	if t.chip != nil {
		if err := t.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
