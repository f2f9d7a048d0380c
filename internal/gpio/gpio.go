// Package gpio provides the sensor echo inputs and trigger outputs with
// hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// EdgeHandler is called for every echo edge with the sensor channel and
// the kernel timestamp of the edge.
type EdgeHandler func(channel int, ts time.Duration)

// EchoSource delivers echo line edges.
type EchoSource interface {
	// Start begins delivering edges to h. Edges arrive on a goroutine
	// owned by the source; h must return quickly.
	Start(h EdgeHandler) error

	// Close releases GPIO resources.
	Close() error
}

// TriggerLines drives the sensor trigger outputs.
type TriggerLines interface {
	// Pulse drives channel's trigger line high for width, then low.
	Pulse(channel int, width time.Duration) error

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering), indexed by sensor channel.
var (
	DefaultEchoPins    = [3]int{17, 27, 22}
	DefaultTriggerPins = [3]int{5, 6, 13}
)

// DefaultChip is the GPIO character device the lines are requested from.
const DefaultChip = "gpiochip0"

// spin busy-waits for d. Sleeping is too coarse for a 10us trigger pulse.
func spin(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}
