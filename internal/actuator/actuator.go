// Package actuator drives the vibration motor.
package actuator

// Actuator sets the motor drive level.
type Actuator interface {
	// SetDuty sets the PWM duty cycle in percent. Values above 100 are
	// clamped.
	SetDuty(percent uint32) error

	// Close stops the motor and releases the output.
	Close() error
}

// MaxDuty is the highest duty cycle in percent.
const MaxDuty = 100

func clamp(percent uint32) uint32 {
	if percent > MaxDuty {
		return MaxDuty
	}
	return percent
}
