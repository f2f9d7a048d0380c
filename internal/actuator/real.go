package actuator

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

// DefaultPin is the motor PWM output (BCM numbering, hardware PWM0).
const DefaultPin = "18"

// DefaultFrequency is the PWM carrier frequency.
const DefaultFrequency = 20 * physic.KiloHertz

// PWM drives the motor through a periph.io PWM-capable pin.
type PWM struct {
	pin  gpio.PinIO
	freq physic.Frequency
}

// NewPWM initializes the host drivers and returns the motor output on the
// named pin, stopped.
func NewPWM(name string, freq physic.Frequency) (*PWM, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", name)
	}
	p := &PWM{pin: pin, freq: freq}
	if err := p.SetDuty(0); err != nil {
		return nil, err
	}
	return p, nil
}

// SetDuty sets the duty cycle. Zero drives the pin low instead of running
// a 0% PWM.
func (p *PWM) SetDuty(percent uint32) error {
	percent = clamp(percent)
	if percent == 0 {
		if err := p.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("motor off: %w", err)
		}
		return nil
	}
	duty := gpio.Duty(uint64(gpio.DutyMax) * uint64(percent) / MaxDuty)
	if err := p.pin.PWM(duty, p.freq); err != nil {
		return fmt.Errorf("motor duty %d%%: %w", percent, err)
	}
	return nil
}

// Close stops the motor and halts the pin.
func (p *PWM) Close() error {
	if err := p.SetDuty(0); err != nil {
		return err
	}
	return p.pin.Halt()
}
