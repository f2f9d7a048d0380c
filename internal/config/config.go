// Package config loads controller settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/periph/conn/physic"

	"github.com/sweeney/range-haptics/internal/actuator"
	"github.com/sweeney/range-haptics/internal/console"
	"github.com/sweeney/range-haptics/internal/gpio"
	"github.com/sweeney/range-haptics/internal/ranging"
)

// Config holds every tunable of the controller. Zero values in a file
// keep the defaults.
type Config struct {
	GPIO    GPIO          `yaml:"gpio"`
	PWM     PWM           `yaml:"pwm"`
	Poll    time.Duration `yaml:"poll"`
	Cycle   time.Duration `yaml:"cycle"`
	Hold    time.Duration `yaml:"hold"`
	Store   string        `yaml:"store"`
	Console Console       `yaml:"console"`
	MQTT    MQTT          `yaml:"mqtt"`
	HTTP    string        `yaml:"http_addr"`
}

// GPIO selects the chip and lines for the three sensors.
type GPIO struct {
	Chip        string `yaml:"chip"`
	EchoPins    []int  `yaml:"echo_pins"`
	TriggerPins []int  `yaml:"trigger_pins"`
}

// PWM selects the haptic motor output.
type PWM struct {
	Pin         string `yaml:"pin"`
	FrequencyHz int64  `yaml:"frequency_hz"`
}

// Console selects the command transport: "-" for stdio or a serial device.
type Console struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MQTT configures telemetry. An empty broker disables it.
type MQTT struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		GPIO: GPIO{
			Chip:        gpio.DefaultChip,
			EchoPins:    append([]int(nil), gpio.DefaultEchoPins[:]...),
			TriggerPins: append([]int(nil), gpio.DefaultTriggerPins[:]...),
		},
		PWM: PWM{
			Pin:         actuator.DefaultPin,
			FrequencyHz: int64(actuator.DefaultFrequency / physic.Hertz),
		},
		Poll:    ranging.DefaultPoll,
		Cycle:   100 * time.Millisecond,
		Hold:    time.Second,
		Store:   "/var/lib/range-haptics/events.db",
		Console: Console{Port: "-", Baud: console.DefaultBaud},
		MQTT: MQTT{
			ClientID:  "range-haptics",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: ":80",
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks values that would make the controller misbehave.
func (c Config) Validate() error {
	var errs []error
	if len(c.GPIO.EchoPins) != 3 {
		errs = append(errs, fmt.Errorf("gpio.echo_pins: want 3 lines, got %d", len(c.GPIO.EchoPins)))
	}
	if len(c.GPIO.TriggerPins) != 3 {
		errs = append(errs, fmt.Errorf("gpio.trigger_pins: want 3 lines, got %d", len(c.GPIO.TriggerPins)))
	}
	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll: must be positive, got %v", c.Poll))
	}
	if c.Cycle <= 0 {
		errs = append(errs, fmt.Errorf("cycle: must be positive, got %v", c.Cycle))
	}
	if c.Hold < 0 {
		errs = append(errs, fmt.Errorf("hold: must not be negative, got %v", c.Hold))
	}
	if c.PWM.FrequencyHz <= 0 {
		errs = append(errs, fmt.Errorf("pwm.frequency_hz: must be positive, got %d", c.PWM.FrequencyHz))
	}
	if c.Console.Baud <= 0 {
		errs = append(errs, fmt.Errorf("console.baud: must be positive, got %d", c.Console.Baud))
	}
	if c.MQTT.Broker != "" && c.MQTT.Heartbeat <= 0 {
		errs = append(errs, fmt.Errorf("mqtt.heartbeat: must be positive, got %v", c.MQTT.Heartbeat))
	}
	return errors.Join(errs...)
}

// Pins converts a validated three-entry pin list for the gpio package.
func Pins(p []int) [3]int {
	var out [3]int
	copy(out[:], p)
	return out
}

// Frequency returns the PWM carrier frequency.
func (p PWM) Frequency() physic.Frequency {
	return physic.Frequency(p.FrequencyHz) * physic.Hertz
}
