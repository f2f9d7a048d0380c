//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealEcho is not available on non-Linux platforms.
type RealEcho struct{}

// NewRealEcho returns an error on non-Linux platforms.
func NewRealEcho(chip string, pins [3]int) (*RealEcho, error) {
	return nil, errUnsupported
}

// Start is not implemented on non-Linux platforms.
func (r *RealEcho) Start(h EdgeHandler) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealEcho) Close() error { return nil }

// RealTrigger is not available on non-Linux platforms.
type RealTrigger struct{}

// NewRealTrigger returns an error on non-Linux platforms.
func NewRealTrigger(chip string, pins [3]int) (*RealTrigger, error) {
	return nil, errUnsupported
}

// Pulse is not implemented on non-Linux platforms.
func (t *RealTrigger) Pulse(channel int, width time.Duration) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (t *RealTrigger) Close() error { return nil }
