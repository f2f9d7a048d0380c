package gpio

import (
	"errors"
	"sync"
	"time"
)

// FakeEcho is a test double that delivers edges when told to.
type FakeEcho struct {
	mu      sync.Mutex
	handler EdgeHandler

	// Started tracks if Start was called.
	Started bool

	// Closed tracks if Close was called.
	Closed bool

	// StartError, if set, will be returned by Start.
	StartError error
}

// NewFakeEcho creates a FakeEcho.
func NewFakeEcho() *FakeEcho {
	return &FakeEcho{}
}

// Start records the handler.
func (f *FakeEcho) Start(h EdgeHandler) error {
	if f.StartError != nil {
		return f.StartError
	}
	f.mu.Lock()
	f.handler = h
	f.Started = true
	f.mu.Unlock()
	return nil
}

// Edge delivers one edge to the handler.
func (f *FakeEcho) Edge(channel int, ts time.Duration) error {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		return errors.New("echo source not started")
	}
	h(channel, ts)
	return nil
}

// Echo delivers a rising edge at ts and a falling edge width later.
func (f *FakeEcho) Echo(channel int, ts, width time.Duration) error {
	if err := f.Edge(channel, ts); err != nil {
		return err
	}
	return f.Edge(channel, ts+width)
}

// Close marks the source as closed.
func (f *FakeEcho) Close() error {
	f.Closed = true
	return nil
}

// Pulse is one recorded trigger pulse.
type Pulse struct {
	Channel int
	Width   time.Duration
}

// FakeTrigger records trigger pulses for test assertions.
type FakeTrigger struct {
	mu     sync.Mutex
	pulses []Pulse

	// OnPulse, if set, is called after each recorded pulse. Tests use it
	// to answer a trigger with echo edges.
	OnPulse func(channel int)

	// PulseError, if set, will be returned by Pulse.
	PulseError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeTrigger creates a FakeTrigger.
func NewFakeTrigger() *FakeTrigger {
	return &FakeTrigger{}
}

// Pulse records the pulse.
func (f *FakeTrigger) Pulse(channel int, width time.Duration) error {
	if f.PulseError != nil {
		return f.PulseError
	}
	f.mu.Lock()
	f.pulses = append(f.pulses, Pulse{Channel: channel, Width: width})
	f.mu.Unlock()
	if f.OnPulse != nil {
		f.OnPulse(channel)
	}
	return nil
}

// Pulses returns a copy of the recorded pulses.
func (f *FakeTrigger) Pulses() []Pulse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Pulse(nil), f.pulses...)
}

// Close marks the trigger as closed.
func (f *FakeTrigger) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded pulses.
func (f *FakeTrigger) Reset() {
	f.mu.Lock()
	f.pulses = nil
	f.mu.Unlock()
	f.Closed = false
	f.PulseError = nil
}
