package actuator

import "sync"

// Fake records duty changes for test assertions.
type Fake struct {
	mu    sync.Mutex
	duty  uint32
	calls []uint32

	// SetError, if set, will be returned by SetDuty.
	SetError error

	// OnSet, if set, is called with every accepted duty.
	OnSet func(percent uint32)

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a stopped Fake.
func NewFake() *Fake {
	return &Fake{}
}

// SetDuty records the duty.
func (f *Fake) SetDuty(percent uint32) error {
	if f.SetError != nil {
		return f.SetError
	}
	percent = clamp(percent)
	f.mu.Lock()
	f.duty = percent
	f.calls = append(f.calls, percent)
	f.mu.Unlock()
	if f.OnSet != nil {
		f.OnSet(percent)
	}
	return nil
}

// Duty returns the current duty.
func (f *Fake) Duty() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duty
}

// Calls returns every duty set so far, in order.
func (f *Fake) Calls() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.calls...)
}

// Close stops the fake motor.
func (f *Fake) Close() error {
	f.mu.Lock()
	f.duty = 0
	f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset clears recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.duty = 0
	f.mu.Unlock()
	f.Closed = false
	f.SetError = nil
}
