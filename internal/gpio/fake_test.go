package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeEchoDeliversEdges(t *testing.T) {
	f := NewFakeEcho()

	type edge struct {
		ch int
		ts time.Duration
	}
	var got []edge
	if err := f.Start(func(ch int, ts time.Duration) {
		got = append(got, edge{ch, ts})
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Started {
		t.Error("should be started after Start()")
	}

	if err := f.Echo(1, 10*time.Millisecond, 2*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []edge{{1, 10 * time.Millisecond}, {1, 12 * time.Millisecond}}
	if len(got) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("edge %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFakeEchoNotStarted(t *testing.T) {
	f := NewFakeEcho()
	if err := f.Edge(0, 0); err == nil {
		t.Error("expected error before Start")
	}
}

func TestFakeEchoStartError(t *testing.T) {
	f := NewFakeEcho()
	f.StartError = errors.New("simulated error")

	err := f.Start(func(int, time.Duration) {})
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if f.Started {
		t.Error("should not be started after a failed Start")
	}
}

func TestFakeTriggerRecordsPulses(t *testing.T) {
	f := NewFakeTrigger()
	var answered []int
	f.OnPulse = func(ch int) { answered = append(answered, ch) }

	for _, ch := range []int{0, 1, 2} {
		if err := f.Pulse(ch, 10*time.Microsecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	pulses := f.Pulses()
	if len(pulses) != 3 {
		t.Fatalf("expected 3 pulses, got %d", len(pulses))
	}
	for i, p := range pulses {
		if p.Channel != i || p.Width != 10*time.Microsecond {
			t.Errorf("pulse %d: got %+v", i, p)
		}
	}
	if len(answered) != 3 {
		t.Errorf("expected OnPulse to run 3 times, got %d", len(answered))
	}
}

func TestFakeTriggerErrorAndReset(t *testing.T) {
	f := NewFakeTrigger()
	f.PulseError = errors.New("line busy")

	if err := f.Pulse(0, time.Microsecond); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Pulses()) != 0 {
		t.Error("failed pulse should not be recorded")
	}

	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || f.PulseError != nil {
		t.Error("Reset should clear Closed and PulseError")
	}
	if err := f.Pulse(2, time.Microsecond); err != nil {
		t.Errorf("unexpected error after reset: %v", err)
	}
}
