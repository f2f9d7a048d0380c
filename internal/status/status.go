// Package status provides a thread-safe status tracker for the
// range-haptics controller. It is read by the HTTP handlers and by the
// MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/range-haptics/internal/eventstore"
	"github.com/sweeney/range-haptics/internal/ranging"
)

// NoEvent is the Active value when no event is true.
const NoEvent = -1

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains controller configuration for display.
type Config struct {
	PollMs      int64
	CycleMs     int64
	HoldMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Serial      string
	Store       string
}

// Snapshot is a point-in-time view of controller state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Distances     [ranging.NumChannels]uint32
	Timeouts      [ranging.NumChannels]uint64
	Status        [eventstore.NumEvents]bool
	Active        int
	Activations   [eventstore.NumEvents]int
	Cycles        uint64
	BootID        string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// TotalActivations returns the number of activations of all events.
func (s Snapshot) TotalActivations() int {
	n := 0
	for _, c := range s.Activations {
		n += c
	}
	return n
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, boot id and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Active:    NoEvent,
			BootID:    bootID,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the result of one evaluation cycle.
func (t *Tracker) Update(dist [ranging.NumChannels]uint32, timeouts [ranging.NumChannels]uint64, st [eventstore.NumEvents]bool, active int) {
	t.mu.Lock()
	t.snap.Distances = dist
	t.snap.Timeouts = timeouts
	t.snap.Status = st
	t.snap.Active = active
	t.snap.Cycles++
	t.mu.Unlock()
}

// RecordActivation counts one activation of event i.
func (t *Tracker) RecordActivation(i int) {
	if i < 0 || i >= eventstore.NumEvents {
		return
	}
	t.mu.Lock()
	t.snap.Activations[i]++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
