// Package mqtt publishes range-haptics telemetry to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicEvents is the MQTT topic for activation changes.
const TopicEvents = "haptics/range/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "haptics/range/system"

// Publisher publishes controller telemetry.
type Publisher interface {
	// PublishActivation reports a change of the selected active event.
	// Errors are for logging only; they must not stop the controller.
	PublishActivation(a Activation) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Activation is a change of the selected active event.
// Event is -1 when no event is true any more.
type Activation struct {
	Timestamp time.Time
	Event     int
	Kind      string
	Distances [3]uint32
}

// SystemEvent represents a system lifecycle event (STARTUP, SHUTDOWN, HEARTBEAT, REBOOT).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // signal name or console command, when there is one
	RawPayload []byte // pre-formatted status snapshot; returned as-is by FormatSystemPayload
	Retained   bool
}

// ActivationPayload is the JSON envelope for activation messages.
type ActivationPayload struct {
	Activation ActivationInner `json:"activation"`
}

// ActivationInner contains the activation details.
type ActivationInner struct {
	Timestamp string   `json:"timestamp"`
	Event     int      `json:"event"`
	Kind      string   `json:"kind"`
	Distances []uint32 `json:"distances"`
}

// FormatActivation creates the JSON payload for an activation.
func FormatActivation(a Activation) ([]byte, error) {
	return json.Marshal(ActivationPayload{
		Activation: ActivationInner{
			Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
			Event:     a.Event,
			Kind:      a.Kind,
			Distances: a.Distances[:],
		},
	})
}

// SystemPayload is the JSON envelope for system events that carry no
// status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishActivation(Activation) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error    { return nil }
func (NopPublisher) Close() error                       { return nil }
func (NopPublisher) IsConnected() bool                  { return false }
