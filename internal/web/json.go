package web

import (
	"time"

	"github.com/sweeney/range-haptics/internal/status"
)

// Frame is one message on the /ws live stream.
type Frame struct {
	Timestamp   string   `json:"timestamp"`
	DistancesMM []uint32 `json:"distances_mm"`
	TrueEvents  []int    `json:"true_events"`
	ActiveEvent int      `json:"active_event"`
	MQTT        bool     `json:"mqtt"`
}

func newFrame(snap status.Snapshot) Frame {
	f := Frame{
		Timestamp:   snap.Now.UTC().Format(time.RFC3339Nano),
		DistancesMM: snap.Distances[:],
		TrueEvents:  []int{},
		ActiveEvent: snap.Active,
		MQTT:        snap.MQTTConnected,
	}
	for i, on := range snap.Status {
		if on {
			f.TrueEvents = append(f.TrueEvents, i)
		}
	}
	return f
}
