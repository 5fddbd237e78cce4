package sinks

import (
	"time"

	"github.com/orbital-hq/radar-go/pkg/radar"
)

// Envelope is the payload delivered downstream: one tracked event plus
// the identity it was recorded under.
type Envelope struct {
	UserID    string      `json:"user_id"`
	DeviceID  string      `json:"device_id"`
	Live      bool        `json:"live"`
	Event     radar.Event `json:"event"`
	TrackedAt time.Time   `json:"tracked_at"`
}

// NewEnvelope wraps an event for delivery.
func NewEnvelope(userID, deviceID string, evt radar.Event) Envelope {
	return Envelope{
		UserID:    userID,
		DeviceID:  deviceID,
		Live:      evt.Live,
		Event:     evt,
		TrackedAt: time.Now().UTC(),
	}
}
