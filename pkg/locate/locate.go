package locate

import (
	"context"
	"errors"
)

// Package locate supplies device coordinates to the SDK. It is the
// server-side stand-in for the browser geolocation capability: a
// provider either yields a Position or fails with one of the sentinel
// errors below.

var (
	// ErrPermissionDenied means the environment refuses to reveal a
	// location (the analog of a denied browser permission prompt).
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable means no position could be determined.
	ErrUnavailable = errors.New("location unavailable")
)

// Position is a device coordinate fix. Accuracy is meters.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// Provider yields the current device position.
type Provider interface {
	Position(ctx context.Context) (Position, error)
}

// Static returns a provider that always reports fixed coordinates,
// for devices installed at a known site.
func Static(latitude, longitude, accuracy float64) Provider {
	return staticProvider{pos: Position{Latitude: latitude, Longitude: longitude, Accuracy: accuracy}}
}

type staticProvider struct {
	pos Position
}

func (s staticProvider) Position(context.Context) (Position, error) {
	return s.pos, nil
}
