package radar

import (
	"encoding/json"
	"time"
)

// Typed views of the API responses. Every call also returns the raw
// response body, so fields the SDK does not model stay reachable.

// Geometry is a GeoJSON geometry as returned by the API.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// User is the server-side user state returned by a track call.
type User struct {
	ID          string     `json:"_id"`
	UserID      string     `json:"userId"`
	DeviceID    string     `json:"deviceId"`
	Description string     `json:"description"`
	Location    *Geometry  `json:"location,omitempty"`
	Geofences   []Geofence `json:"geofences,omitempty"`
	Place       *Place     `json:"place,omitempty"`
	Stopped     bool       `json:"stopped"`
	Foreground  bool       `json:"foreground"`
}

// Event is a geofence/place entry or exit generated by a track call.
type Event struct {
	ID         string    `json:"_id"`
	CreatedAt  time.Time `json:"createdAt"`
	Live       bool      `json:"live"`
	Type       string    `json:"type"`
	Confidence int       `json:"confidence"`
	Geofence   *Geofence `json:"geofence,omitempty"`
	Place      *Place    `json:"place,omitempty"`
}

// Geofence is a server-defined region.
type Geofence struct {
	ID          string    `json:"_id"`
	Tag         string    `json:"tag"`
	ExternalID  string    `json:"externalId"`
	Description string    `json:"description"`
	Geometry    *Geometry `json:"geometry,omitempty"`
}

// Chain identifies the brand a place belongs to.
type Chain struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Place is a point of interest.
type Place struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Categories []string  `json:"categories,omitempty"`
	Chain      *Chain    `json:"chain,omitempty"`
	Location   *Geometry `json:"location,omitempty"`
}

// Address is a forward or reverse geocoding result.
type Address struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
	Country          string  `json:"country"`
	CountryCode      string  `json:"countryCode"`
	CountryFlag      string  `json:"countryFlag"`
	State            string  `json:"state"`
	StateCode        string  `json:"stateCode"`
	City             string  `json:"city"`
	Number           string  `json:"number"`
	Street           string  `json:"street"`
	PostalCode       string  `json:"postalCode"`
	Confidence       string  `json:"confidence"`
}

// Region is a country-level area, returned by IP geocoding.
type Region struct {
	ID   string `json:"_id"`
	Type string `json:"type"`
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// TrackResult is the payload of a successful track call.
type TrackResult struct {
	Position Position
	User     User
	Events   []Event
	Raw      json.RawMessage
}

// SearchPlacesResult is the payload of a successful places search.
type SearchPlacesResult struct {
	Places []Place
	Raw    json.RawMessage
}

// SearchGeofencesResult is the payload of a successful geofence search.
type SearchGeofencesResult struct {
	Geofences []Geofence
	Raw       json.RawMessage
}

// GeocodeResult is the payload of a successful forward or reverse
// geocode call.
type GeocodeResult struct {
	Addresses []Address
	Raw       json.RawMessage
}

// IPGeocodeResult is the payload of a successful IP geocode call.
type IPGeocodeResult struct {
	Country Region
	Raw     json.RawMessage
}
