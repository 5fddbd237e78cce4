package locate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
)

// addressAccuracyMeters is reported for geocoded street addresses;
// forward geocoding is roughly block-level.
const addressAccuracyMeters = 100

// AddressProvider resolves a configured street address through a
// geocoder once and serves the resulting coordinates on every call.
type AddressProvider struct {
	address  string
	geocoder geo.Geocoder

	once sync.Once
	pos  Position
	err  error
}

// NewAddressProvider builds a provider backed by the OpenStreetMap
// geocoder.
func NewAddressProvider(address string) *AddressProvider {
	return &AddressProvider{
		address:  strings.TrimSpace(address),
		geocoder: openstreetmap.Geocoder(),
	}
}

// Position resolves the address on first use and caches the result,
// including a resolution failure.
func (p *AddressProvider) Position(_ context.Context) (Position, error) {
	p.once.Do(p.resolve)
	return p.pos, p.err
}

func (p *AddressProvider) resolve() {
	if p.address == "" {
		p.err = fmt.Errorf("no address configured: %w", ErrUnavailable)
		return
	}

	location, err := p.geocoder.Geocode(p.address)
	if err != nil {
		p.err = fmt.Errorf("geocode %q: %s: %w", p.address, err, ErrUnavailable)
		return
	}
	if location == nil {
		p.err = fmt.Errorf("address %q did not resolve: %w", p.address, ErrUnavailable)
		return
	}

	p.pos = Position{
		Latitude:  location.Lat,
		Longitude: location.Lng,
		Accuracy:  addressAccuracyMeters,
	}
}
