package locate

import (
	"context"
	"errors"
	"testing"
)

func TestStaticProvider(t *testing.T) {
	p := Static(40.7041, -73.9867, 65)

	pos, err := p.Position(context.Background())
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos.Latitude != 40.7041 || pos.Longitude != -73.9867 || pos.Accuracy != 65 {
		t.Fatalf("position = %#v", pos)
	}
}

func TestAddressProviderEmptyAddressIsUnavailable(t *testing.T) {
	p := NewAddressProvider("   ")

	_, err := p.Position(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want %v", err, ErrUnavailable)
	}

	// The failure is cached: a second call reports the same error.
	_, again := p.Position(context.Background())
	if !errors.Is(again, ErrUnavailable) {
		t.Fatalf("second err = %v, want %v", again, ErrUnavailable)
	}
}
