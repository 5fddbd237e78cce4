package device

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/orbital-hq/radar-go/pkg/settings"
)

// ID returns the stable device identifier for this installation,
// generating and persisting one on first use. With a persistent
// settings store the id survives restarts.
func ID(store settings.Store) (string, error) {
	if store == nil {
		return "", fmt.Errorf("settings store must not be nil")
	}

	if id, ok := store.Get(settings.KeyDeviceID); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	if err := store.Set(settings.KeyDeviceID, id, true); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	return id, nil
}
