package session

import (
	"fmt"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
)

// Enumerate holds the SDK just long enough to list the attached
// cameras, returning the serial of every valid device in list order.
// Invalid entries (devices unplugged mid-enumeration) are skipped.
func Enumerate(provider spin.Provider) ([]string, error) {
	instance, err := provider.Acquire()
	if err != nil {
		return nil, fmt.Errorf("session: acquiring sdk: %w", err)
	}
	defer instance.Release()

	list, err := instance.Devices()
	if err != nil {
		return nil, fmt.Errorf("session: listing devices: %w", err)
	}
	defer list.Clear()

	serials := make([]string, 0, list.Count())
	for i := 0; i < list.Count(); i++ {
		d, ok := list.ByIndex(i)
		if !ok || !d.Valid() {
			continue
		}
		serials = append(serials, d.Serial())
	}
	return serials, nil
}
