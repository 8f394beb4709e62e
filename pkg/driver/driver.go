// Package driver manages camera adapters and their lifecycle states.
package driver

import (
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/session"
)

// Reader pulls timed frames from a running adapter. dst must hold exactly
// one frame as negotiated, or nil to let the reader allocate.
type Reader interface {
	Next(dst []byte) (session.Frame, error)
}

// ReaderFunc is a proxy type for Reader.
type ReaderFunc func(dst []byte) (session.Frame, error)

func (f ReaderFunc) Next(dst []byte) (session.Frame, error) {
	return f(dst)
}

// Adapter is a camera implementation. The wrapper returned by the manager
// enforces lifecycle ordering, so adapters can assume Open before
// VideoRecord, VideoRecord before Stop, and so on.
type Adapter interface {
	// Open binds the device and learns what it can do.
	Open() error
	// Close releases the device. Must succeed at releasing resources even
	// mid-stream.
	Close() error
	// Properties lists the configurations the device currently offers.
	// Only meaningful after Open.
	Properties() []prop.Media
	// VideoRecord applies the negotiated configuration and starts
	// streaming.
	VideoRecord(p prop.Media) (Reader, error)
	// Stop ends streaming but keeps the device open.
	Stop() error
}

// Driver is a registered adapter with identity and state tracking.
type Driver interface {
	Adapter
	ID() string
	Info() Info
	Status() State
}

// DeviceType says what kind of device an adapter fronts.
type DeviceType string

const (
	// Camera is a physical machine-vision camera.
	Camera DeviceType = "camera"
	// Simulated is a synthetic camera backend.
	Simulated DeviceType = "simulated"
)

// Info describes a registered driver.
type Info struct {
	// Label is a human-readable device name.
	Label      string
	DeviceType DeviceType
}
