// Package spin defines the boundary to the vendor camera SDK. The rest of
// the module programs against these interfaces; a cgo binding to the real
// SDK and the scripted implementation in spintest both satisfy them.
package spin

import (
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by Device.NextImage when no image arrives
	// within the given timeout.
	ErrTimeout = errors.New("spin: image wait timed out")
	// ErrNotStreaming is returned by Device.EndAcquisition when acquisition
	// is not running.
	ErrNotStreaming = errors.New("spin: acquisition is not running")
	// ErrNotInitialized is returned by operations that require an
	// initialized device.
	ErrNotInitialized = errors.New("spin: device is not initialized")
)

// Provider yields handles on the process-wide SDK instance. Every acquired
// Instance must be released exactly once; the SDK itself is torn down when
// the last handle is released.
type Provider interface {
	Acquire() (Instance, error)
}

// Instance is one handle on the SDK.
type Instance interface {
	// Devices enumerates the currently attached cameras. Each call
	// refreshes the list.
	Devices() (DeviceList, error)
	// Release gives the handle back. The Instance must not be used
	// afterwards.
	Release() error
}

// DeviceList is a point-in-time snapshot of attached cameras.
type DeviceList interface {
	Count() int
	BySerial(serial string) (Device, bool)
	ByIndex(index int) (Device, bool)
	// Clear drops the list's references to the underlying devices.
	Clear()
}

// Device is one physical camera.
type Device interface {
	Valid() bool
	Serial() string

	Init() error
	DeInit() error
	Initialized() bool

	BeginAcquisition() error
	EndAcquisition() error
	Streaming() bool

	// NextImage blocks until the device delivers an image or the timeout
	// elapses (ErrTimeout). The returned image may be incomplete and must
	// be released by the caller in every case.
	NextImage(timeout time.Duration) (Image, error)

	// NodeMap is the device-scope parameter map; it requires an
	// initialized device. The transport-layer maps are available as soon
	// as the device is valid.
	NodeMap() (NodeMap, error)
	TLDeviceNodeMap() (NodeMap, error)
	TLStreamNodeMap() (NodeMap, error)
}

// Image is one delivered capture. Data is only valid until Release.
type Image interface {
	// Complete reports whether the image was fully received.
	Complete() bool
	// Status describes why an incomplete image is incomplete.
	Status() string
	// Dims returns height, width and channel count. Channels is 0 for
	// captures the device reports as plain 2-D (mono) data.
	Dims() (height, width, channels int)
	Data() []byte
	// Timestamp is the device capture time in nanoseconds.
	Timestamp() int64
	// Release returns the capture to the device buffer pool.
	Release()
}
