// Package spintest is a scripted in-memory implementation of the spin SDK
// boundary. Tests drive it instead of hardware, and the simulated camera
// backend builds on it.
package spintest

import (
	"errors"
	"fmt"
	"time"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
)

// System owns the simulated SDK and its attached devices. It implements
// spin.Provider with reference counting so tests can assert that every
// session releases its handle.
type System struct {
	devices []*Device

	refs     int
	acquires int
}

// NewSystem builds a system with the given devices attached.
func NewSystem(devices ...*Device) *System {
	return &System{devices: devices}
}

// Attach adds a device, as if it were plugged in.
func (s *System) Attach(d *Device) {
	s.devices = append(s.devices, d)
}

// Acquire implements spin.Provider. Like the real SDK's get-instance it
// can be called again after the last handle was released.
func (s *System) Acquire() (spin.Instance, error) {
	s.refs++
	s.acquires++
	return &instance{sys: s}, nil
}

// Refs is the number of outstanding instance handles.
func (s *System) Refs() int { return s.refs }

// Acquires is the total number of Acquire calls.
func (s *System) Acquires() int { return s.acquires }

type instance struct {
	sys      *System
	released bool
}

func (i *instance) Devices() (spin.DeviceList, error) {
	if i.released {
		return nil, errors.New("spintest: instance released")
	}
	devs := make([]*Device, len(i.sys.devices))
	copy(devs, i.sys.devices)
	return &deviceList{devices: devs}, nil
}

func (i *instance) Release() error {
	if i.released {
		return errors.New("spintest: double release")
	}
	i.released = true
	i.sys.refs--
	return nil
}

type deviceList struct {
	devices []*Device
	cleared bool
}

func (l *deviceList) Count() int { return len(l.devices) }

func (l *deviceList) BySerial(serial string) (spin.Device, bool) {
	for _, d := range l.devices {
		if d.serial == serial {
			return d, true
		}
	}
	return nil, false
}

func (l *deviceList) ByIndex(index int) (spin.Device, bool) {
	if index < 0 || index >= len(l.devices) {
		return nil, false
	}
	return l.devices[index], true
}

func (l *deviceList) Clear() { l.cleared = true }

// Capture scripts one image the device will deliver.
type Capture struct {
	Complete  bool
	Status    string
	Height    int
	Width     int
	Channels  int // 0 scripts a plain 2-D mono capture
	Data      []byte
	Timestamp int64
}

// Device is one simulated camera.
type Device struct {
	serial  string
	invalid bool

	device   *NodeMap
	tlDevice *NodeMap
	tlStream *NodeMap

	initialized bool
	streaming   bool

	captures []Capture

	// Generate, when set, produces captures once the script runs out.
	// The simulated-camera CLI uses it for an endless synthetic stream.
	Generate func() Capture

	// BeginErr, when set, makes BeginAcquisition fail.
	BeginErr error
	// EndErr, when set, makes EndAcquisition fail even while streaming.
	EndErr error

	// Released collects the images handed out that have been released.
	Released []*Image

	beginCalls int
	endCalls   int
	initCalls  int
	deinits    int
}

// NewDevice builds a device with the given serial and standard node maps
// (see DefaultNodeMaps).
func NewDevice(serial string) *Device {
	d := &Device{serial: serial}
	d.device, d.tlDevice, d.tlStream = DefaultNodeMaps(serial)
	return d
}

// Script appends captures the device will deliver in order.
func (d *Device) Script(captures ...Capture) {
	d.captures = append(d.captures, captures...)
}

// Invalidate marks the device invalid, as if it were unplugged.
func (d *Device) Invalidate() { d.invalid = true }

// Maps exposes the three scope maps for test setup.
func (d *Device) Maps() (device, tlDevice, tlStream *NodeMap) {
	return d.device, d.tlDevice, d.tlStream
}

// BeginCalls, EndCalls, InitCalls and DeInitCalls report lifecycle
// bookkeeping for assertions.
func (d *Device) BeginCalls() int  { return d.beginCalls }
func (d *Device) EndCalls() int    { return d.endCalls }
func (d *Device) InitCalls() int   { return d.initCalls }
func (d *Device) DeInitCalls() int { return d.deinits }

func (d *Device) Valid() bool    { return !d.invalid }
func (d *Device) Serial() string { return d.serial }

func (d *Device) Init() error {
	if d.invalid {
		return errors.New("spintest: device invalid")
	}
	d.initialized = true
	d.initCalls++
	return nil
}

func (d *Device) DeInit() error {
	d.initialized = false
	d.deinits++
	return nil
}

func (d *Device) Initialized() bool { return d.initialized }

func (d *Device) BeginAcquisition() error {
	d.beginCalls++
	if d.BeginErr != nil {
		return d.BeginErr
	}
	if d.streaming {
		return errors.New("spintest: already streaming")
	}
	if !d.initialized {
		return spin.ErrNotInitialized
	}
	d.streaming = true
	return nil
}

func (d *Device) EndAcquisition() error {
	d.endCalls++
	if !d.streaming {
		return spin.ErrNotStreaming
	}
	if d.EndErr != nil {
		return d.EndErr
	}
	d.streaming = false
	return nil
}

func (d *Device) Streaming() bool { return d.streaming }

func (d *Device) NextImage(timeout time.Duration) (spin.Image, error) {
	if !d.streaming {
		return nil, errors.New("spintest: acquisition not started")
	}
	if len(d.captures) == 0 {
		if d.Generate == nil {
			return nil, spin.ErrTimeout
		}
		img := &Image{capture: d.Generate(), dev: d}
		return img, nil
	}
	c := d.captures[0]
	d.captures = d.captures[1:]
	img := &Image{capture: c, dev: d}
	return img, nil
}

func (d *Device) NodeMap() (spin.NodeMap, error) {
	if d.invalid || !d.initialized {
		return nil, fmt.Errorf("spintest: device node map: %w", spin.ErrNotInitialized)
	}
	return d.device, nil
}

func (d *Device) TLDeviceNodeMap() (spin.NodeMap, error) {
	if d.invalid {
		return nil, errors.New("spintest: device invalid")
	}
	return d.tlDevice, nil
}

func (d *Device) TLStreamNodeMap() (spin.NodeMap, error) {
	if d.invalid {
		return nil, errors.New("spintest: device invalid")
	}
	return d.tlStream, nil
}

// Image is one delivered capture.
type Image struct {
	capture  Capture
	dev      *Device
	released bool
}

func (i *Image) Complete() bool { return i.capture.Complete }
func (i *Image) Status() string { return i.capture.Status }

func (i *Image) Dims() (height, width, channels int) {
	return i.capture.Height, i.capture.Width, i.capture.Channels
}

func (i *Image) Data() []byte     { return i.capture.Data }
func (i *Image) Timestamp() int64 { return i.capture.Timestamp }

func (i *Image) Release() {
	if i.released {
		return
	}
	i.released = true
	i.dev.Released = append(i.dev.Released, i)
}

// IsReleased reports whether the image has been released.
func (i *Image) IsReleased() bool { return i.released }
