// Package session owns one camera: discovery, lifecycle and acquisition.
//
// A session binds at most one device at a time. Opening a session that
// already holds a device force-closes the old one first, so repeated
// start/stop cycles can not leak device handles. The SDK instance is
// acquired on open and released on close, one-to-one.
//
// Open, Close, BeginAcquisition and EndAcquisition are safe to call from
// multiple goroutines. Pump reads are not serialized against them and
// must not overlap a Close; hosts call them from the one streaming
// goroutine.
package session

import (
	"errors"
	"fmt"
	"sync"

	pionlogging "github.com/pion/logging"

	"github.com/fomorians-infra/gstreamer-pyspin-src/internal/logging"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/node"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
)

var (
	// ErrNoDeviceAvailable means neither the serial nor the index resolved
	// to a valid attached device.
	ErrNoDeviceAvailable = errors.New("session: no device available")
	// ErrAcquisitionStart wraps SDK rejections of acquisition start.
	ErrAcquisitionStart = errors.New("session: acquisition start failed")
	// ErrAcquisitionStop wraps SDK rejections of acquisition stop.
	ErrAcquisitionStop = errors.New("session: acquisition stop failed")
	// ErrNoDevice means the operation needs an open device.
	ErrNoDevice = errors.New("session: no device is open")
)

// Session is the exclusive owner of one device handle and its node maps.
type Session struct {
	provider spin.Provider
	log      pionlogging.LeveledLogger

	mu       sync.Mutex
	instance spin.Instance
	list     spin.DeviceList
	device   spin.Device
	nodes    *node.Map
}

// New builds a session over the given SDK provider. No device is bound
// until Open.
func New(provider spin.Provider) *Session {
	s := &Session{
		provider: provider,
		log:      logging.NewLogger("spinsrc/session"),
	}
	s.nodes = node.NewMap(s.deviceNodeMap, s.tlDeviceNodeMap, s.tlStreamNodeMap)
	return s
}

func (s *Session) deviceNodeMap() (spin.NodeMap, error) {
	if s.device == nil || !s.device.Valid() || !s.device.Initialized() {
		return nil, fmt.Errorf("device scope: %w", ErrNoDevice)
	}
	return s.device.NodeMap()
}

func (s *Session) tlDeviceNodeMap() (spin.NodeMap, error) {
	if s.device == nil || !s.device.Valid() {
		return nil, fmt.Errorf("transport-layer device scope: %w", ErrNoDevice)
	}
	return s.device.TLDeviceNodeMap()
}

func (s *Session) tlStreamNodeMap() (spin.NodeMap, error) {
	if s.device == nil || !s.device.Valid() {
		return nil, fmt.Errorf("transport-layer stream scope: %w", ErrNoDevice)
	}
	return s.device.TLStreamNodeMap()
}

// Nodes is the session's node accessor. Valid between Open and Close.
func (s *Session) Nodes() *node.Map {
	return s.nodes
}

// Open binds a device. Any previously bound device is fully torn down
// first. A non-empty serial is tried before the index; the index is only
// considered when it is within the current device count; index < 0 means
// no index candidate. The first valid candidate wins.
func (s *Session) Open(serial string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()

	inst, err := s.provider.Acquire()
	if err != nil {
		return fmt.Errorf("session: acquiring SDK instance: %w", err)
	}
	s.instance = inst

	list, err := inst.Devices()
	if err != nil {
		s.closeLocked()
		return fmt.Errorf("session: enumerating devices: %w", err)
	}
	s.list = list

	var candidates []spin.Device
	if serial != "" {
		if d, ok := list.BySerial(serial); ok {
			candidates = append(candidates, d)
		}
	}
	if index >= 0 && index < list.Count() {
		if d, ok := list.ByIndex(index); ok {
			candidates = append(candidates, d)
		}
	}

	for _, d := range candidates {
		if d != nil && d.Valid() {
			s.device = d
			break
		}
	}
	if s.device == nil {
		s.closeLocked()
		return fmt.Errorf("%w: serial %q, index %d", ErrNoDeviceAvailable, serial, index)
	}

	if err := s.device.Init(); err != nil {
		s.closeLocked()
		return fmt.Errorf("session: initializing device: %w", err)
	}

	// A previous process may have died mid-stream; make sure acquisition
	// is stopped before we touch anything else.
	if err := s.device.EndAcquisition(); err != nil && !errors.Is(err, spin.ErrNotStreaming) {
		s.log.Debugf("stopping leftover acquisition: %v", err)
	}

	s.log.Infof("opened device %s", s.device.Serial())
	return nil
}

// BeginAcquisition switches the device to continuous acquisition and
// starts streaming.
func (s *Session) BeginAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return ErrNoDevice
	}
	if err := s.nodes.SetEnum("AcquisitionMode", "Continuous"); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisitionStart, err)
	}
	if err := s.device.BeginAcquisition(); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisitionStart, err)
	}
	s.log.Infof("acquisition started")
	return nil
}

// EndAcquisition stops streaming. The underlying call may reject the
// stop; the failure is propagated.
func (s *Session) EndAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return ErrNoDevice
	}
	if err := s.device.EndAcquisition(); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisitionStop, err)
	}
	s.log.Infof("acquisition stopped")
	return nil
}

// Streaming reports whether the bound device is acquiring.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device != nil && s.device.Streaming()
}

// Device exposes the bound device for frame delivery. Nil when closed.
func (s *Session) Device() spin.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Serial returns the bound device's serial number, or "".
func (s *Session) Serial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return ""
	}
	return s.device.Serial()
}

// Close tears the session down: stop acquisition, deinitialize, drop the
// cached node maps, release the device list and the SDK handle. Each step
// runs even if an earlier one failed, so system-level resources are
// always given back. Closing a closed session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *Session) closeLocked() {
	if s.device != nil && s.device.Valid() {
		if s.device.Streaming() {
			if err := s.device.EndAcquisition(); err != nil {
				s.log.Warnf("ending acquisition during close: %v", err)
			}
		}
		if s.device.Initialized() {
			if err := s.device.DeInit(); err != nil {
				s.log.Warnf("deinitializing device during close: %v", err)
			}
		}
	}
	s.device = nil
	s.nodes.Invalidate()

	if s.list != nil {
		s.list.Clear()
		s.list = nil
	}
	if s.instance != nil {
		if err := s.instance.Release(); err != nil {
			s.log.Warnf("releasing SDK instance: %v", err)
		}
		s.instance = nil
	}
}
