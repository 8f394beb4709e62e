// Package spincam is the camera adapter: it sequences the session, the
// capability probe and the frame pump behind the driver lifecycle
// (Closed → Opened → Running and back).
package spincam

import (
	"errors"
	"fmt"
	"sync"
	"time"

	pionlogging "github.com/pion/logging"

	"github.com/fomorians-infra/gstreamer-pyspin-src/internal/logging"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/caps"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/driver"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/session"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
)

// ErrCapsApplication means the negotiated configuration could not be
// written to the device. Unlike the optional tuning properties, caps are
// mandatory: failure aborts the stream start.
var ErrCapsApplication = errors.New("spincam: applying caps failed")

// Property defaults.
const (
	DefaultExposure        = -1 // microseconds; < 0 leaves the automatic algorithm on
	DefaultGain            = -1 // dB; < 0 leaves the automatic algorithm on
	DefaultWBRatio         = -1 // blue/green resp. red/green; < 0 keeps auto white balance
	DefaultBinning         = 1
	DefaultNumImageBuffers = 10
	DefaultUserSet         = "Default"
)

// Properties are the host-facing tuning knobs, applied on Open before the
// capability probe. Zero-value numeric fields mean "default", matching
// how hosts construct them; use DefaultProperties as the base.
type Properties struct {
	// AutoExposure enables the device's continuous auto-exposure
	// algorithm. With Exposure >= 0 as well, the fixed value is written
	// first and the algorithm re-enabled on top, so auto wins.
	AutoExposure bool
	// Exposure is the fixed exposure time in microseconds; negative
	// disables the override.
	Exposure float64
	// AutoGain enables continuous auto gain, with the same ordering as
	// AutoExposure when a fixed Gain is also set.
	AutoGain bool
	// Gain is the fixed gain in dB; negative disables the override.
	Gain float64
	// AutoWhiteBalance enables continuous auto white balance.
	AutoWhiteBalance bool
	// WBBlueRatio and WBRedRatio fix the blue/green and red/green
	// balance ratios; negative disables the override.
	WBBlueRatio float64
	WBRedRatio  float64
	// HBinning and VBinning are average binning factors, applied before
	// width, height and offsets.
	HBinning int
	VBinning int
	// OffsetX and OffsetY place the region of interest.
	OffsetX int
	OffsetY int
	// NumImageBuffers is how many transport buffers the device allocates.
	NumImageBuffers int
	// Serial selects the camera; empty means the first available device.
	Serial string
	// UserSet is the configuration profile loaded before the overrides
	// above are applied.
	UserSet string
	// Timeout is the per-attempt frame wait; 0 means the session default.
	Timeout time.Duration
}

// DefaultProperties returns the documented defaults: all automatic
// algorithms on, no overrides, full sensor.
func DefaultProperties() Properties {
	return Properties{
		AutoExposure:     true,
		Exposure:         DefaultExposure,
		AutoGain:         true,
		Gain:             DefaultGain,
		AutoWhiteBalance: true,
		WBBlueRatio:      DefaultWBRatio,
		WBRedRatio:       DefaultWBRatio,
		HBinning:         DefaultBinning,
		VBinning:         DefaultBinning,
		NumImageBuffers:  DefaultNumImageBuffers,
		UserSet:          DefaultUserSet,
	}
}

// Camera implements driver.Adapter over one device session.
type Camera struct {
	props Properties
	log   pionlogging.LeveledLogger

	mu      sync.Mutex
	session *session.Session
	caps    caps.Set
	pump    *session.Pump
}

// New builds an unopened camera adapter over the given SDK provider.
func New(provider spin.Provider, props Properties) *Camera {
	return &Camera{
		props:   props,
		log:     logging.NewLogger("spinsrc/driver/spincam"),
		session: session.New(provider),
	}
}

// Register builds a camera and adds it to the driver manager.
func Register(provider spin.Provider, props Properties) driver.Driver {
	label := props.Serial
	if label == "" {
		label = "first-available"
	}
	return driver.GetManager().Register(New(provider, props), driver.Info{
		Label:      label,
		DeviceType: driver.Camera,
	})
}

// Open binds the device, applies the tuning properties and probes the
// capability set.
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := -1
	if c.props.Serial == "" {
		index = 0
	}
	if err := c.session.Open(c.props.Serial, index); err != nil {
		return err
	}

	c.applyProperties()

	set, err := caps.Probe(c.session.Nodes())
	if err != nil {
		c.session.Close()
		return err
	}
	c.caps = set
	return nil
}

// Close tears the session down.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.caps = nil
	c.pump = nil
	return c.session.Close()
}

// Properties lists the probed capability set, one configuration per
// offerable format at its maximum geometry and rate.
func (c *Camera) Properties() []prop.Media {
	c.mu.Lock()
	defer c.mu.Unlock()

	serial := c.session.Serial()
	medias := c.caps.Medias()
	for i := range medias {
		medias[i].DeviceSerial = serial
	}
	return medias
}

// Capabilities exposes the raw probed set, including the per-format
// geometry and rate ranges the Medias rendering collapses.
func (c *Camera) Capabilities() caps.Set {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(caps.Set, len(c.caps))
	copy(out, c.caps)
	return out
}

// Fixate pins an under-specified request to a concrete configuration,
// preferring the device's current geometry and rate for any field the
// request leaves open.
func (c *Camera) Fixate(request prop.Media) (prop.Media, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes := c.session.Nodes()
	current := prop.Media{}
	if w, err := nodes.GetInt("Width"); err == nil {
		current.Width = int(w)
	}
	if h, err := nodes.GetInt("Height"); err == nil {
		current.Height = int(h)
	}
	if r, err := nodes.GetFloat("AcquisitionFrameRate"); err == nil {
		current.FrameRate = r
	}

	current.Merge(request)
	fixed, ok := c.caps.Fixate(current)
	if !ok {
		return prop.Media{}, fmt.Errorf("%w: no capability offers %q", ErrCapsApplication, request.FrameFormat)
	}
	return fixed, nil
}

// VideoRecord applies the negotiated configuration, starts acquisition
// and returns the frame reader.
func (c *Camera) VideoRecord(p prop.Media) (driver.Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.applyCaps(p); err != nil {
		return nil, err
	}
	if err := c.session.BeginAcquisition(); err != nil {
		return nil, err
	}

	pump := session.NewPump(c.session, c.props.Timeout)
	c.pump = pump
	return driver.ReaderFunc(pump.Next), nil
}

// Stop ends acquisition but keeps the device open; a new VideoRecord can
// renegotiate and stream again.
func (c *Camera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pump = nil
	return c.session.EndAcquisition()
}

// applyCaps writes the negotiated configuration. Every step is
// mandatory: these nodes exist on any conformant device, and a rejection
// means the stream can not run as negotiated.
func (c *Camera) applyCaps(p prop.Media) error {
	nodes := c.session.Nodes()

	desc, ok := frame.FromFormat(p.FrameFormat)
	if !ok {
		return fmt.Errorf("%w: unknown format %q", ErrCapsApplication, p.FrameFormat)
	}
	if err := nodes.SetEnum("PixelFormat", desc.DeviceName); err != nil {
		return fmt.Errorf("%w: %w", ErrCapsApplication, err)
	}

	if err := nodes.SetInt("Height", int64(p.Height)); err != nil {
		return fmt.Errorf("%w: %w", ErrCapsApplication, err)
	}
	if err := nodes.SetInt("Width", int64(p.Width)); err != nil {
		return fmt.Errorf("%w: %w", ErrCapsApplication, err)
	}
	if err := nodes.SetInt("OffsetY", int64(c.props.OffsetY)); err != nil {
		return fmt.Errorf("%w: %w", ErrCapsApplication, err)
	}
	if err := nodes.SetInt("OffsetX", int64(c.props.OffsetX)); err != nil {
		return fmt.Errorf("%w: %w", ErrCapsApplication, err)
	}

	// Older firmware spells the manual-rate switch differently.
	if nodes.Available("AcquisitionFrameRateEnable") {
		if err := nodes.SetBool("AcquisitionFrameRateEnable", true); err != nil {
			return fmt.Errorf("%w: %w", ErrCapsApplication, err)
		}
	} else {
		if err := nodes.SetEnum("AcquisitionFrameRateAuto", "Off"); err != nil {
			return fmt.Errorf("%w: %w", ErrCapsApplication, err)
		}
		if err := nodes.SetBool("AcquisitionFrameRateEnabled", true); err != nil {
			return fmt.Errorf("%w: %w", ErrCapsApplication, err)
		}
	}
	if err := nodes.SetFloat("AcquisitionFrameRate", p.FrameRate); err != nil {
		return fmt.Errorf("%w: %w", ErrCapsApplication, err)
	}

	c.log.Infof("caps applied: %s %dx%d @ %g fps", p.FrameFormat, p.Width, p.Height, p.FrameRate)
	return nil
}

// applyProperties writes the tuning properties. Many of these nodes are
// camera-model dependent; a missing or rejected one is logged and
// skipped, never fatal.
func (c *Camera) applyProperties() {
	nodes := c.session.Nodes()

	set := func(name string, value interface{}) {
		if err := nodes.Set(name, value); err != nil {
			c.log.Warnf("setting %s: %v", name, err)
			return
		}
		if v, err := nodes.Get(name); err == nil {
			c.log.Infof("%s: %v", name, v)
		}
	}
	execute := func(name string) {
		if err := nodes.Execute(name); err != nil {
			c.log.Warnf("executing %s: %v", name, err)
			return
		}
		c.log.Infof("%s executed", name)
	}

	if c.props.UserSet != "" {
		set("UserSetSelector", c.props.UserSet)
		execute("UserSetLoad")
	}

	set("StreamBufferHandlingMode", "OldestFirst")
	set("StreamBufferCountMode", "Manual")
	set("StreamBufferCountManual", c.props.NumImageBuffers)

	if c.props.HBinning > 1 {
		set("BinningHorizontal", c.props.HBinning)
	}
	if c.props.VBinning > 1 {
		set("BinningVertical", c.props.VBinning)
	}

	if c.props.Exposure >= 0 {
		set("ExposureAuto", "Off")
		set("ExposureTime", c.props.Exposure)
	}
	if c.props.AutoExposure {
		set("ExposureAuto", "Continuous")
	}

	if c.props.Gain >= 0 {
		set("GainAuto", "Off")
		set("Gain", c.props.Gain)
	}
	if c.props.AutoGain {
		set("GainAuto", "Continuous")
	}

	if nodes.Available("BalanceWhiteAuto") {
		if c.props.WBBlueRatio >= 0 {
			set("BalanceWhiteAuto", "Off")
			set("BalanceRatioSelector", "Blue")
			set("BalanceRatio", c.props.WBBlueRatio)
		}
		if c.props.WBRedRatio >= 0 {
			set("BalanceWhiteAuto", "Off")
			set("BalanceRatioSelector", "Red")
			set("BalanceRatio", c.props.WBRedRatio)
		}
		if c.props.AutoWhiteBalance {
			set("BalanceWhiteAuto", "Continuous")
		}
	}
}
