package session

import (
	"errors"
	"fmt"
	"time"

	pionlogging "github.com/pion/logging"

	"github.com/fomorians-infra/gstreamer-pyspin-src/internal/logging"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
)

// DefaultTimeout is the per-attempt image wait used when a pump is built
// with timeout 0.
const DefaultTimeout = 2 * time.Second

// ErrAcquisitionTimeout means the device delivered nothing within the
// per-attempt timeout. Fatal to the stream; the host decides what to do.
var ErrAcquisitionTimeout = errors.New("session: timed out waiting for an image")

// Frame is one delivered capture with its presentation timing.
type Frame struct {
	Array frame.Array
	// PTS is the presentation timestamp relative to the first frame of
	// the stream.
	PTS time.Duration
	// Duration is the device-time distance to the previous frame; 0 for
	// the first frame.
	Duration time.Duration
	// DeviceTime is the raw device capture time in nanoseconds.
	DeviceTime int64
}

// Pump pulls complete frames from a streaming session.
//
// Incomplete captures are released and retried with no backoff and no
// retry cap; the SDK's image wait already enforces a hard per-attempt
// timeout, so each attempt terminates, but the worst-case latency for one
// delivered frame is unbounded. Build one pump per stream: the timestamp
// baseline is anchored to the stream's first frame.
type Pump struct {
	session *Session
	timeout time.Duration
	log     pionlogging.LeveledLogger

	baselined bool
	offset    int64
	previous  int64
}

// NewPump builds a pump over an open session. timeout 0 means
// DefaultTimeout.
func NewPump(s *Session, timeout time.Duration) *Pump {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pump{
		session: s,
		timeout: timeout,
		log:     logging.NewLogger("spinsrc/pump"),
	}
}

// Next pulls the next complete frame into dst. dst must hold exactly one
// frame as negotiated; pass nil to let the pump allocate. The returned
// Frame's Array aliases dst.
func (p *Pump) Next(dst []byte) (Frame, error) {
	dev := p.session.Device()
	if dev == nil {
		return Frame{}, ErrNoDevice
	}

	for {
		img, err := dev.NextImage(p.timeout)
		if err != nil {
			if errors.Is(err, spin.ErrTimeout) {
				return Frame{}, fmt.Errorf("%w: %w", ErrAcquisitionTimeout, err)
			}
			return Frame{}, fmt.Errorf("session: waiting for image: %w", err)
		}

		if !img.Complete() {
			p.log.Warnf("image incomplete with status %q", img.Status())
			img.Release()
			continue
		}

		f, err := p.deliver(img, dst)
		img.Release()
		return f, err
	}
}

func (p *Pump) deliver(img spin.Image, dst []byte) (Frame, error) {
	h, w, c := img.Dims()
	src, err := frame.NewArray(h, w, c, img.Data())
	if err != nil {
		return Frame{}, err
	}

	if dst == nil {
		dst = make([]byte, src.Size())
	}
	if err := src.CopyTo(dst); err != nil {
		return Frame{}, err
	}
	out := src
	out.Data = dst

	ts := img.Timestamp()
	if !p.baselined {
		p.offset = ts
		p.previous = ts
		p.baselined = true
	}
	f := Frame{
		Array:      out,
		PTS:        time.Duration(ts - p.offset),
		Duration:   time.Duration(ts - p.previous),
		DeviceTime: ts,
	}
	p.previous = ts
	return f, nil
}
