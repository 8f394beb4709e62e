// Package gst hosts the camera inside a GStreamer pipeline: an appsrc
// fed from the driver's frame reader, buffers stamped with the pump's
// pts and duration, downstream elements chosen by the caller.
package gst

import (
	"context"
	"fmt"
	"time"

	pionlogging "github.com/pion/logging"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/fomorians-infra/gstreamer-pyspin-src/internal/logging"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/driver"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/session"
)

// Config describes the pipeline around the appsrc.
type Config struct {
	// Media is the fixed configuration; it becomes the appsrc caps.
	Media prop.Media
	// Sink names the terminal element, e.g. "autovideosink" or
	// "fakesink". Empty means fakesink.
	Sink string
}

// Bridge owns the pipeline and the element pushing frames into it.
type Bridge struct {
	log      pionlogging.LeveledLogger
	pipeline *gst.Pipeline
	src      *app.Source
}

// NewBridge assembles appsrc → conversion → sink for the given
// configuration. Bayer formats get a bayer2rgb stage before the
// converter; raw formats go straight to videoconvert. The pipeline is
// built but not started.
func NewBridge(cfg Config) (*Bridge, error) {
	gst.Init(nil)

	capsStr, err := CapsString(cfg.Media)
	if err != nil {
		return nil, err
	}

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("gst: creating pipeline: %w", err)
	}

	src, err := app.NewAppSrc()
	if err != nil {
		return nil, fmt.Errorf("gst: creating appsrc: %w", err)
	}
	src.SetProperty("caps", gst.NewCapsFromString(capsStr))
	src.SetProperty("is-live", true)
	src.SetProperty("do-timestamp", false)
	src.SetProperty("format", int(gst.FormatTime))

	elements := []*gst.Element{src.Element}

	desc, _ := frame.FromFormat(cfg.Media.FrameFormat)
	if desc.Category == frame.CategoryBayer {
		debayer, err := gst.NewElement("bayer2rgb")
		if err != nil {
			return nil, fmt.Errorf("gst: creating bayer2rgb: %w", err)
		}
		elements = append(elements, debayer)
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("gst: creating videoconvert: %w", err)
	}
	elements = append(elements, converter)

	sinkName := cfg.Sink
	if sinkName == "" {
		sinkName = "fakesink"
	}
	sink, err := gst.NewElement(sinkName)
	if err != nil {
		return nil, fmt.Errorf("gst: creating %s: %w", sinkName, err)
	}
	elements = append(elements, sink)

	if err := pipeline.AddMany(elements...); err != nil {
		return nil, fmt.Errorf("gst: adding elements: %w", err)
	}
	if err := gst.ElementLinkMany(elements...); err != nil {
		return nil, fmt.Errorf("gst: linking elements: %w", err)
	}

	b := &Bridge{
		log:      logging.NewLogger("spinsrc/gst"),
		pipeline: pipeline,
		src:      src,
	}
	b.log.Infof("pipeline built: appsrc caps %q, sink %s", capsStr, sinkName)
	return b, nil
}

// Start moves the pipeline to PLAYING.
func (b *Bridge) Start() error {
	if err := b.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gst: starting pipeline: %w", err)
	}
	return nil
}

// Stop signals end of stream and tears the pipeline down.
func (b *Bridge) Stop() error {
	b.src.EndStream()
	if err := b.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("gst: stopping pipeline: %w", err)
	}
	return nil
}

// Push hands one captured frame to the appsrc. The pts and duration
// from the pump become the buffer timing, which is what downstream
// elements use for get-times style scheduling on a live source.
func (b *Bridge) Push(f session.Frame) error {
	buffer := gst.NewBufferFromBytes(f.Array.Data)
	buffer.SetPresentationTimestamp(f.PTS)
	buffer.SetDuration(f.Duration)

	if ret := b.src.PushBuffer(buffer); ret != gst.FlowOK {
		return fmt.Errorf("gst: pushing buffer: flow %v", ret)
	}
	return nil
}

// Run starts the pipeline and pumps frames from the reader until the
// context is cancelled, the reader fails, or the bus reports EOS or an
// error. The pipeline is always stopped before returning.
func (b *Bridge) Run(ctx context.Context, r driver.Reader) error {
	if err := b.Start(); err != nil {
		return err
	}
	defer func() {
		if err := b.Stop(); err != nil {
			b.log.Warnf("stopping pipeline: %v", err)
		}
	}()

	bus := b.pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if msg := bus.TimedPop(time.Duration(0)); msg != nil {
			switch msg.Type() {
			case gst.MessageEOS:
				b.log.Infof("end of stream")
				return nil
			case gst.MessageError:
				gerr := msg.ParseError()
				return fmt.Errorf("gst: pipeline error: %s (%s)", gerr.Error(), gerr.DebugString())
			}
		}

		f, err := r.Next(nil)
		if err != nil {
			return err
		}
		if err := b.Push(f); err != nil {
			return err
		}
	}
}
