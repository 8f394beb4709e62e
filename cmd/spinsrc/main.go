// spinsrc streams a machine-vision camera into a GStreamer pipeline.
//
// With -list it prints the serials of the attached cameras and exits.
// Otherwise it opens a camera (by -serial, or the first one found),
// fixates the requested geometry and rate against what the device
// offers, and pushes frames into an appsrc pipeline ending in -sink.
//
// A vendor SDK provider is linked in by the build; -simulate swaps in
// the synthetic camera so the pipeline can be exercised without
// hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/driver/spincam"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
	gsthost "github.com/fomorians-infra/gstreamer-pyspin-src/pkg/gst"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/session"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin/spintest"
)

func main() {
	var (
		list     = flag.Bool("list", false, "list attached cameras and exit")
		serial   = flag.String("serial", "", "camera serial number (empty: first available)")
		width    = flag.Int("width", 0, "frame width (0: device current)")
		height   = flag.Int("height", 0, "frame height (0: device current)")
		fps      = flag.Float64("framerate", 0, "frames per second (0: device current)")
		format   = flag.String("format", "", "frame format, e.g. GRAY8, RGB, rggb (empty: first offered)")
		sink     = flag.String("sink", "autovideosink", "terminal pipeline element")
		exposure = flag.Float64("exposure", -1, "fixed exposure time in microseconds (negative: auto)")
		gain     = flag.Float64("gain", -1, "fixed gain in dB (negative: auto)")
		buffers  = flag.Int("num-buffers", spincam.DefaultNumImageBuffers, "transport buffer count")
		userSet  = flag.String("user-set", spincam.DefaultUserSet, "configuration profile to load on open")
		timeout  = flag.Duration("timeout", 0, "per-frame wait (0: default)")
		simulate = flag.Bool("simulate", false, "use the built-in synthetic camera")
	)
	flag.Parse()

	provider, err := newProvider(*simulate)
	if err != nil {
		log.Fatal(err)
	}

	if *list {
		serials, err := session.Enumerate(provider)
		if err != nil {
			log.Fatal(err)
		}
		for _, s := range serials {
			fmt.Println(s)
		}
		return
	}

	if *format != "" {
		if _, ok := frame.FromFormat(frame.Format(*format)); !ok {
			log.Fatalf("unknown format %q", *format)
		}
	}

	props := spincam.DefaultProperties()
	props.Serial = *serial
	props.NumImageBuffers = *buffers
	props.UserSet = *userSet
	props.Timeout = *timeout
	if *exposure >= 0 {
		props.AutoExposure = false
		props.Exposure = *exposure
	}
	if *gain >= 0 {
		props.AutoGain = false
		props.Gain = *gain
	}

	cam := spincam.New(provider, props)
	if err := cam.Open(); err != nil {
		log.Fatal(err)
	}
	defer cam.Close()

	fixed, err := cam.Fixate(prop.Media{Video: prop.Video{
		Width:       *width,
		Height:      *height,
		FrameRate:   *fps,
		FrameFormat: frame.Format(*format),
	}})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("streaming %s %dx%d @ %g fps", fixed.FrameFormat, fixed.Width, fixed.Height, fixed.FrameRate)

	reader, err := cam.VideoRecord(fixed)
	if err != nil {
		log.Fatal(err)
	}

	bridge, err := gsthost.NewBridge(gsthost.Config{Media: fixed, Sink: *sink})
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := bridge.Run(ctx, reader)
	if err := cam.Stop(); err != nil {
		log.Printf("stopping acquisition: %v", err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}

func newProvider(simulate bool) (spin.Provider, error) {
	if !simulate {
		return nil, fmt.Errorf("no vendor SDK linked into this build, run with -simulate")
	}
	return spintest.NewSystem(simulatedCamera()), nil
}

// simulatedCamera builds a synthetic device that produces an endless
// scrolling gradient at whatever geometry, format and rate the host
// negotiates on it.
func simulatedCamera() *spintest.Device {
	dev := spintest.NewDevice("SIM0001")
	nodes, _, _ := dev.Maps()

	var tick int
	dev.Generate = func() spintest.Capture {
		w := nodeInt(nodes, "Width", 1280)
		h := nodeInt(nodes, "Height", 1024)
		rate := nodeFloat(nodes, "AcquisitionFrameRate", 30)

		channels := 0 // plain 2-D mono
		bpp := 1
		if pf, ok := nodes.Node("PixelFormat"); ok {
			if desc, ok := frame.FromDeviceName(pf.(*spintest.EnumNode).Selected()); ok && desc.BytesPerPixel > 1 {
				channels = desc.BytesPerPixel
				bpp = desc.BytesPerPixel
			}
		}

		data := make([]byte, w*h*bpp)
		for i := range data {
			data[i] = byte(i + tick)
		}
		tick += 4

		time.Sleep(time.Duration(float64(time.Second) / rate))
		return spintest.Capture{
			Complete:  true,
			Height:    h,
			Width:     w,
			Channels:  channels,
			Data:      data,
			Timestamp: time.Now().UnixNano(),
		}
	}
	return dev
}

func nodeInt(m *spintest.NodeMap, name string, fallback int) int {
	if n, ok := m.Node(name); ok {
		if v, err := n.(*spintest.IntNode).Value(); err == nil {
			return int(v)
		}
	}
	return fallback
}

func nodeFloat(m *spintest.NodeMap, name string, fallback float64) float64 {
	if n, ok := m.Node(name); ok {
		if v, err := n.(*spintest.FloatNode).Value(); err == nil {
			return v
		}
	}
	return fallback
}
