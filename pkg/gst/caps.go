package gst

import (
	"fmt"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/caps"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
)

// CapsString renders a fixed configuration as a GStreamer caps string,
// e.g. "video/x-raw,format=GRAY8,width=1280,height=1024,framerate=30/1".
// Bayer formats render under the video/x-bayer media type.
func CapsString(m prop.Media) (string, error) {
	desc, ok := frame.FromFormat(m.FrameFormat)
	if !ok {
		return "", fmt.Errorf("gst: no caps mapping for format %q", m.FrameFormat)
	}
	num, den := framerateFraction(m.FrameRate)
	return fmt.Sprintf("%s,format=%s,width=%d,height=%d,framerate=%d/%d",
		desc.Category, desc.Format, m.Width, m.Height, num, den), nil
}

// RangeCapsString renders a probed capability with its full ranges, the
// form a source element would advertise before negotiation.
func RangeCapsString(c caps.Capability) string {
	minNum, minDen := framerateFraction(c.FrameRate.Min)
	maxNum, maxDen := framerateFraction(c.FrameRate.Max)
	return fmt.Sprintf("%s,format=%s,width=(int)[%d,%d],height=(int)[%d,%d],framerate=(fraction)[%d/%d,%d/%d]",
		c.Descriptor.Category, c.Descriptor.Format,
		c.Width.Min, c.Width.Max,
		c.Height.Min, c.Height.Max,
		minNum, minDen, maxNum, maxDen)
}

// framerateFraction converts a rate in frames per second to a reduced
// fraction, keeping three decimals of precision so rates like 29.97
// survive the trip.
func framerateFraction(fps float64) (num, den int) {
	if fps <= 0 {
		return 0, 1
	}
	num = int(fps*1000 + 0.5)
	den = 1000
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
