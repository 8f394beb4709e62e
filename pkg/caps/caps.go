// Package caps computes and represents the set of pixel-format,
// resolution and frame-rate combinations the bound camera can currently
// offer. The set is probed once per session and then held immutable while
// the host negotiates against it.
package caps

import (
	"fmt"
	"math"

	pionlogging "github.com/pion/logging"

	"github.com/fomorians-infra/gstreamer-pyspin-src/internal/logging"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/node"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
)

// IntRange is an inclusive integer range.
type IntRange struct {
	Min, Max int
}

// Clamp forces v into the range.
func (r IntRange) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// FloatRange is an inclusive float range.
type FloatRange struct {
	Min, Max float64
}

// Clamp forces v into the range.
func (r FloatRange) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Capability is one offerable combination: a pixel format with the
// geometry and rate bounds the device supports while that format is
// active.
type Capability struct {
	Descriptor frame.Descriptor
	Width      IntRange
	Height     IntRange
	FrameRate  FloatRange
}

// Set is the negotiated capability list.
type Set []Capability

var log pionlogging.LeveledLogger = logging.NewLogger("spinsrc/caps")

// Probe derives the capability set from the device.
//
// Geometry and rate bounds are format dependent on many sensors (a Bayer
// readout can run wider or faster than a converted one), so every format
// must be probed while it is active: for each device-reported format with
// a known descriptor, the device is switched to that format and the
// Width, Height and AcquisitionFrameRate ranges are read. Formats the
// descriptor table does not know are skipped. The device's original
// pixel format is restored before Probe returns, whatever happens
// mid-loop.
func Probe(nodes *node.Map) (Set, error) {
	original, err := nodes.GetEnum("PixelFormat")
	if err != nil {
		return nil, fmt.Errorf("caps: reading current pixel format: %w", err)
	}
	defer func() {
		if err := nodes.SetEnum("PixelFormat", original); err != nil {
			log.Warnf("restoring pixel format %q: %v", original, err)
		}
	}()

	entries, err := nodes.EnumEntries("PixelFormat")
	if err != nil {
		return nil, fmt.Errorf("caps: listing pixel formats: %w", err)
	}

	var set Set
	for _, entry := range entries {
		desc, ok := frame.FromDeviceName(entry)
		if !ok {
			log.Debugf("skipping unsupported device format %q", entry)
			continue
		}

		if err := nodes.SetEnum("PixelFormat", entry); err != nil {
			return nil, fmt.Errorf("caps: selecting %q for probing: %w", entry, err)
		}

		wMin, wMax, err := nodes.IntRange("Width")
		if err != nil {
			return nil, fmt.Errorf("caps: width range for %q: %w", entry, err)
		}
		hMin, hMax, err := nodes.IntRange("Height")
		if err != nil {
			return nil, fmt.Errorf("caps: height range for %q: %w", entry, err)
		}
		rMin, rMax, err := nodes.FloatRange("AcquisitionFrameRate")
		if err != nil {
			return nil, fmt.Errorf("caps: frame rate range for %q: %w", entry, err)
		}

		set = append(set, Capability{
			Descriptor: desc,
			Width:      IntRange{Min: int(wMin), Max: int(wMax)},
			Height:     IntRange{Min: int(hMin), Max: int(hMax)},
			FrameRate:  FloatRange{Min: rMin, Max: rMax},
		})
	}

	return set, nil
}

// ByFormat returns the capability offering the given host-side format.
func (s Set) ByFormat(f frame.Format) (Capability, bool) {
	for _, c := range s {
		if c.Descriptor.Format == f {
			return c, true
		}
	}
	return Capability{}, false
}

// Medias renders the set as one representative configuration per
// capability, at the capability's maximum geometry and rate. Hosts that
// negotiate over discrete configurations consume this.
func (s Set) Medias() []prop.Media {
	out := make([]prop.Media, 0, len(s))
	for _, c := range s {
		out = append(out, prop.Media{
			Video: prop.Video{
				Width:       c.Width.Max,
				Height:      c.Height.Max,
				FrameRate:   c.FrameRate.Max,
				FrameFormat: c.Descriptor.Format,
			},
		})
	}
	return out
}

// Fixate pins a possibly under-specified request to a concrete
// configuration. The request's format picks the capability; when the
// request leaves the format open, the capability whose clamped rendering
// is nearest the request by fitness distance wins, ties keeping the
// earlier entry. Geometry and rate are clamped into the capability's
// bounds. Returns false if the set is empty or the requested format is
// not offered.
func (s Set) Fixate(request prop.Media) (prop.Media, bool) {
	if len(s) == 0 {
		return prop.Media{}, false
	}

	var c Capability
	if request.FrameFormat != "" {
		var ok bool
		if c, ok = s.ByFormat(request.FrameFormat); !ok {
			return prop.Media{}, false
		}
	} else {
		c = s.nearest(request)
	}

	fixed := request
	fixed.FrameFormat = c.Descriptor.Format
	fixed.Width = c.Width.Clamp(request.Width)
	fixed.Height = c.Height.Clamp(request.Height)
	fixed.FrameRate = c.FrameRate.Clamp(request.FrameRate)
	return fixed, true
}

// nearest scores every capability by how far its clamped rendering of
// the request lands from what was asked and returns the closest one.
// Only called with a non-empty set.
func (s Set) nearest(request prop.Media) Capability {
	best := s[0]
	bestDist := math.Inf(1)
	for _, c := range s {
		candidate := prop.Media{Video: prop.Video{
			Width:       c.Width.Clamp(request.Width),
			Height:      c.Height.Clamp(request.Height),
			FrameRate:   c.FrameRate.Clamp(request.FrameRate),
			FrameFormat: c.Descriptor.Format,
		}}
		if d := request.FitnessDistance(candidate); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
