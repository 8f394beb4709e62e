// Package prop represents negotiated media properties: the concrete
// format, geometry and rate a stream runs at, and the distance between a
// request and what the device can do.
package prop

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
)

// Media is one concrete (or requested) stream configuration.
type Media struct {
	// DeviceSerial identifies the camera the configuration belongs to.
	DeviceSerial string
	Video
}

// Video is a video stream's properties.
type Video struct {
	Width, Height int
	FrameRate     float64
	FrameFormat   frame.Format
}

// Merge overlays the non-zero fields of o onto p. Zero values mean
// "unconstrained" in a request and are skipped.
func (p *Media) Merge(o Media) {
	rp := reflect.ValueOf(p).Elem()
	ro := reflect.ValueOf(o)

	var merge func(a, b reflect.Value)
	merge = func(a, b reflect.Value) {
		numFields := a.NumField()
		for i := 0; i < numFields; i++ {
			fieldA := a.Field(i)
			fieldB := b.Field(i)

			if fieldA.Kind() == reflect.Struct {
				merge(fieldA, fieldB)
				continue
			}
			if fieldB.IsZero() {
				continue
			}
			fieldA.Set(fieldB)
		}
	}

	merge(rp, ro)
}

// FitnessDistance is how far o is from p; 0 is a perfect match. Used to
// pick the offerable configuration closest to a request.
func (p *Media) FitnessDistance(o Media) float64 {
	cmps := comparisons{}
	cmps.add(p.Width, o.Width)
	cmps.add(p.Height, o.Height)
	cmps.add(p.FrameRate, o.FrameRate)
	cmps.add(p.FrameFormat, o.FrameFormat)
	return cmps.fitnessDistance()
}

type comparisons map[string]string

func (c comparisons) add(actual, ideal interface{}) {
	c[fmt.Sprint(actual)] = fmt.Sprint(ideal)
}

func (c comparisons) fitnessDistance() float64 {
	var dist float64

	for actual, ideal := range c {
		if actual == ideal {
			continue
		}

		actualF, err1 := strconv.ParseFloat(actual, 64)
		idealF, err2 := strconv.ParseFloat(ideal, 64)

		switch {
		// Numeric values are normalized to their magnitude so one huge
		// dimension can not drown out the others.
		case err1 == nil && err2 == nil:
			dist += math.Abs(actualF-idealF) / math.Max(math.Abs(actualF), math.Abs(idealF))
		case err1 != nil && err2 != nil:
			if actual != ideal {
				dist++
			}
		default:
			panic("FitnessDistance can't mix numeric and non-numeric comparisons")
		}
	}

	return dist
}
