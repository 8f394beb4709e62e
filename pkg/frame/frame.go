// Package frame describes the pixel formats the source can emit and the
// pixel arrays frames are delivered in.
package frame

import "strings"

// Format is the host-side name of a pixel format.
type Format string

const (
	// Raw formats

	FormatGray8 Format = "GRAY8"
	FormatUYVY  Format = "UYVY"
	FormatYUY2  Format = "YUY2"
	FormatRGB   Format = "RGB"
	FormatBGR   Format = "BGR"

	// Bayer mosaic formats

	FormatBayerRGGB Format = "rggb"
	FormatBayerGBRG Format = "gbrg"
	FormatBayerBGGR Format = "bggr"
	FormatBayerGRBG Format = "grbg"
)

// Category is the caps media type a format negotiates under.
type Category string

const (
	CategoryRaw   Category = "video/x-raw"
	CategoryBayer Category = "video/x-bayer"
)

// Descriptor ties a device-reported format name to its host-side format
// and caps category. The table is static; it is consulted in both
// directions during negotiation.
type Descriptor struct {
	Category Category
	Format   Format
	// DeviceName is the name the camera's format enumeration reports,
	// e.g. "Mono8" or "BayerRG8".
	DeviceName string
	// BytesPerPixel is the packed per-pixel size on the wire.
	BytesPerPixel int
}

var descriptors = []Descriptor{
	{Category: CategoryRaw, Format: FormatGray8, DeviceName: "Mono8", BytesPerPixel: 1},
	{Category: CategoryRaw, Format: FormatUYVY, DeviceName: "YUV422Packed", BytesPerPixel: 2},
	{Category: CategoryRaw, Format: FormatYUY2, DeviceName: "YCbCr422_8", BytesPerPixel: 2},
	{Category: CategoryRaw, Format: FormatRGB, DeviceName: "RGB8", BytesPerPixel: 3},
	{Category: CategoryRaw, Format: FormatBGR, DeviceName: "BGR8", BytesPerPixel: 3},
	{Category: CategoryBayer, Format: FormatBayerRGGB, DeviceName: "BayerRG8", BytesPerPixel: 1},
	{Category: CategoryBayer, Format: FormatBayerGBRG, DeviceName: "BayerGB8", BytesPerPixel: 1},
	{Category: CategoryBayer, Format: FormatBayerBGGR, DeviceName: "BayerBG8", BytesPerPixel: 1},
	{Category: CategoryBayer, Format: FormatBayerGRBG, DeviceName: "BayerGR8", BytesPerPixel: 1},
}

// Descriptors returns a copy of the supported format table.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// FromDeviceName resolves a device-reported format name. Names the table
// does not know return ok == false; callers skip them, which keeps the
// source forward compatible with firmware exposing new formats.
func FromDeviceName(name string) (Descriptor, bool) {
	for _, d := range descriptors {
		if strings.EqualFold(d.DeviceName, name) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// FromFormat resolves a host-side format name.
func FromFormat(f Format) (Descriptor, bool) {
	for _, d := range descriptors {
		if strings.EqualFold(string(d.Format), string(f)) {
			return d, true
		}
	}
	return Descriptor{}, false
}
