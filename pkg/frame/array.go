package frame

import "fmt"

// Array is a frame's pixel data in H×W×C layout. Every array is
// 3-dimensional: devices that deliver plain 2-D mono data get a trailing
// channel dimension of size 1, so mono and color frames share one shape.
type Array struct {
	Height   int
	Width    int
	Channels int
	Data     []byte
}

// NewArray builds an array over data. A channel count of 0 marks 2-D
// device data and is normalized to 1.
func NewArray(height, width, channels int, data []byte) (Array, error) {
	if channels == 0 {
		channels = 1
	}
	a := Array{Height: height, Width: width, Channels: channels, Data: data}
	if len(data) < a.Size() {
		return Array{}, fmt.Errorf("frame: %dx%dx%d needs %d bytes, have %d",
			height, width, channels, a.Size(), len(data))
	}
	return a, nil
}

// Size is the number of bytes the array's dimensions describe.
func (a Array) Size() int {
	return a.Height * a.Width * a.Channels
}

// CopyTo fills dst with the array's pixel data. dst must hold exactly one
// frame; the host sizes its buffers from the negotiated caps, so a
// mismatch means caps and device state have drifted apart.
func (a Array) CopyTo(dst []byte) error {
	if len(dst) != a.Size() {
		return fmt.Errorf("frame: destination is %d bytes, frame is %d", len(dst), a.Size())
	}
	copy(dst, a.Data[:a.Size()])
	return nil
}
