package gst

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/caps"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/frame"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/prop"
)

func TestCapsString(t *testing.T) {
	for _, tc := range []struct {
		media prop.Media
		want  string
	}{
		{
			media: prop.Media{Video: prop.Video{
				Width: 1280, Height: 1024, FrameRate: 30, FrameFormat: frame.FormatGray8,
			}},
			want: "video/x-raw,format=GRAY8,width=1280,height=1024,framerate=30/1",
		},
		{
			media: prop.Media{Video: prop.Video{
				Width: 1920, Height: 1080, FrameRate: 29.97, FrameFormat: frame.FormatRGB,
			}},
			want: "video/x-raw,format=RGB,width=1920,height=1080,framerate=2997/100",
		},
		{
			media: prop.Media{Video: prop.Video{
				Width: 640, Height: 480, FrameRate: 0.5, FrameFormat: frame.FormatBayerRGGB,
			}},
			want: "video/x-bayer,format=rggb,width=640,height=480,framerate=1/2",
		},
	} {
		got, err := CapsString(tc.media)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestCapsStringUnknownFormat(t *testing.T) {
	_, err := CapsString(prop.Media{Video: prop.Video{FrameFormat: "I420"}})
	require.Error(t, err)
}

func TestRangeCapsString(t *testing.T) {
	desc, ok := frame.FromFormat(frame.FormatGray8)
	require.True(t, ok)

	got := RangeCapsString(caps.Capability{
		Descriptor: desc,
		Width:      caps.IntRange{Min: 4, Max: 1280},
		Height:     caps.IntRange{Min: 4, Max: 1024},
		FrameRate:  caps.FloatRange{Min: 1, Max: 60},
	})
	require.Equal(t,
		"video/x-raw,format=GRAY8,width=(int)[4,1280],height=(int)[4,1024],framerate=(fraction)[1/1,60/1]",
		got)
}
