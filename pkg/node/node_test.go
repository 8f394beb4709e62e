package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin/spintest"
)

func newTestMap(device, tlDevice, tlStream *spintest.NodeMap) *Map {
	source := func(nm *spintest.NodeMap) Source {
		return func() (spin.NodeMap, error) { return nm, nil }
	}
	return NewMap(source(device), source(tlDevice), source(tlStream))
}

func threeScopes() (*spintest.NodeMap, *spintest.NodeMap, *spintest.NodeMap) {
	return spintest.NewNodeMap(), spintest.NewNodeMap(), spintest.NewNodeMap()
}

func TestLookupPrecedence(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()

	device.Add(spintest.NewIntNode("Width", 640, 4, 1280))
	tlDevice.Add(spintest.NewIntNode("Width", 111, 0, 999))
	tlStream.Add(spintest.NewIntNode("Width", 222, 0, 999))

	m := newTestMap(device, tlDevice, tlStream)

	v, err := m.GetInt("Width")
	if err != nil {
		t.Fatal(err)
	}
	if v != 640 {
		t.Fatalf("expected device-scope value 640, got %d", v)
	}

	if err := m.SetInt("Width", 800); err != nil {
		t.Fatal(err)
	}
	dn, _ := device.Node("Width")
	if got, _ := dn.(spin.IntegerNode).Value(); got != 800 {
		t.Fatalf("expected write to land on device scope, got %d", got)
	}
	tn, _ := tlDevice.Node("Width")
	if got, _ := tn.(spin.IntegerNode).Value(); got != 111 {
		t.Fatalf("transport-layer node must stay untouched, got %d", got)
	}
}

func TestLookupFallsBackThroughScopes(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	tlStream.Add(spintest.NewIntNode("StreamBufferCountManual", 10, 1, 256))

	m := newTestMap(device, tlDevice, tlStream)

	v, err := m.GetInt("StreamBufferCountManual")
	require.NoError(t, err)
	require.Equal(t, int64(10), v)

	_, err = m.GetInt("NoSuchNode")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetClampsIntoRange(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	in := spintest.NewIntNode("Height", 480, 4, 1024)
	fl := spintest.NewFloatNode("Gain", 0, 0, 48)
	device.Add(in)
	device.Add(fl)

	m := newTestMap(device, tlDevice, tlStream)

	for _, tc := range []struct {
		req  int64
		want int64
	}{
		{5000, 1024},
		{-17, 4},
		{512, 512},
	} {
		if err := m.SetInt("Height", tc.req); err != nil {
			t.Fatal(err)
		}
		if in.Val != tc.want {
			t.Fatalf("SetInt(%d): expected clamp to %d, got %d", tc.req, tc.want, in.Val)
		}
	}

	require.NoError(t, m.SetFloat("Gain", 99.5))
	require.Equal(t, 48.0, fl.Val)
	require.NoError(t, m.SetFloat("Gain", -3))
	require.Equal(t, 0.0, fl.Val)
}

func TestAccessChecksAreDistinctFromNotFound(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()

	locked := spintest.NewIntNode("Width", 640, 4, 1280)
	locked.NoWrite = true
	device.Add(locked)

	gone := spintest.NewFloatNode("ExposureTime", 100, 8, 30000)
	gone.Unavailable = true
	device.Add(gone)

	m := newTestMap(device, tlDevice, tlStream)

	err := m.SetInt("Width", 800)
	require.ErrorIs(t, err, ErrNotWritable)
	require.NotErrorIs(t, err, ErrNotFound)

	_, err = m.GetFloat("ExposureTime")
	require.ErrorIs(t, err, ErrNotReadable)

	// Unavailable blocks writes too, with the write-side error.
	err = m.SetFloat("ExposureTime", 200)
	require.ErrorIs(t, err, ErrNotWritable)
}

func TestUnsupportedKinds(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	device.Add(spintest.NewStringNode("DeviceModelName", "SIM-1"))
	device.Add(spintest.NewCommandNode("UserSetLoad"))
	device.Add(spintest.NewOpaqueNode("ChunkData"))
	device.Add(spintest.NewIntNode("Width", 640, 4, 1280))
	device.Add(spintest.NewEnumNode("PixelFormat", "Mono8"))

	m := newTestMap(device, tlDevice, tlStream)

	if _, err := m.Get("DeviceModelName"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("string get: expected ErrUnsupportedType, got %v", err)
	}
	if err := m.Set("DeviceModelName", "x"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("string set: expected ErrUnsupportedType, got %v", err)
	}
	if _, err := m.Get("UserSetLoad"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("command get: expected ErrUnsupportedType, got %v", err)
	}
	if _, err := m.Get("ChunkData"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("unknown kind: expected ErrUnsupportedType, got %v", err)
	}

	// Range only exists for numeric nodes, entries only for enums.
	if _, _, err := m.Range("PixelFormat"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("range on enum: expected ErrUnsupportedType, got %v", err)
	}
	if _, err := m.EnumEntries("Width"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("entries on int: expected ErrUnsupportedType, got %v", err)
	}
	if err := m.Execute("Width"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("execute on int: expected ErrUnsupportedType, got %v", err)
	}
}

func TestEnumSetAndEntries(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	pf := spintest.NewEnumNode("PixelFormat", "Mono8", "RGB8", "BayerRG8")
	pf.EntryList[2].Unavailable = true
	device.Add(pf)

	m := newTestMap(device, tlDevice, tlStream)

	require.NoError(t, m.SetEnum("PixelFormat", "RGB8"))
	cur, err := m.GetEnum("PixelFormat")
	require.NoError(t, err)
	require.Equal(t, "RGB8", cur)

	// Unknown and unavailable entries both fail the same way.
	require.ErrorIs(t, m.SetEnum("PixelFormat", "YUV411"), ErrInvalidEnumEntry)
	require.ErrorIs(t, m.SetEnum("PixelFormat", "BayerRG8"), ErrInvalidEnumEntry)

	entries, err := m.EnumEntries("PixelFormat")
	require.NoError(t, err)
	require.Equal(t, []string{"Mono8", "RGB8"}, entries)
}

func TestExecute(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	cmd := spintest.NewCommandNode("UserSetLoad")
	device.Add(cmd)

	m := newTestMap(device, tlDevice, tlStream)

	if err := m.Execute("UserSetLoad"); err != nil {
		t.Fatal(err)
	}
	if cmd.Fired != 1 {
		t.Fatalf("expected 1 execution, got %d", cmd.Fired)
	}

	cmd.NoWrite = true
	if err := m.Execute("UserSetLoad"); !errors.Is(err, ErrNotWritable) {
		t.Fatalf("expected ErrNotWritable, got %v", err)
	}
}

func TestSetDispatchesOnNodeKind(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	device.Add(spintest.NewIntNode("Width", 640, 4, 1280))
	device.Add(spintest.NewFloatNode("Gain", 0, 0, 48))
	device.Add(spintest.NewBoolNode("AcquisitionFrameRateEnable", false))
	device.Add(spintest.NewEnumNode("PixelFormat", "Mono8", "RGB8"))

	m := newTestMap(device, tlDevice, tlStream)

	require.NoError(t, m.Set("Width", 720))
	require.NoError(t, m.Set("Gain", 12.5))
	require.NoError(t, m.Set("AcquisitionFrameRateEnable", true))
	require.NoError(t, m.Set("PixelFormat", "RGB8"))

	v, err := m.Get("Width")
	require.NoError(t, err)
	require.Equal(t, int64(720), v)

	require.Error(t, m.Set("Width", "wat"))
}

func TestRangeDispatch(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	device.Add(spintest.NewIntNode("Width", 640, 4, 1280))
	device.Add(spintest.NewFloatNode("AcquisitionFrameRate", 30, 1, 60))

	m := newTestMap(device, tlDevice, tlStream)

	lo, hi, err := m.IntRange("Width")
	require.NoError(t, err)
	require.Equal(t, int64(4), lo)
	require.Equal(t, int64(1280), hi)

	flo, fhi, err := m.Range("AcquisitionFrameRate")
	require.NoError(t, err)
	require.Equal(t, 1.0, flo)
	require.Equal(t, 60.0, fhi)

	flo, fhi, err = m.Range("Width")
	require.NoError(t, err)
	require.Equal(t, 4.0, flo)
	require.Equal(t, 1280.0, fhi)
}

func TestAvailable(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	n := spintest.NewBoolNode("AcquisitionFrameRateEnable", false)
	device.Add(n)

	m := newTestMap(device, tlDevice, tlStream)

	if !m.Available("AcquisitionFrameRateEnable") {
		t.Fatal("expected node to be available")
	}
	n.Unavailable = true
	if m.Available("AcquisitionFrameRateEnable") {
		t.Fatal("expected node to be unavailable")
	}
	if m.Available("NoSuchNode") {
		t.Fatal("expected missing node to be unavailable")
	}
}

func TestScopeMapsAreMemoizedUntilInvalidate(t *testing.T) {
	device, tlDevice, tlStream := threeScopes()
	device.Add(spintest.NewIntNode("Width", 640, 4, 1280))

	fetches := 0
	m := NewMap(
		func() (spin.NodeMap, error) { fetches++; return device, nil },
		func() (spin.NodeMap, error) { return tlDevice, nil },
		func() (spin.NodeMap, error) { return tlStream, nil },
	)

	for i := 0; i < 3; i++ {
		if _, err := m.GetInt("Width"); err != nil {
			t.Fatal(err)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected 1 device-map fetch, got %d", fetches)
	}

	m.Invalidate()
	if _, err := m.GetInt("Width"); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Fatalf("expected re-fetch after invalidate, got %d fetches", fetches)
	}
}

func TestScopeFetchErrorPropagates(t *testing.T) {
	errNotInit := errors.New("device not initialized")
	m := NewMap(
		func() (spin.NodeMap, error) { return nil, errNotInit },
		func() (spin.NodeMap, error) { return spintest.NewNodeMap(), nil },
		func() (spin.NodeMap, error) { return spintest.NewNodeMap(), nil },
	)

	_, err := m.GetInt("Width")
	require.ErrorIs(t, err, errNotInit)
}
