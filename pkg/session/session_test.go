package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin/spintest"
)

func TestOpenBySerial(t *testing.T) {
	first := spintest.NewDevice("A001")
	second := spintest.NewDevice("B002")
	sys := spintest.NewSystem(first, second)

	s := New(sys)
	defer s.Close()

	if err := s.Open("B002", -1); err != nil {
		t.Fatal(err)
	}
	if got := s.Serial(); got != "B002" {
		t.Fatalf("expected B002 bound, got %q", got)
	}
}

func TestOpenByIndex(t *testing.T) {
	sys := spintest.NewSystem(spintest.NewDevice("A001"), spintest.NewDevice("B002"))

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("", 1))
	require.Equal(t, "B002", s.Serial())
}

func TestOpenPrefersSerialOverIndex(t *testing.T) {
	sys := spintest.NewSystem(spintest.NewDevice("A001"), spintest.NewDevice("B002"))

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("B002", 0))
	require.Equal(t, "B002", s.Serial())
}

func TestOpenSkipsInvalidSerialCandidate(t *testing.T) {
	broken := spintest.NewDevice("A001")
	broken.Invalidate()
	sys := spintest.NewSystem(broken, spintest.NewDevice("B002"))

	s := New(sys)
	defer s.Close()

	// Serial candidate is invalid; the index candidate still resolves.
	require.NoError(t, s.Open("A001", 1))
	require.Equal(t, "B002", s.Serial())
}

func TestOpenNoDevice(t *testing.T) {
	sys := spintest.NewSystem()

	s := New(sys)
	defer s.Close()

	err := s.Open("nope", 3)
	require.ErrorIs(t, err, ErrNoDeviceAvailable)
	// The failed open must not hold an SDK handle.
	require.Equal(t, 0, sys.Refs())
}

func TestOpenOutOfRangeIndexIsNoCandidate(t *testing.T) {
	sys := spintest.NewSystem(spintest.NewDevice("A001"))

	s := New(sys)
	defer s.Close()

	require.ErrorIs(t, s.Open("", 5), ErrNoDeviceAvailable)
}

func TestOpenStopsLeftoverAcquisition(t *testing.T) {
	d := spintest.NewDevice("A001")
	require.NoError(t, d.Init())
	require.NoError(t, d.BeginAcquisition())
	sys := spintest.NewSystem(d)

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("", 0))
	require.False(t, d.Streaming(), "leftover acquisition must be stopped on open")
}

func TestReopenTearsDownFirstHandle(t *testing.T) {
	first := spintest.NewDevice("A001")
	second := spintest.NewDevice("B002")
	sys := spintest.NewSystem(first, second)

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("A001", -1))
	require.NoError(t, s.BeginAcquisition())
	require.True(t, first.Streaming())

	require.NoError(t, s.Open("B002", -1))

	if first.Streaming() {
		t.Fatal("first device still streaming after reopen")
	}
	if first.DeInitCalls() != 1 {
		t.Fatalf("expected first device deinitialized once, got %d", first.DeInitCalls())
	}
	require.Equal(t, "B002", s.Serial())
	// One handle held per open session, never two.
	require.Equal(t, 1, sys.Refs())
	require.Equal(t, 2, sys.Acquires())
}

func TestBeginAcquisitionSetsContinuousMode(t *testing.T) {
	d := spintest.NewDevice("A001")
	sys := spintest.NewSystem(d)

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("", 0))
	require.NoError(t, s.BeginAcquisition())

	dev, _, _ := d.Maps()
	n, _ := dev.Node("AcquisitionMode")
	require.Equal(t, "Continuous", n.(*spintest.EnumNode).Selected())
	require.True(t, s.Streaming())
}

func TestBeginAcquisitionFailure(t *testing.T) {
	d := spintest.NewDevice("A001")
	d.BeginErr = errors.New("device busy")
	sys := spintest.NewSystem(d)

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("", 0))
	require.ErrorIs(t, s.BeginAcquisition(), ErrAcquisitionStart)
}

func TestEndAcquisitionPropagatesFailure(t *testing.T) {
	d := spintest.NewDevice("A001")
	sys := spintest.NewSystem(d)

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("", 0))
	// Not streaming yet, so the SDK rejects the stop.
	require.ErrorIs(t, s.EndAcquisition(), ErrAcquisitionStop)

	require.NoError(t, s.BeginAcquisition())
	require.NoError(t, s.EndAcquisition())
	require.False(t, s.Streaming())
}

func TestCloseReleasesEverything(t *testing.T) {
	d := spintest.NewDevice("A001")
	sys := spintest.NewSystem(d)

	s := New(sys)
	require.NoError(t, s.Open("", 0))
	require.NoError(t, s.BeginAcquisition())

	require.NoError(t, s.Close())

	require.False(t, d.Streaming())
	require.False(t, d.Initialized())
	require.Equal(t, 0, sys.Refs())

	// Closing again is a no-op.
	require.NoError(t, s.Close())
	require.Equal(t, 0, sys.Refs())
}

func TestCloseContinuesPastStopFailure(t *testing.T) {
	d := spintest.NewDevice("A001")
	d.EndErr = errors.New("stop rejected")
	sys := spintest.NewSystem(d)

	s := New(sys)
	require.NoError(t, s.Open("", 0))
	require.NoError(t, s.BeginAcquisition())

	require.NoError(t, s.Close())

	// The stop failed, but the device was still deinitialized and the
	// SDK handle released.
	require.False(t, d.Initialized())
	require.Equal(t, 0, sys.Refs())
}

func TestNodesRequireOpenDevice(t *testing.T) {
	s := New(spintest.NewSystem())
	defer s.Close()

	_, err := s.Nodes().GetInt("Width")
	require.ErrorIs(t, err, ErrNoDevice)
}

func TestNodeCachesInvalidatedAcrossReopen(t *testing.T) {
	first := spintest.NewDevice("A001")
	second := spintest.NewDevice("B002")
	firstDev, _, _ := first.Maps()
	secondDev, _, _ := second.Maps()
	firstDev.Add(spintest.NewIntNode("Width", 100, 0, 200))
	secondDev.Add(spintest.NewIntNode("Width", 999, 0, 2000))
	sys := spintest.NewSystem(first, second)

	s := New(sys)
	defer s.Close()

	require.NoError(t, s.Open("A001", -1))
	v, err := s.Nodes().GetInt("Width")
	require.NoError(t, err)
	require.Equal(t, int64(100), v)

	require.NoError(t, s.Open("B002", -1))
	v, err = s.Nodes().GetInt("Width")
	require.NoError(t, err)
	require.Equal(t, int64(999), v)
}
