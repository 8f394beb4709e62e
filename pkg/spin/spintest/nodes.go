package spintest

import (
	"errors"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
)

// NodeMap is an ordered, mutable node namespace.
type NodeMap struct {
	names []string
	nodes map[string]spin.Node
}

// NewNodeMap builds an empty node map.
func NewNodeMap() *NodeMap {
	return &NodeMap{nodes: make(map[string]spin.Node)}
}

// Add registers a node under its name, replacing any previous one.
func (m *NodeMap) Add(n spin.Node) {
	if _, ok := m.nodes[n.Name()]; !ok {
		m.names = append(m.names, n.Name())
	}
	m.nodes[n.Name()] = n
}

// Remove drops a node.
func (m *NodeMap) Remove(name string) {
	delete(m.nodes, name)
}

// Node implements spin.NodeMap.
func (m *NodeMap) Node(name string) (spin.Node, bool) {
	n, ok := m.nodes[name]
	return n, ok
}

// Base carries the access state every node kind shares. The zero value is
// unavailable; use the constructors below for sane defaults.
type Base struct {
	NodeName    string
	Iface       spin.InterfaceType
	Unavailable bool
	NoRead      bool
	NoWrite     bool
}

func (b *Base) Name() string                      { return b.NodeName }
func (b *Base) InterfaceType() spin.InterfaceType { return b.Iface }
func (b *Base) Available() bool                   { return !b.Unavailable }
func (b *Base) Readable() bool                    { return !b.NoRead }
func (b *Base) Writable() bool                    { return !b.NoWrite }

// IntNode is an integer node with bounds.
type IntNode struct {
	Base
	Val      int64
	MinV     int64
	MaxV     int64
	Writes   []int64
	OnChange func(int64)
}

// NewIntNode builds a readable, writable integer node.
func NewIntNode(name string, val, min, max int64) *IntNode {
	return &IntNode{
		Base: Base{NodeName: name, Iface: spin.InterfaceInteger},
		Val:  val, MinV: min, MaxV: max,
	}
}

func (n *IntNode) Value() (int64, error) { return n.Val, nil }

func (n *IntNode) SetValue(v int64) error {
	n.Val = v
	n.Writes = append(n.Writes, v)
	if n.OnChange != nil {
		n.OnChange(v)
	}
	return nil
}

func (n *IntNode) Min() int64 { return n.MinV }
func (n *IntNode) Max() int64 { return n.MaxV }

// FloatNode is a float node with bounds.
type FloatNode struct {
	Base
	Val    float64
	MinV   float64
	MaxV   float64
	Writes []float64
}

// NewFloatNode builds a readable, writable float node.
func NewFloatNode(name string, val, min, max float64) *FloatNode {
	return &FloatNode{
		Base: Base{NodeName: name, Iface: spin.InterfaceFloat},
		Val:  val, MinV: min, MaxV: max,
	}
}

func (n *FloatNode) Value() (float64, error) { return n.Val, nil }

func (n *FloatNode) SetValue(v float64) error {
	n.Val = v
	n.Writes = append(n.Writes, v)
	return nil
}

func (n *FloatNode) Min() float64 { return n.MinV }
func (n *FloatNode) Max() float64 { return n.MaxV }

// BoolNode is a boolean node.
type BoolNode struct {
	Base
	Val bool
}

// NewBoolNode builds a readable, writable boolean node.
func NewBoolNode(name string, val bool) *BoolNode {
	return &BoolNode{Base: Base{NodeName: name, Iface: spin.InterfaceBoolean}, Val: val}
}

func (n *BoolNode) Value() (bool, error)  { return n.Val, nil }
func (n *BoolNode) SetValue(v bool) error { n.Val = v; return nil }

// Entry is one enumeration entry.
type Entry struct {
	Name        string
	Value       int64
	Unavailable bool
}

func (e *Entry) Symbolic() string { return e.Name }
func (e *Entry) IntValue() int64  { return e.Value }
func (e *Entry) Available() bool  { return !e.Unavailable }
func (e *Entry) Readable() bool   { return !e.Unavailable }

// EnumNode is an enumeration node with named entries.
type EnumNode struct {
	Base
	EntryList []*Entry
	Cur       int64
	// OnSelect runs after a successful selection with the new entry's
	// symbolic name. Devices use it to model format-dependent ranges.
	OnSelect func(symbolic string)
}

// NewEnumNode builds an enumeration node. The first entry is selected.
func NewEnumNode(name string, entries ...string) *EnumNode {
	n := &EnumNode{Base: Base{NodeName: name, Iface: spin.InterfaceEnumeration}}
	for i, e := range entries {
		n.EntryList = append(n.EntryList, &Entry{Name: e, Value: int64(i)})
	}
	if len(n.EntryList) > 0 {
		n.Cur = n.EntryList[0].Value
	}
	return n
}

func (n *EnumNode) Current() (spin.EnumEntry, error) {
	for _, e := range n.EntryList {
		if e.Value == n.Cur {
			return e, nil
		}
	}
	return nil, errors.New("spintest: no entry selected")
}

func (n *EnumNode) Entries() []spin.EnumEntry {
	out := make([]spin.EnumEntry, len(n.EntryList))
	for i, e := range n.EntryList {
		out[i] = e
	}
	return out
}

func (n *EnumNode) EntryByName(symbolic string) (spin.EnumEntry, bool) {
	for _, e := range n.EntryList {
		if e.Name == symbolic {
			return e, true
		}
	}
	return nil, false
}

func (n *EnumNode) SetIntValue(v int64) error {
	for _, e := range n.EntryList {
		if e.Value == v {
			n.Cur = v
			if n.OnSelect != nil {
				n.OnSelect(e.Name)
			}
			return nil
		}
	}
	return errors.New("spintest: no entry with that value")
}

// Selected returns the symbolic name of the selected entry, for
// assertions.
func (n *EnumNode) Selected() string {
	for _, e := range n.EntryList {
		if e.Value == n.Cur {
			return e.Name
		}
	}
	return ""
}

// CommandNode is a fire-and-forget action node.
type CommandNode struct {
	Base
	Fired int
	Err   error
}

// NewCommandNode builds an executable command node.
func NewCommandNode(name string) *CommandNode {
	return &CommandNode{Base: Base{NodeName: name, Iface: spin.InterfaceCommand}}
}

func (n *CommandNode) Execute() error {
	if n.Err != nil {
		return n.Err
	}
	n.Fired++
	return nil
}

// StringNode exists so tests can exercise the unsupported string kind.
type StringNode struct {
	Base
	Val string
}

// NewStringNode builds a string node.
func NewStringNode(name, val string) *StringNode {
	return &StringNode{Base: Base{NodeName: name, Iface: spin.InterfaceString}, Val: val}
}

// OpaqueNode reports an interface type outside the closed set.
type OpaqueNode struct {
	Base
}

// NewOpaqueNode builds a node of unknown kind.
func NewOpaqueNode(name string) *OpaqueNode {
	return &OpaqueNode{Base: Base{NodeName: name, Iface: spin.InterfaceUnknown}}
}

// DefaultNodeMaps builds the three scope maps of a typical color camera:
// device-scope acquisition and image-control nodes, a transport-layer
// device scope with the serial, and a transport-layer stream scope with
// the buffer-handling nodes.
func DefaultNodeMaps(serial string) (device, tlDevice, tlStream *NodeMap) {
	device = NewNodeMap()
	tlDevice = NewNodeMap()
	tlStream = NewNodeMap()

	pf := NewEnumNode("PixelFormat", "Mono8", "RGB8", "BayerRG8", "Mono12Packed")
	width := NewIntNode("Width", 1280, 4, 1280)
	height := NewIntNode("Height", 1024, 4, 1024)
	// Bayer readout keeps the full sensor; mono and RGB conversion halve
	// the maximum rate on this model.
	rate := NewFloatNode("AcquisitionFrameRate", 30, 1, 60)
	pf.OnSelect = func(symbolic string) {
		if symbolic == "BayerRG8" {
			rate.MaxV = 120
		} else {
			rate.MaxV = 60
		}
	}

	device.Add(pf)
	device.Add(width)
	device.Add(height)
	device.Add(NewIntNode("OffsetX", 0, 0, 1276))
	device.Add(NewIntNode("OffsetY", 0, 0, 1020))
	device.Add(rate)
	device.Add(NewEnumNode("AcquisitionMode", "Continuous", "SingleFrame", "MultiFrame"))
	device.Add(NewBoolNode("AcquisitionFrameRateEnable", false))
	device.Add(NewEnumNode("ExposureAuto", "Continuous", "Off", "Once"))
	device.Add(NewFloatNode("ExposureTime", 10000, 8, 30000000))
	device.Add(NewEnumNode("GainAuto", "Continuous", "Off", "Once"))
	device.Add(NewFloatNode("Gain", 0, 0, 47.99))
	device.Add(NewEnumNode("BalanceWhiteAuto", "Continuous", "Off", "Once"))
	device.Add(NewEnumNode("BalanceRatioSelector", "Red", "Blue", "Green"))
	device.Add(NewFloatNode("BalanceRatio", 1.0, 0.25, 4.0))
	device.Add(NewIntNode("BinningHorizontal", 1, 1, 4))
	device.Add(NewIntNode("BinningVertical", 1, 1, 4))
	device.Add(NewEnumNode("UserSetSelector", "Default", "UserSet0", "UserSet1"))
	device.Add(NewCommandNode("UserSetLoad"))

	tlDevice.Add(NewStringNode("DeviceSerialNumber", serial))

	tlStream.Add(NewEnumNode("StreamBufferHandlingMode", "OldestFirst", "NewestOnly", "OldestFirstOverwrite"))
	tlStream.Add(NewEnumNode("StreamBufferCountMode", "Auto", "Manual"))
	tlStream.Add(NewIntNode("StreamBufferCountManual", 10, 1, 256))

	return device, tlDevice, tlStream
}
