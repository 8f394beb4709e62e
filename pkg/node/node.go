// Package node gives typed access to the camera's named parameter nodes.
//
// A camera exposes three overlapping namespaces: the device scope, the
// transport-layer device scope and the transport-layer stream scope. Map
// hides them behind one lookup with a fixed priority order; the order is
// part of the contract, not an implementation detail.
package node

import (
	"errors"
	"fmt"

	"github.com/fomorians-infra/gstreamer-pyspin-src/pkg/spin"
)

var (
	// ErrNotFound means no scope has a node of the requested name.
	ErrNotFound = errors.New("node: not found")
	// ErrUnsupportedType means the node exists but its kind does not
	// support the requested operation.
	ErrUnsupportedType = errors.New("node: unsupported node type")
	// ErrNotReadable means the node is currently unavailable or not
	// readable. Distinct from ErrNotFound: the device can flip
	// availability dynamically.
	ErrNotReadable = errors.New("node: not readable")
	// ErrNotWritable means the node is currently unavailable or not
	// writable.
	ErrNotWritable = errors.New("node: not writable")
	// ErrInvalidEnumEntry means the symbolic name does not resolve to an
	// available entry of the enumeration.
	ErrInvalidEnumEntry = errors.New("node: invalid enumeration entry")
)

// Kind is the closed set of node kinds the accessor understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindEnumeration
	KindCommand
	KindString
)

// KindOf classifies a node by its reported principal interface type.
// Anything the SDK reports outside the closed set lands on KindUnknown,
// which every operation rejects loudly.
func KindOf(n spin.Node) Kind {
	switch n.InterfaceType() {
	case spin.InterfaceInteger:
		return KindInteger
	case spin.InterfaceFloat:
		return KindFloat
	case spin.InterfaceBoolean:
		return KindBoolean
	case spin.InterfaceEnumeration:
		return KindEnumeration
	case spin.InterfaceCommand:
		return KindCommand
	case spin.InterfaceString:
		return KindString
	default:
		return KindUnknown
	}
}

// Source fetches one scope's node map. Fetches may fail, e.g. the device
// scope requires an initialized device.
type Source func() (spin.NodeMap, error)

// Map resolves node names across the three scopes in priority order:
// device, then transport-layer device, then transport-layer stream.
// First match wins. Scope maps are fetched lazily and memoized until
// Invalidate.
//
// Map is not safe for concurrent use; the owning session serializes
// access.
type Map struct {
	sources [3]Source
	cached  [3]spin.NodeMap
}

// NewMap builds a map over the three scope sources in priority order.
func NewMap(device, tlDevice, tlStream Source) *Map {
	return &Map{sources: [3]Source{device, tlDevice, tlStream}}
}

// Invalidate drops the memoized scope maps. The session calls it on every
// close; the next access re-fetches from the (next) device.
func (m *Map) Invalidate() {
	m.cached = [3]spin.NodeMap{}
}

func (m *Map) scope(i int) (spin.NodeMap, error) {
	if m.cached[i] == nil {
		nm, err := m.sources[i]()
		if err != nil {
			return nil, err
		}
		m.cached[i] = nm
	}
	return m.cached[i], nil
}

func (m *Map) lookup(name string) (spin.Node, error) {
	for i := range m.sources {
		nm, err := m.scope(i)
		if err != nil {
			return nil, err
		}
		if n, ok := nm.Node(name); ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
}

// Available reports whether the name resolves to a currently available
// node in any scope.
func (m *Map) Available(name string) bool {
	n, err := m.lookup(name)
	return err == nil && n.Available()
}

func readable(n spin.Node) error {
	if !n.Available() || !n.Readable() {
		return fmt.Errorf("%q: %w", n.Name(), ErrNotReadable)
	}
	return nil
}

func writable(n spin.Node) error {
	if !n.Available() || !n.Writable() {
		return fmt.Errorf("%q: %w", n.Name(), ErrNotWritable)
	}
	return nil
}

// GetInt reads an integer node.
func (m *Map) GetInt(name string) (int64, error) {
	n, err := m.lookup(name)
	if err != nil {
		return 0, err
	}
	in, ok := n.(spin.IntegerNode)
	if !ok || KindOf(n) != KindInteger {
		return 0, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := readable(n); err != nil {
		return 0, err
	}
	return in.Value()
}

// GetFloat reads a float node.
func (m *Map) GetFloat(name string) (float64, error) {
	n, err := m.lookup(name)
	if err != nil {
		return 0, err
	}
	fn, ok := n.(spin.FloatNode)
	if !ok || KindOf(n) != KindFloat {
		return 0, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := readable(n); err != nil {
		return 0, err
	}
	return fn.Value()
}

// GetBool reads a boolean node.
func (m *Map) GetBool(name string) (bool, error) {
	n, err := m.lookup(name)
	if err != nil {
		return false, err
	}
	bn, ok := n.(spin.BooleanNode)
	if !ok || KindOf(n) != KindBoolean {
		return false, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := readable(n); err != nil {
		return false, err
	}
	return bn.Value()
}

// GetEnum reads the currently selected entry of an enumeration node and
// returns its symbolic name.
func (m *Map) GetEnum(name string) (string, error) {
	n, err := m.lookup(name)
	if err != nil {
		return "", err
	}
	en, ok := n.(spin.EnumerationNode)
	if !ok || KindOf(n) != KindEnumeration {
		return "", fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := readable(n); err != nil {
		return "", err
	}
	cur, err := en.Current()
	if err != nil {
		return "", err
	}
	return cur.Symbolic(), nil
}

// Get reads a node of any readable kind. String and command nodes have no
// getter and fail with ErrUnsupportedType.
func (m *Map) Get(name string) (interface{}, error) {
	n, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	switch KindOf(n) {
	case KindInteger:
		return m.GetInt(name)
	case KindFloat:
		return m.GetFloat(name)
	case KindBoolean:
		return m.GetBool(name)
	case KindEnumeration:
		return m.GetEnum(name)
	default:
		return nil, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
}

// SetInt writes an integer node. The value is silently clamped into the
// node's [min, max]; out-of-range requests are not an error. This is
// specified behavior, not an accident.
func (m *Map) SetInt(name string, value int64) error {
	n, err := m.lookup(name)
	if err != nil {
		return err
	}
	in, ok := n.(spin.IntegerNode)
	if !ok || KindOf(n) != KindInteger {
		return fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := writable(n); err != nil {
		return err
	}
	if min := in.Min(); value < min {
		value = min
	}
	if max := in.Max(); value > max {
		value = max
	}
	return in.SetValue(value)
}

// SetFloat writes a float node, clamping like SetInt.
func (m *Map) SetFloat(name string, value float64) error {
	n, err := m.lookup(name)
	if err != nil {
		return err
	}
	fn, ok := n.(spin.FloatNode)
	if !ok || KindOf(n) != KindFloat {
		return fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := writable(n); err != nil {
		return err
	}
	if min := fn.Min(); value < min {
		value = min
	}
	if max := fn.Max(); value > max {
		value = max
	}
	return fn.SetValue(value)
}

// SetBool writes a boolean node.
func (m *Map) SetBool(name string, value bool) error {
	n, err := m.lookup(name)
	if err != nil {
		return err
	}
	bn, ok := n.(spin.BooleanNode)
	if !ok || KindOf(n) != KindBoolean {
		return fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := writable(n); err != nil {
		return err
	}
	return bn.SetValue(value)
}

// SetEnum selects an enumeration entry by symbolic name.
func (m *Map) SetEnum(name, symbolic string) error {
	n, err := m.lookup(name)
	if err != nil {
		return err
	}
	en, ok := n.(spin.EnumerationNode)
	if !ok || KindOf(n) != KindEnumeration {
		return fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := writable(n); err != nil {
		return err
	}
	entry, ok := en.EntryByName(symbolic)
	if !ok || !entry.Available() || !entry.Readable() {
		return fmt.Errorf("%q has no available entry %q: %w", name, symbolic, ErrInvalidEnumEntry)
	}
	return en.SetIntValue(entry.IntValue())
}

// Set writes a node of any writable kind, dispatching on the node's kind.
func (m *Map) Set(name string, value interface{}) error {
	n, err := m.lookup(name)
	if err != nil {
		return err
	}
	switch KindOf(n) {
	case KindInteger:
		v, ok := intValue(value)
		if !ok {
			return fmt.Errorf("node: %q wants an integer, got %T", name, value)
		}
		return m.SetInt(name, v)
	case KindFloat:
		v, ok := floatValue(value)
		if !ok {
			return fmt.Errorf("node: %q wants a float, got %T", name, value)
		}
		return m.SetFloat(name, v)
	case KindBoolean:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("node: %q wants a bool, got %T", name, value)
		}
		return m.SetBool(name, v)
	case KindEnumeration:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("node: %q wants an entry name, got %T", name, value)
		}
		return m.SetEnum(name, v)
	default:
		return fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
}

// Execute fires a command node.
func (m *Map) Execute(name string) error {
	n, err := m.lookup(name)
	if err != nil {
		return err
	}
	cn, ok := n.(spin.CommandNode)
	if !ok || KindOf(n) != KindCommand {
		return fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := writable(n); err != nil {
		return err
	}
	return cn.Execute()
}

// IntRange reads an integer node's bounds.
func (m *Map) IntRange(name string) (min, max int64, err error) {
	n, err := m.lookup(name)
	if err != nil {
		return 0, 0, err
	}
	in, ok := n.(spin.IntegerNode)
	if !ok || KindOf(n) != KindInteger {
		return 0, 0, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := readable(n); err != nil {
		return 0, 0, err
	}
	return in.Min(), in.Max(), nil
}

// FloatRange reads a float node's bounds.
func (m *Map) FloatRange(name string) (min, max float64, err error) {
	n, err := m.lookup(name)
	if err != nil {
		return 0, 0, err
	}
	fn, ok := n.(spin.FloatNode)
	if !ok || KindOf(n) != KindFloat {
		return 0, 0, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := readable(n); err != nil {
		return 0, 0, err
	}
	return fn.Min(), fn.Max(), nil
}

// Range reads the bounds of an integer or float node as floats. Other
// kinds have no range.
func (m *Map) Range(name string) (min, max float64, err error) {
	n, err := m.lookup(name)
	if err != nil {
		return 0, 0, err
	}
	switch KindOf(n) {
	case KindInteger:
		lo, hi, err := m.IntRange(name)
		return float64(lo), float64(hi), err
	case KindFloat:
		return m.FloatRange(name)
	default:
		return 0, 0, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
}

// EnumEntries lists the currently available entries of an enumeration
// node by symbolic name.
func (m *Map) EnumEntries(name string) ([]string, error) {
	n, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	en, ok := n.(spin.EnumerationNode)
	if !ok || KindOf(n) != KindEnumeration {
		return nil, fmt.Errorf("%q is %s: %w", name, n.InterfaceType(), ErrUnsupportedType)
	}
	if err := readable(n); err != nil {
		return nil, err
	}
	var out []string
	for _, e := range en.Entries() {
		if e.Available() {
			out = append(out, e.Symbolic())
		}
	}
	return out, nil
}

func intValue(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func floatValue(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
