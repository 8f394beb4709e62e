package spin

// InterfaceType is the principal interface type the SDK reports for a node.
type InterfaceType int

const (
	InterfaceUnknown InterfaceType = iota
	InterfaceInteger
	InterfaceFloat
	InterfaceBoolean
	InterfaceEnumeration
	InterfaceCommand
	InterfaceString
)

func (t InterfaceType) String() string {
	switch t {
	case InterfaceInteger:
		return "integer"
	case InterfaceFloat:
		return "float"
	case InterfaceBoolean:
		return "boolean"
	case InterfaceEnumeration:
		return "enumeration"
	case InterfaceCommand:
		return "command"
	case InterfaceString:
		return "string"
	default:
		return "unknown"
	}
}

// NodeMap is one of the camera's hierarchical parameter namespaces.
type NodeMap interface {
	// Node looks a node up by name. The second return is false if the map
	// has no node of that name.
	Node(name string) (Node, bool)
}

// Node is a named parameter endpoint. Availability and access mode are
// dynamic: the device may flip them while interdependent settings conflict,
// so callers must check them on every access, not once.
type Node interface {
	Name() string
	InterfaceType() InterfaceType
	Available() bool
	Readable() bool
	Writable() bool
}

// IntegerNode is a bounded integer node.
type IntegerNode interface {
	Node
	Value() (int64, error)
	SetValue(int64) error
	Min() int64
	Max() int64
}

// FloatNode is a bounded float node.
type FloatNode interface {
	Node
	Value() (float64, error)
	SetValue(float64) error
	Min() float64
	Max() float64
}

// BooleanNode is a boolean node.
type BooleanNode interface {
	Node
	Value() (bool, error)
	SetValue(bool) error
}

// EnumEntry is one selectable entry of an enumeration node.
type EnumEntry interface {
	Symbolic() string
	IntValue() int64
	Available() bool
	Readable() bool
}

// EnumerationNode is a node with a set of named entries, one selected.
type EnumerationNode interface {
	Node
	Current() (EnumEntry, error)
	Entries() []EnumEntry
	EntryByName(symbolic string) (EnumEntry, bool)
	SetIntValue(int64) error
}

// CommandNode is a fire-and-forget action node.
type CommandNode interface {
	Node
	Execute() error
}
