package record

import (
	"sort"
	"strconv"
	"strings"
)

// Node is an element of the working pool: a Message or a *ConstituentSet.
// Nodes are also values, so a pattern may constrain nested records and the
// children of relation nodes with the same machinery it uses for attributes.
type Node interface {
	Value

	// Tag is the message type or the relation type.
	Tag() string

	// Attr returns the named attribute. Relation nodes expose their
	// children as "nucleus" and "satellite".
	Attr(name string) (Value, bool)

	isNode()
}

// Attribute names under which a ConstituentSet exposes its children.
const (
	AttrNucleus   = "nucleus"
	AttrSatellite = "satellite"
)

// --- Message ---

// Message is an atomic typed record describing one fact about an item.
type Message struct {
	typ   string
	attrs map[string]Value
	names []string
	key   string
}

var _ Node = Message{}

// NewMessage builds a message. The attribute map is copied; nil values are
// dropped.
func NewMessage(typ string, attrs map[string]Value) Message {
	m := Message{typ: typ, attrs: make(map[string]Value, len(attrs))}
	for name, v := range attrs {
		if v == nil {
			continue
		}
		m.attrs[name] = v
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	m.key = m.encode()
	return m
}

func (m Message) Kind() Kind   { return KindMessage }
func (m Message) Type() string { return m.typ }
func (m Message) Tag() string  { return m.typ }
func (m Message) Size() int    { return len(m.names) }
func (m Message) isNode()      {}

func (m Message) Attr(name string) (Value, bool) {
	v, ok := m.attrs[name]
	return v, ok
}

// Names returns the attribute names in sorted order.
func (m Message) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m Message) Key() string {
	if m.key == "" {
		return m.encode()
	}
	return m.key
}

func (m Message) encode() string {
	var sb strings.Builder
	sb.WriteString(strconv.Quote(m.typ))
	sb.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(name))
		sb.WriteByte('=')
		sb.WriteString(m.attrs[name].Key())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (m Message) String() string {
	if len(m.names) == 0 {
		return m.typ
	}
	parts := make([]string, len(m.names))
	for i, name := range m.names {
		parts[i] = name + "=" + valueString(m.attrs[name])
	}
	return m.typ + " {" + strings.Join(parts, ", ") + "}"
}

// --- ConstituentSet ---

// ConstituentSet joins a nucleus and a satellite under a discourse relation.
// The roles are asymmetric: swapping them yields a different node.
type ConstituentSet struct {
	relation  string
	nucleus   Node
	satellite Node
	key       string
}

var _ Node = (*ConstituentSet)(nil)

// NewConstituentSet builds a relation node over two existing nodes.
func NewConstituentSet(relation string, nucleus, satellite Node) *ConstituentSet {
	return &ConstituentSet{
		relation:  relation,
		nucleus:   nucleus,
		satellite: satellite,
		key:       "<" + strconv.Quote(relation) + ":" + nucleus.Key() + "|" + satellite.Key() + ">",
	}
}

func (c *ConstituentSet) Kind() Kind       { return KindRelation }
func (c *ConstituentSet) Key() string      { return c.key }
func (c *ConstituentSet) Size() int        { return 2 }
func (c *ConstituentSet) Tag() string      { return c.relation }
func (c *ConstituentSet) Relation() string { return c.relation }
func (c *ConstituentSet) Nucleus() Node    { return c.nucleus }
func (c *ConstituentSet) Satellite() Node  { return c.satellite }
func (c *ConstituentSet) isNode()          {}

func (c *ConstituentSet) Attr(name string) (Value, bool) {
	switch name {
	case AttrNucleus:
		return c.nucleus, true
	case AttrSatellite:
		return c.satellite, true
	default:
		return nil, false
	}
}

func (c *ConstituentSet) String() string {
	return c.relation + "(" + valueString(c.nucleus) + "; " + valueString(c.satellite) + ")"
}

// --- Traversal ---

// Role names the position of a node below its parent.
type Role string

const (
	RoleRoot      Role = "root"
	RoleNucleus   Role = "nucleus"
	RoleSatellite Role = "satellite"
)

// Walk visits root and its descendants depth-first, nucleus before
// satellite, reporting each node's depth and role.
func Walk(root Node, visit func(n Node, depth int, role Role)) {
	var walk func(n Node, depth int, role Role)
	walk = func(n Node, depth int, role Role) {
		visit(n, depth, role)
		if cs, ok := n.(*ConstituentSet); ok {
			walk(cs.nucleus, depth+1, RoleNucleus)
			walk(cs.satellite, depth+1, RoleSatellite)
		}
	}
	walk(root, 0, RoleRoot)
}

// Leaves returns the messages of a tree in nucleus-first order.
func Leaves(root Node) []Message {
	var out []Message
	Walk(root, func(n Node, _ int, _ Role) {
		if m, ok := n.(Message); ok {
			out = append(out, m)
		}
	})
	return out
}

// Count returns the number of messages and relation nodes in a tree.
func Count(root Node) (messages, relations int) {
	Walk(root, func(n Node, _ int, _ Role) {
		if n.Kind() == KindRelation {
			relations++
		} else {
			messages++
		}
	})
	return messages, relations
}

func valueString(v Value) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return v.Key()
}
