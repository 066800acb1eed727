package rule

import (
	"fmt"
	"strconv"
)

// Operand is an integer-valued term of a comparison guard.
type Operand interface {
	// Resolve returns the operand's value, or false when a binding it
	// reads is absent.
	Resolve(b Bindings) (int, bool)
	References() []string
	Validate() error
	String() string
}

// Size is the cardinality of name's attr: the element count of a set, the
// attribute count of a nested record, one for other values, and zero when
// the attribute is absent.
func Size(name, attr string) Operand { return sizeOf{name: name, attr: attr} }

// AttrCount is the number of attributes on the node bound to name.
func AttrCount(name string) Operand { return attrCount{name: name} }

// Const is a literal integer.
func Const(n int) Operand { return constant(n) }

type sizeOf struct{ name, attr string }

func (o sizeOf) Resolve(b Bindings) (int, bool) {
	n, ok := b[o.name]
	if !ok {
		return 0, false
	}
	v, ok := n.Attr(o.attr)
	if !ok {
		return 0, true
	}
	return v.Size(), true
}
func (o sizeOf) References() []string { return []string{o.name} }
func (o sizeOf) Validate() error      { return requireNameAttr(o.name, o.attr) }
func (o sizeOf) String() string       { return "size(" + o.name + "." + o.attr + ")" }

type attrCount struct{ name string }

func (o attrCount) Resolve(b Bindings) (int, bool) {
	n, ok := b[o.name]
	if !ok {
		return 0, false
	}
	return n.Size(), true
}
func (o attrCount) References() []string { return []string{o.name} }
func (o attrCount) Validate() error      { return requireName(o.name) }
func (o attrCount) String() string       { return "count(" + o.name + ")" }

type constant int

func (o constant) Resolve(Bindings) (int, bool) { return int(o), true }
func (o constant) References() []string         { return nil }
func (o constant) Validate() error              { return nil }
func (o constant) String() string               { return strconv.Itoa(int(o)) }

// Op is a comparison operator.
type Op string

const (
	OpGE Op = ">="
	OpGT Op = ">"
	OpLE Op = "<="
	OpLT Op = "<"
	OpEQ Op = "=="
	OpNE Op = "!="
)

// ParseOp returns the operator spelled s.
func ParseOp(s string) (Op, error) {
	op := Op(s)
	if err := op.Validate(); err != nil {
		return "", err
	}
	return op, nil
}

// Validate reports unknown operators.
func (op Op) Validate() error {
	switch op {
	case OpGE, OpGT, OpLE, OpLT, OpEQ, OpNE:
		return nil
	default:
		return fmt.Errorf("unknown comparison operator %q", string(op))
	}
}

func (op Op) apply(l, r int) bool {
	switch op {
	case OpGE:
		return l >= r
	case OpGT:
		return l > r
	case OpLE:
		return l <= r
	case OpLT:
		return l < r
	case OpEQ:
		return l == r
	case OpNE:
		return l != r
	default:
		return false
	}
}
