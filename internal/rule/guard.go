package rule

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/docplan/internal/record"
)

// Bindings maps declared binding names to the nodes chosen for one
// combination. Only the chosen nucleus and satellite are bound.
type Bindings map[string]record.Node

// Guard is a predicate over one combination's bindings. Guards form a closed
// expression tree; there is no textual expression language.
//
// A leaf guard that names a binding absent from the combination is false.
type Guard interface {
	Holds(b Bindings) bool

	// References lists the binding names the guard reads.
	References() []string

	// Validate reports construction defects such as unknown operators.
	Validate() error

	String() string
}

// Bound holds when name is bound in the combination.
func Bound(name string) Guard { return bound{name: name} }

// Has holds when name is bound to a node carrying attr.
func Has(name, attr string) Guard { return has{name: name, attr: attr} }

// Lacks holds when name is bound to a node without attr.
func Lacks(name, attr string) Guard { return lacks{name: name, attr: attr} }

// AttrEquals holds when name's attr is structurally equal to v.
func AttrEquals(name, attr string, v record.Value) Guard {
	return attrEquals{name: name, attr: attr, v: v}
}

// Compare holds when left op right holds and both operands resolve.
func Compare(left Operand, op Op, right Operand) Guard {
	return compare{left: left, op: op, right: right}
}

// All holds when every guard holds. An empty All holds.
func All(gs ...Guard) Guard { return all{gs: gs} }

// Any holds when at least one guard holds. Useful for alternatives over
// bindings, since only one nucleus and one satellite binding are ever set.
func Any(gs ...Guard) Guard { return anyOf{gs: gs} }

// Not negates g. It is false when any binding g references is absent, so a
// missing binding never turns into a pass.
func Not(g Guard) Guard { return not{g: g} }

// Func wraps a native predicate. refs declares the bindings fn reads; the
// guard is false unless all of them are bound.
func Func(name string, refs []string, fn func(Bindings) bool) Guard {
	return funcGuard{name: name, refs: refs, fn: fn}
}

type bound struct{ name string }

func (g bound) Holds(b Bindings) bool {
	_, ok := b[g.name]
	return ok
}
func (g bound) References() []string { return []string{g.name} }
func (g bound) Validate() error      { return requireName(g.name) }
func (g bound) String() string       { return "bound(" + g.name + ")" }

type has struct{ name, attr string }

func (g has) Holds(b Bindings) bool {
	n, ok := b[g.name]
	if !ok {
		return false
	}
	_, ok = n.Attr(g.attr)
	return ok
}
func (g has) References() []string { return []string{g.name} }
func (g has) Validate() error      { return requireNameAttr(g.name, g.attr) }
func (g has) String() string       { return "has(" + g.name + "." + g.attr + ")" }

type lacks struct{ name, attr string }

func (g lacks) Holds(b Bindings) bool {
	n, ok := b[g.name]
	if !ok {
		return false
	}
	_, ok = n.Attr(g.attr)
	return !ok
}
func (g lacks) References() []string { return []string{g.name} }
func (g lacks) Validate() error      { return requireNameAttr(g.name, g.attr) }
func (g lacks) String() string       { return "lacks(" + g.name + "." + g.attr + ")" }

type attrEquals struct {
	name, attr string
	v          record.Value
}

func (g attrEquals) Holds(b Bindings) bool {
	n, ok := b[g.name]
	if !ok {
		return false
	}
	v, ok := n.Attr(g.attr)
	return ok && record.Equal(v, g.v)
}
func (g attrEquals) References() []string { return []string{g.name} }

func (g attrEquals) Validate() error {
	if g.v == nil {
		return fmt.Errorf("%s: missing value", g)
	}
	return requireNameAttr(g.name, g.attr)
}

func (g attrEquals) String() string {
	v := "<nil>"
	if g.v != nil {
		v = g.v.Key()
	}
	return g.name + "." + g.attr + " == " + v
}

type compare struct {
	left, right Operand
	op          Op
}

func (g compare) Holds(b Bindings) bool {
	l, ok := g.left.Resolve(b)
	if !ok {
		return false
	}
	r, ok := g.right.Resolve(b)
	if !ok {
		return false
	}
	return g.op.apply(l, r)
}

func (g compare) References() []string {
	var out []string
	if g.left != nil {
		out = append(out, g.left.References()...)
	}
	if g.right != nil {
		out = append(out, g.right.References()...)
	}
	return out
}

func (g compare) Validate() error {
	if g.left == nil || g.right == nil {
		return fmt.Errorf("comparison needs two operands")
	}
	if err := g.op.Validate(); err != nil {
		return err
	}
	if err := g.left.Validate(); err != nil {
		return err
	}
	return g.right.Validate()
}

func (g compare) String() string {
	if g.left == nil || g.right == nil {
		return "compare(<incomplete>)"
	}
	return g.left.String() + " " + string(g.op) + " " + g.right.String()
}

type all struct{ gs []Guard }

func (g all) Holds(b Bindings) bool {
	for _, c := range g.gs {
		if !c.Holds(b) {
			return false
		}
	}
	return true
}
func (g all) References() []string { return collectRefs(g.gs) }
func (g all) Validate() error      { return validateAll(g.gs) }
func (g all) String() string       { return "all(" + joinGuards(g.gs) + ")" }

type anyOf struct{ gs []Guard }

func (g anyOf) Holds(b Bindings) bool {
	for _, c := range g.gs {
		if c.Holds(b) {
			return true
		}
	}
	return false
}
func (g anyOf) References() []string { return collectRefs(g.gs) }

func (g anyOf) Validate() error {
	if len(g.gs) == 0 {
		return fmt.Errorf("any() needs at least one guard")
	}
	return validateAll(g.gs)
}
func (g anyOf) String() string { return "any(" + joinGuards(g.gs) + ")" }

type not struct{ g Guard }

func (g not) Holds(b Bindings) bool {
	for _, name := range g.g.References() {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return !g.g.Holds(b)
}
func (g not) References() []string {
	if g.g == nil {
		return nil
	}
	return g.g.References()
}

func (g not) Validate() error {
	if g.g == nil {
		return fmt.Errorf("not() needs a guard")
	}
	return g.g.Validate()
}

func (g not) String() string {
	if g.g == nil {
		return "not(<nil>)"
	}
	return "not(" + g.g.String() + ")"
}

type funcGuard struct {
	name string
	refs []string
	fn   func(Bindings) bool
}

func (g funcGuard) Holds(b Bindings) bool {
	for _, name := range g.refs {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return g.fn(b)
}

func (g funcGuard) References() []string {
	out := make([]string, len(g.refs))
	copy(out, g.refs)
	return out
}

func (g funcGuard) Validate() error {
	if g.fn == nil {
		return fmt.Errorf("func guard %q has no function", g.name)
	}
	if len(g.refs) == 0 {
		return fmt.Errorf("func guard %q declares no bindings", g.name)
	}
	return nil
}

func (g funcGuard) String() string { return g.name + "(" + strings.Join(g.refs, ", ") + ")" }

func requireName(name string) error {
	if name == "" {
		return fmt.Errorf("guard references an empty binding name")
	}
	return nil
}

func requireNameAttr(name, attr string) error {
	if err := requireName(name); err != nil {
		return err
	}
	if attr == "" {
		return fmt.Errorf("guard on %q names no attribute", name)
	}
	return nil
}

func collectRefs(gs []Guard) []string {
	var out []string
	for _, g := range gs {
		if g != nil {
			out = append(out, g.References()...)
		}
	}
	return out
}

func validateAll(gs []Guard) error {
	for _, g := range gs {
		if g == nil {
			return fmt.Errorf("nil guard")
		}
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func joinGuards(gs []Guard) string {
	parts := make([]string, 0, len(gs))
	for _, g := range gs {
		if g == nil {
			parts = append(parts, "<nil>")
			continue
		}
		parts = append(parts, g.String())
	}
	return strings.Join(parts, ", ")
}
