// Package pattern implements partial-record subsumption, the planner's only
// way of selecting "nodes of this shape" from a pool.
package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/docplan/internal/record"
)

// Pattern is a partial description of a node. The zero Pattern subsumes
// every node.
type Pattern struct {
	// Kind restricts the node kind: record.KindMessage, record.KindRelation,
	// or zero for either.
	Kind record.Kind

	// Tag restricts the message type or relation type. Empty matches any.
	Tag string

	// Attrs constrains the named attributes. Attributes not listed are
	// wildcards.
	Attrs map[string]Constraint
}

// Message returns a pattern for messages of the given type.
func Message(typ string) Pattern {
	return Pattern{Kind: record.KindMessage, Tag: typ}
}

// Relation returns a pattern for constituent sets of the given relation.
func Relation(rel string) Pattern {
	return Pattern{Kind: record.KindRelation, Tag: rel}
}

// With returns a copy of p that additionally constrains attribute name.
func (p Pattern) With(name string, c Constraint) Pattern {
	out := p.Clone()
	if out.Attrs == nil {
		out.Attrs = make(map[string]Constraint, 1)
	}
	out.Attrs[name] = c
	return out
}

// Clone returns a deep copy of p.
func (p Pattern) Clone() Pattern {
	out := Pattern{Kind: p.Kind, Tag: p.Tag}
	if len(p.Attrs) > 0 {
		out.Attrs = make(map[string]Constraint, len(p.Attrs))
		for name, c := range p.Attrs {
			if n, ok := c.(nested); ok {
				c = nested{p: n.p.Clone()}
			}
			out.Attrs[name] = c
		}
	}
	return out
}

// Subsumes reports whether p subsumes candidate.
func (p Pattern) Subsumes(candidate record.Value) bool {
	return Subsumes(p, candidate)
}

// Subsumes reports whether candidate is a node that satisfies every
// constraint of p. It has no side effects.
func Subsumes(p Pattern, candidate record.Value) bool {
	node, ok := candidate.(record.Node)
	if !ok || node == nil {
		return false
	}
	if p.Kind != 0 && node.Kind() != p.Kind {
		return false
	}
	if p.Tag != "" && node.Tag() != p.Tag {
		return false
	}
	for name, c := range p.Attrs {
		v, ok := node.Attr(name)
		if !ok {
			return false
		}
		if c != nil && !c.Satisfied(v) {
			return false
		}
	}
	return true
}

// Validate reports malformed patterns.
func (p Pattern) Validate() error {
	switch p.Kind {
	case 0, record.KindMessage, record.KindRelation:
	default:
		return fmt.Errorf("pattern kind must be message or relation, got %s", p.Kind)
	}
	for _, name := range p.names() {
		if name == "" {
			return fmt.Errorf("pattern %s: empty attribute name", p)
		}
		c := p.Attrs[name]
		if c == nil {
			continue
		}
		if err := c.validate(); err != nil {
			return fmt.Errorf("pattern %s: attribute %q: %w", p, name, err)
		}
	}
	return nil
}

func (p Pattern) names() []string {
	names := make([]string, 0, len(p.Attrs))
	for name := range p.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Pattern) String() string {
	var sb strings.Builder
	switch p.Kind {
	case record.KindRelation:
		sb.WriteString("relation:")
	case record.KindMessage:
		sb.WriteString("message:")
	}
	if p.Tag == "" {
		sb.WriteString("*")
	} else {
		sb.WriteString(p.Tag)
	}
	if len(p.Attrs) > 0 {
		parts := make([]string, 0, len(p.Attrs))
		for _, name := range p.names() {
			c := p.Attrs[name]
			if c == nil {
				c = Present()
			}
			parts = append(parts, name+c.String())
		}
		sb.WriteString("{" + strings.Join(parts, ", ") + "}")
	}
	return sb.String()
}
