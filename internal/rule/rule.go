// Package rule defines discourse combination rules and their evaluation
// against a working pool.
//
// A rule declares nucleus and satellite bindings, each a named pattern. For
// a given pool, every element a nucleus pattern subsumes is paired with every
// element a satellite pattern subsumes; each pairing whose guards all hold
// yields one Option: a new ConstituentSet, the rule's weight, and the two
// pool elements it consumes.
//
// Evaluate reads only its arguments. Rules are safe to share between
// concurrent planning runs.
package rule

import (
	"errors"
	"fmt"

	"github.com/dusk-indust/docplan/internal/pattern"
	"github.com/dusk-indust/docplan/internal/record"
)

// Binding names a pattern so guards can refer to the node it selected.
type Binding struct {
	Name    string
	Pattern pattern.Pattern
}

// Bind returns a binding.
func Bind(name string, p pattern.Pattern) Binding {
	return Binding{Name: name, Pattern: p}
}

// Rule is a declarative combination rule for one discourse relation.
type Rule struct {
	Name      string
	Relation  string
	Nucleus   []Binding
	Satellite []Binding
	Guards    []Guard
	// Weight ranks this rule's options against other rules' options.
	Weight int
}

// Option is one applicable combination.
type Option struct {
	Rule     string
	Score    int
	Produced *record.ConstituentSet
	// Consumed holds the nucleus and satellite, in that order.
	Consumed [2]record.Node
}

// candidate is a pool element selected by one binding.
type candidate struct {
	binding string
	node    record.Node
	index   int // position in the pool
}

// Evaluate returns every valid combination of r against pool, in nucleus
// declaration order, then pool order, then satellite declaration order, then
// pool order. It returns nil when r is inapplicable.
func (r *Rule) Evaluate(pool record.Pool) []Option {
	nuclei := collect(r.Nucleus, pool)
	if len(nuclei) == 0 {
		return nil
	}
	satellites := collect(r.Satellite, pool)
	if len(satellites) == 0 {
		return nil
	}

	var opts []Option
	for _, n := range nuclei {
		for _, s := range satellites {
			// One element may match both sides; it cannot be paired with itself.
			if n.index == s.index {
				continue
			}
			b := Bindings{n.binding: n.node, s.binding: s.node}
			if !r.holds(b) {
				continue
			}
			opts = append(opts, Option{
				Rule:     r.Name,
				Score:    r.Weight,
				Produced: record.NewConstituentSet(r.Relation, n.node, s.node),
				Consumed: [2]record.Node{n.node, s.node},
			})
		}
	}
	return opts
}

func (r *Rule) holds(b Bindings) bool {
	for _, g := range r.Guards {
		if !g.Holds(b) {
			return false
		}
	}
	return true
}

func collect(bindings []Binding, pool record.Pool) []candidate {
	var out []candidate
	for _, b := range bindings {
		for i := 0; i < pool.Len(); i++ {
			n := pool.At(i)
			if pattern.Subsumes(b.Pattern, n) {
				out = append(out, candidate{binding: b.Name, node: n, index: i})
			}
		}
	}
	return out
}

// Validate reports configuration defects: missing names, empty binding
// lists, duplicate binding names, malformed patterns and guards, and guards
// that reference undeclared bindings. All defects are reported together.
func (r *Rule) Validate() error {
	var errs []error
	if r.Name == "" {
		errs = append(errs, errors.New("rule has no name"))
	}
	if r.Relation == "" {
		errs = append(errs, errors.New("no relation"))
	}
	if len(r.Nucleus) == 0 {
		errs = append(errs, errors.New("no nucleus bindings"))
	}
	if len(r.Satellite) == 0 {
		errs = append(errs, errors.New("no satellite bindings"))
	}

	declared := make(map[string]bool, len(r.Nucleus)+len(r.Satellite))
	check := func(role string, bs []Binding) {
		for _, b := range bs {
			if b.Name == "" {
				errs = append(errs, fmt.Errorf("%s binding has no name", role))
				continue
			}
			if declared[b.Name] {
				errs = append(errs, fmt.Errorf("duplicate binding %q", b.Name))
			}
			declared[b.Name] = true
			if err := b.Pattern.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s binding %q: %w", role, b.Name, err))
			}
		}
	}
	check("nucleus", r.Nucleus)
	check("satellite", r.Satellite)

	for i, g := range r.Guards {
		if g == nil {
			errs = append(errs, fmt.Errorf("guard %d is nil", i))
			continue
		}
		if err := g.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("guard %d (%s): %w", i, g, err))
			continue
		}
		for _, name := range g.References() {
			if !declared[name] {
				errs = append(errs, fmt.Errorf("guard %d (%s) references undeclared binding %q", i, g, name))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("rule %q: %w", r.Name, errors.Join(errs...))
}

// Clone returns a deep copy of r so that later changes to the caller's
// slices cannot reach a frozen catalog.
func (r Rule) Clone() Rule {
	out := r
	out.Nucleus = cloneBindings(r.Nucleus)
	out.Satellite = cloneBindings(r.Satellite)
	out.Guards = append([]Guard(nil), r.Guards...)
	return out
}

func cloneBindings(bs []Binding) []Binding {
	out := make([]Binding, len(bs))
	for i, b := range bs {
		out[i] = Binding{Name: b.Name, Pattern: b.Pattern.Clone()}
	}
	return out
}
