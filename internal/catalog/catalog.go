// Package catalog holds the read-only rule collection a planner draws
// combinations from.
//
// A Catalog is validated and frozen by New. Its rules are deep copies of the
// caller's, so a catalog may be shared by any number of concurrent planning
// runs.
package catalog

import (
	"errors"
	"fmt"

	"github.com/dusk-indust/docplan/internal/record"
	"github.com/dusk-indust/docplan/internal/rule"
)

// Catalog is an ordered, immutable set of rules. Catalog order is the
// planner's tie-break between equally weighted options.
type Catalog struct {
	rules  []rule.Rule
	byName map[string]int
}

// New validates rules and returns a frozen catalog. Every defect in every
// rule is reported in the returned error.
func New(rules ...rule.Rule) (*Catalog, error) {
	c := &Catalog{
		rules:  make([]rule.Rule, 0, len(rules)),
		byName: make(map[string]int, len(rules)),
	}

	var errs []error
	for i := range rules {
		r := rules[i].Clone()
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byName[r.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate rule name %q", r.Name))
			continue
		}
		c.byName[r.Name] = len(c.rules)
		c.rules = append(c.rules, r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog: %w", errors.Join(errs...))
	}
	return c, nil
}

// MustNew is like New but panics on error. Intended for package-level
// catalogs built from literals.
func MustNew(rules ...rule.Rule) *Catalog {
	c, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Rules returns copies of the rules in catalog order.
func (c *Catalog) Rules() []rule.Rule {
	out := make([]rule.Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Clone()
	}
	return out
}

// Lookup returns a copy of the named rule.
func (c *Catalog) Lookup(name string) (rule.Rule, bool) {
	i, ok := c.byName[name]
	if !ok {
		return rule.Rule{}, false
	}
	return c.rules[i].Clone(), true
}

// Options evaluates every rule against pool and concatenates the results in
// catalog order.
func (c *Catalog) Options(pool record.Pool) []rule.Option {
	var opts []rule.Option
	for i := range c.rules {
		opts = append(opts, c.rules[i].Evaluate(pool)...)
	}
	return opts
}
