package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/docplan/internal/pattern"
	"github.com/dusk-indust/docplan/internal/record"
	"github.com/dusk-indust/docplan/internal/rule"
)

// File is the YAML form of a catalog.
//
//	rules:
//	  - name: contrast-features
//	    relation: contrast
//	    weight: 9
//	    nucleus:
//	      - bind: n
//	        kind: message
//	        type: feature
//	        attrs:
//	          match: {present: true}
//	    satellite:
//	      - bind: s
//	        type: feature
//	        attrs:
//	          mismatch: {}
//	    guards:
//	      - compare: {left: {size: n.match}, op: ">=", right: {size: s.mismatch}}
type File struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule in a catalog file.
type RuleSpec struct {
	Name      string        `yaml:"name"`
	Relation  string        `yaml:"relation"`
	Weight    int           `yaml:"weight"`
	Nucleus   []BindingSpec `yaml:"nucleus"`
	Satellite []BindingSpec `yaml:"satellite"`
	Guards    []GuardSpec   `yaml:"guards,omitempty"`
}

// BindingSpec names an inline pattern.
type BindingSpec struct {
	Bind        string `yaml:"bind"`
	PatternSpec `yaml:",inline"`
}

// PatternSpec is the YAML form of a pattern. Kind is "message", "relation"
// or empty for either.
type PatternSpec struct {
	Kind  string                    `yaml:"kind,omitempty"`
	Type  string                    `yaml:"type,omitempty"`
	Attrs map[string]ConstraintSpec `yaml:"attrs,omitempty"`
}

// ConstraintSpec sets at most one field. An empty constraint requires
// presence. Absence is not a pattern constraint; it is a lacks guard.
type ConstraintSpec struct {
	Present *bool        `yaml:"present,omitempty"`
	Equals  any          `yaml:"equals,omitempty"`
	Rated   string       `yaml:"rated,omitempty"`
	Pattern *PatternSpec `yaml:"pattern,omitempty"`

	// hasEquals records an equals key even when its value is null.
	hasEquals bool
}

// UnmarshalYAML decodes the constraint and notes which keys were written.
func (cs *ConstraintSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain ConstraintSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*cs = ConstraintSpec(p)
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			if value.Content[i].Value == "equals" {
				cs.hasEquals = true
			}
		}
	}
	return nil
}

// GuardSpec sets exactly one field. References are "binding" or
// "binding.attr".
type GuardSpec struct {
	Bound   string       `yaml:"bound,omitempty"`
	Has     string       `yaml:"has,omitempty"`
	Lacks   string       `yaml:"lacks,omitempty"`
	Equals  *EqualsSpec  `yaml:"equals,omitempty"`
	Compare *CompareSpec `yaml:"compare,omitempty"`
	All     []GuardSpec  `yaml:"all,omitempty"`
	Any     []GuardSpec  `yaml:"any,omitempty"`
	Not     *GuardSpec   `yaml:"not,omitempty"`
}

// EqualsSpec compares an attribute against a literal value.
type EqualsSpec struct {
	Ref   string `yaml:"ref"`
	Value any    `yaml:"value"`
}

// CompareSpec is an integer comparison.
type CompareSpec struct {
	Left  OperandSpec `yaml:"left"`
	Op    string      `yaml:"op"`
	Right OperandSpec `yaml:"right"`
}

// OperandSpec sets exactly one field.
type OperandSpec struct {
	Size  string `yaml:"size,omitempty"`
	Count string `yaml:"count,omitempty"`
	Const *int   `yaml:"const,omitempty"`
}

// Load reads a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, errors.New("catalog: no rules")
	}

	rules := make([]rule.Rule, 0, len(f.Rules))
	var errs []error
	for i, rs := range f.Rules {
		r, err := rs.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, rs.Name, err))
			continue
		}
		rules = append(rules, r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog: %w", errors.Join(errs...))
	}
	return New(rules...)
}

func (rs RuleSpec) build() (rule.Rule, error) {
	r := rule.Rule{Name: rs.Name, Relation: rs.Relation, Weight: rs.Weight}
	var err error
	if r.Nucleus, err = buildBindings(rs.Nucleus); err != nil {
		return rule.Rule{}, fmt.Errorf("nucleus: %w", err)
	}
	if r.Satellite, err = buildBindings(rs.Satellite); err != nil {
		return rule.Rule{}, fmt.Errorf("satellite: %w", err)
	}
	for i, gs := range rs.Guards {
		g, err := gs.build()
		if err != nil {
			return rule.Rule{}, fmt.Errorf("guard %d: %w", i, err)
		}
		r.Guards = append(r.Guards, g)
	}
	return r, nil
}

func buildBindings(specs []BindingSpec) ([]rule.Binding, error) {
	out := make([]rule.Binding, 0, len(specs))
	for _, bs := range specs {
		p, err := bs.PatternSpec.build()
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", bs.Bind, err)
		}
		out = append(out, rule.Bind(bs.Bind, p))
	}
	return out, nil
}

func (ps PatternSpec) build() (pattern.Pattern, error) {
	p := pattern.Pattern{Tag: ps.Type}
	switch ps.Kind {
	case "":
	case "message":
		p.Kind = record.KindMessage
	case "relation":
		p.Kind = record.KindRelation
	default:
		return pattern.Pattern{}, fmt.Errorf("unknown pattern kind %q", ps.Kind)
	}
	for _, name := range sortedKeys(ps.Attrs) {
		c, err := ps.Attrs[name].build()
		if err != nil {
			return pattern.Pattern{}, fmt.Errorf("attr %q: %w", name, err)
		}
		p = p.With(name, c)
	}
	return p, nil
}

func (cs ConstraintSpec) build() (pattern.Constraint, error) {
	set := 0
	var c pattern.Constraint = pattern.Present()
	if cs.Present != nil {
		if !*cs.Present {
			return nil, errors.New("present: false cannot require absence; use a lacks guard")
		}
		set++
	}
	if cs.hasEquals && cs.Equals == nil {
		return nil, errors.New("equals has no value; use present to require the attribute")
	}
	if cs.Equals != nil {
		set++
		v, err := record.FromAny(cs.Equals)
		if err != nil {
			return nil, fmt.Errorf("equals: %w", err)
		}
		c = pattern.Equals(v)
	}
	if cs.Rated != "" {
		set++
		c = pattern.RatedAs(cs.Rated)
	}
	if cs.Pattern != nil {
		set++
		p, err := cs.Pattern.build()
		if err != nil {
			return nil, err
		}
		c = pattern.Nested(p)
	}
	if set > 1 {
		return nil, errors.New("constraint sets more than one of present, equals, rated, pattern")
	}
	return c, nil
}

func (gs GuardSpec) build() (rule.Guard, error) {
	var forms []string
	var g rule.Guard
	var err error

	if gs.Bound != "" {
		forms = append(forms, "bound")
		g = rule.Bound(gs.Bound)
	}
	if gs.Has != "" {
		forms = append(forms, "has")
		var name, attr string
		if name, attr, err = splitRef(gs.Has); err == nil {
			g = rule.Has(name, attr)
		}
	}
	if gs.Lacks != "" {
		forms = append(forms, "lacks")
		var name, attr string
		if name, attr, err = splitRef(gs.Lacks); err == nil {
			g = rule.Lacks(name, attr)
		}
	}
	if gs.Equals != nil {
		forms = append(forms, "equals")
		g, err = gs.Equals.build()
	}
	if gs.Compare != nil {
		forms = append(forms, "compare")
		g, err = gs.Compare.build()
	}
	if gs.All != nil {
		forms = append(forms, "all")
		var children []rule.Guard
		if children, err = buildGuards(gs.All); err == nil {
			g = rule.All(children...)
		}
	}
	if gs.Any != nil {
		forms = append(forms, "any")
		var children []rule.Guard
		if children, err = buildGuards(gs.Any); err == nil {
			g = rule.Any(children...)
		}
	}
	if gs.Not != nil {
		forms = append(forms, "not")
		var child rule.Guard
		if child, err = gs.Not.build(); err == nil {
			g = rule.Not(child)
		}
	}

	switch {
	case len(forms) == 0:
		return nil, errors.New("empty guard")
	case len(forms) > 1:
		return nil, fmt.Errorf("guard mixes forms: %s", strings.Join(forms, ", "))
	case err != nil:
		return nil, fmt.Errorf("%s: %w", forms[0], err)
	}
	return g, nil
}

func buildGuards(specs []GuardSpec) ([]rule.Guard, error) {
	out := make([]rule.Guard, 0, len(specs))
	for _, s := range specs {
		g, err := s.build()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (es EqualsSpec) build() (rule.Guard, error) {
	name, attr, err := splitRef(es.Ref)
	if err != nil {
		return nil, err
	}
	if es.Value == nil {
		return nil, errors.New("missing value")
	}
	v, err := record.FromAny(es.Value)
	if err != nil {
		return nil, err
	}
	return rule.AttrEquals(name, attr, v), nil
}

func (cs CompareSpec) build() (rule.Guard, error) {
	op, err := rule.ParseOp(cs.Op)
	if err != nil {
		return nil, err
	}
	left, err := cs.Left.build()
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	right, err := cs.Right.build()
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	return rule.Compare(left, op, right), nil
}

func (s OperandSpec) build() (rule.Operand, error) {
	set := 0
	var o rule.Operand
	if s.Size != "" {
		set++
		name, attr, err := splitRef(s.Size)
		if err != nil {
			return nil, err
		}
		o = rule.Size(name, attr)
	}
	if s.Count != "" {
		set++
		o = rule.AttrCount(s.Count)
	}
	if s.Const != nil {
		set++
		o = rule.Const(*s.Const)
	}
	if set != 1 {
		return nil, errors.New("operand must set exactly one of size, count, const")
	}
	return o, nil
}

// splitRef splits "binding.attr".
func splitRef(ref string) (name, attr string, err error) {
	name, attr, ok := strings.Cut(ref, ".")
	if !ok || name == "" || attr == "" {
		return "", "", fmt.Errorf("reference %q is not binding.attr", ref)
	}
	return name, attr, nil
}

func sortedKeys(m map[string]ConstraintSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
