// Package record defines the nodes combined by the planner: typed messages
// and binary constituent sets, the attribute values they carry, and the
// deduplicated working pool.
//
// Every value has a canonical key. Two values are structurally equal iff
// their keys are equal, and the key doubles as the hash used for pool
// deduplication. All values are immutable once constructed and are safe to
// share between goroutines.
package record

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the closed set of value variants.
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindRated
	KindSet
	KindMessage
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRated:
		return "rated"
	case KindSet:
		return "set"
	case KindMessage:
		return "message"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Value is an attribute value or a node.
type Value interface {
	Kind() Kind

	// Key returns the canonical encoding used for equality and hashing.
	Key() string

	// Size is the cardinality guards compare: the element count of a set,
	// the attribute count of a record, two for a relation and one otherwise.
	Size() int
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// --- Scalar ---

// Scalar holds a single string, integer, float or boolean.
type Scalar struct {
	v any // string | int64 | float64 | bool
}

// String returns a string scalar.
func String(s string) Scalar { return Scalar{v: s} }

// Int returns an integer scalar.
func Int(i int64) Scalar { return Scalar{v: i} }

// Float returns a floating point scalar.
func Float(f float64) Scalar { return Scalar{v: f} }

// Bool returns a boolean scalar.
func Bool(b bool) Scalar { return Scalar{v: b} }

func (s Scalar) Kind() Kind { return KindScalar }
func (s Scalar) Size() int  { return 1 }

// Interface returns the underlying Go value (nil for the zero Scalar).
func (s Scalar) Interface() any { return s.v }

func (s Scalar) Key() string {
	switch v := s.v.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return "i" + strconv.FormatInt(v, 10)
	case float64:
		return "f" + strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return "null"
	}
}

func (s Scalar) String() string {
	if s.v == nil {
		return "null"
	}
	return fmt.Sprint(s.v)
}

// --- Rated ---

// Rated pairs a scalar with a qualitative rating such as "good" or "poor".
type Rated struct {
	value  Scalar
	rating string
}

// NewRated returns a rated value.
func NewRated(value Scalar, rating string) Rated {
	return Rated{value: value, rating: rating}
}

func (r Rated) Kind() Kind     { return KindRated }
func (r Rated) Size() int      { return 1 }
func (r Rated) Value() Scalar  { return r.value }
func (r Rated) Rating() string { return r.rating }

func (r Rated) Key() string {
	return "~(" + r.value.Key() + "," + strconv.Quote(r.rating) + ")"
}

func (r Rated) String() string {
	return fmt.Sprintf("%s (%s)", r.value, r.rating)
}

// --- Set ---

// Set is an unordered collection of distinct scalars. Items are kept sorted
// by key so that equal sets have equal keys regardless of insertion order.
type Set struct {
	items []Scalar
	key   string
}

// NewSet returns a set of the given scalars with duplicates removed.
func NewSet(items ...Scalar) Set {
	seen := make(map[string]Scalar, len(items))
	for _, it := range items {
		seen[it.Key()] = it
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := Set{items: make([]Scalar, 0, len(keys))}
	for _, k := range keys {
		s.items = append(s.items, seen[k])
	}
	s.key = "{" + strings.Join(keys, ",") + "}"
	return s
}

func (s Set) Kind() Kind { return KindSet }
func (s Set) Size() int  { return len(s.items) }
func (s Set) Len() int   { return len(s.items) }

func (s Set) Key() string {
	if s.key == "" {
		return "{}"
	}
	return s.key
}

// Items returns a copy of the set's elements in canonical order.
func (s Set) Items() []Scalar {
	out := make([]Scalar, len(s.items))
	copy(out, s.items)
	return out
}

// Contains reports whether the set holds a scalar equal to v.
func (s Set) Contains(v Scalar) bool {
	k := v.Key()
	for _, it := range s.items {
		if it.Key() == k {
			return true
		}
	}
	return false
}

func (s Set) String() string {
	parts := make([]string, len(s.items))
	for i, it := range s.items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
