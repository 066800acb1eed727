package pattern

import (
	"fmt"

	"github.com/dusk-indust/docplan/internal/record"
)

// Constraint restricts one attribute of a candidate.
type Constraint interface {
	// Satisfied reports whether the attribute value meets the constraint.
	Satisfied(v record.Value) bool
	String() string
	validate() error
}

// Equals requires the attribute to be structurally equal to v.
func Equals(v record.Value) Constraint { return equals{v: v} }

// Nested requires the attribute to be a node subsumed by p.
func Nested(p Pattern) Constraint { return nested{p: p} }

// Present requires only that the attribute exists.
func Present() Constraint { return present{} }

// RatedAs requires the attribute to be a rated value with the given rating.
func RatedAs(rating string) Constraint { return ratedAs{rating: rating} }

type equals struct{ v record.Value }

func (c equals) Satisfied(v record.Value) bool { return record.Equal(c.v, v) }
func (c equals) String() string {
	if c.v == nil {
		return "=<nil>"
	}
	return "=" + c.v.Key()
}

func (c equals) validate() error {
	if c.v == nil {
		return fmt.Errorf("equals needs a value")
	}
	return nil
}

type nested struct{ p Pattern }

func (c nested) Satisfied(v record.Value) bool { return Subsumes(c.p, v) }
func (c nested) String() string                { return "~" + c.p.String() }
func (c nested) validate() error               { return c.p.Validate() }

type present struct{}

func (present) Satisfied(record.Value) bool { return true }
func (present) String() string              { return "?" }
func (present) validate() error             { return nil }

type ratedAs struct{ rating string }

func (c ratedAs) Satisfied(v record.Value) bool {
	r, ok := v.(record.Rated)
	return ok && r.Rating() == c.rating
}

func (c ratedAs) String() string { return "@" + c.rating }

func (c ratedAs) validate() error {
	if c.rating == "" {
		return fmt.Errorf("rated constraint needs a rating")
	}
	return nil
}
