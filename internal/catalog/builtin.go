package catalog

import (
	"github.com/dusk-indust/docplan/internal/pattern"
	"github.com/dusk-indust/docplan/internal/rule"
)

// Message types understood by the builtin catalog.
//
//	id       name, brand            the item being described
//	feature  match | mismatch       sets of requested attributes the item has or lacks
//	price    value (rated)          the item's price with a rating such as "good"
//	extra    any                    a remark with no preferred attachment point
const (
	TypeID      = "id"
	TypeFeature = "feature"
	TypePrice   = "price"
	TypeExtra   = "extra"

	AttrMatch    = "match"
	AttrMismatch = "mismatch"
	AttrValue    = "value"
)

// Relations produced by the builtin catalog.
const (
	RelContrast    = "contrast"
	RelConcession  = "concession"
	RelElaboration = "elaboration"
	RelEvaluation  = "evaluation"
	RelSequence    = "sequence"
)

var builtin = MustNew(builtinRules()...)

// Builtin returns the default item-description catalog.
func Builtin() *Catalog { return builtin }

func builtinRules() []rule.Rule {
	matching := pattern.Message(TypeFeature).With(AttrMatch, pattern.Present())
	mismatching := pattern.Message(TypeFeature).With(AttrMismatch, pattern.Present())

	return []rule.Rule{
		{
			// Mostly matching: lead with what matches, contrast with what does not.
			Name:      "contrast-features",
			Relation:  RelContrast,
			Nucleus:   []rule.Binding{rule.Bind("good", matching)},
			Satellite: []rule.Binding{rule.Bind("bad", mismatching)},
			Guards: []rule.Guard{
				rule.Lacks("good", AttrMismatch),
				rule.Lacks("bad", AttrMatch),
				rule.Compare(rule.Size("good", AttrMatch), rule.OpGE, rule.Size("bad", AttrMismatch)),
			},
			Weight: 9,
		},
		{
			// Mostly mismatching: lead with the shortfall, concede what matches.
			Name:      "concede-features",
			Relation:  RelConcession,
			Nucleus:   []rule.Binding{rule.Bind("bad", mismatching)},
			Satellite: []rule.Binding{rule.Bind("good", matching)},
			Guards: []rule.Guard{
				rule.Lacks("bad", AttrMatch),
				rule.Lacks("good", AttrMismatch),
				rule.Compare(rule.Size("bad", AttrMismatch), rule.OpGT, rule.Size("good", AttrMatch)),
			},
			Weight: 9,
		},
		{
			Name:     "elaborate-identity",
			Relation: RelElaboration,
			Nucleus:  []rule.Binding{rule.Bind("item", pattern.Message(TypeID))},
			Satellite: []rule.Binding{
				rule.Bind("feature", pattern.Message(TypeFeature)),
				rule.Bind("contrast", pattern.Relation(RelContrast)),
				rule.Bind("concession", pattern.Relation(RelConcession)),
			},
			Weight: 8,
		},
		{
			Name:     "evaluate-price",
			Relation: RelEvaluation,
			Nucleus: []rule.Binding{
				rule.Bind("described", pattern.Relation(RelElaboration)),
				rule.Bind("item", pattern.Message(TypeID)),
			},
			Satellite: []rule.Binding{
				rule.Bind("price", pattern.Message(TypePrice).With(AttrValue, pattern.Present())),
			},
			Weight: 6,
		},
		{
			Name:     "elaborate-more",
			Relation: RelElaboration,
			Nucleus:  []rule.Binding{rule.Bind("described", pattern.Relation(RelElaboration))},
			Satellite: []rule.Binding{
				rule.Bind("feature", pattern.Message(TypeFeature)),
			},
			Weight: 5,
		},
		{
			Name:     "sequence-extra",
			Relation: RelSequence,
			Nucleus: []rule.Binding{
				rule.Bind("described", pattern.Relation(RelElaboration)),
				rule.Bind("evaluated", pattern.Relation(RelEvaluation)),
				rule.Bind("sequenced", pattern.Relation(RelSequence)),
				rule.Bind("item", pattern.Message(TypeID)),
			},
			Satellite: []rule.Binding{rule.Bind("extra", pattern.Message(TypeExtra))},
			Weight:    4,
		},
	}
}
