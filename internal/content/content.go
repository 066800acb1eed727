// Package content decodes item files: the selected messages for one or more
// described items, in YAML or JSON.
//
//	items:
//	  - id: x1
//	    title: Acme X1
//	    score: 0.87
//	    messages:
//	      - type: id
//	        attrs: {name: X1, brand: Acme}
//	      - type: feature
//	        attrs: {match: [ram, cpu]}
//	      - type: price
//	        attrs: {value: {value: 999, rating: good}}
//
// Attribute values are scalars, lists (sets of scalars), {value, rating}
// maps (rated values) or {type, attrs} maps (nested records).
package content

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
)

// File is the decoded form of an item file.
type File struct {
	Items []ItemSpec `yaml:"items" json:"items"`
}

// ItemSpec is one item.
type ItemSpec struct {
	ID       string        `yaml:"id,omitempty" json:"id,omitempty"`
	Title    string        `yaml:"title,omitempty" json:"title,omitempty"`
	Score    float64       `yaml:"score,omitempty" json:"score,omitempty"`
	Messages []MessageSpec `yaml:"messages" json:"messages"`
}

// MessageSpec is one message.
type MessageSpec struct {
	Type  string         `yaml:"type" json:"type"`
	Attrs map[string]any `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

// Load reads an item file.
func Load(path string) ([]planner.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Parse decodes YAML or JSON item data. Items without an id are numbered
// "item-1", "item-2", ... by position.
func Parse(data []byte) ([]planner.Item, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	if len(f.Items) == 0 {
		return nil, errors.New("content: no items")
	}

	items := make([]planner.Item, 0, len(f.Items))
	seen := make(map[string]bool, len(f.Items))
	for i, spec := range f.Items {
		item, err := spec.Item()
		if err != nil {
			return nil, fmt.Errorf("content: item %d: %w", i+1, err)
		}
		if item.ID == "" {
			item.ID = "item-" + strconv.Itoa(i+1)
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("content: duplicate item id %q", item.ID)
		}
		seen[item.ID] = true
		items = append(items, item)
	}
	return items, nil
}

// Item converts the spec into a planner item.
func (s ItemSpec) Item() (planner.Item, error) {
	if len(s.Messages) == 0 {
		return planner.Item{}, fmt.Errorf("%q has no messages", s.ID)
	}
	item := planner.Item{
		ID:       s.ID,
		Title:    s.Title,
		Score:    s.Score,
		Messages: make([]record.Message, 0, len(s.Messages)),
	}
	for j, ms := range s.Messages {
		if ms.Type == "" {
			return planner.Item{}, fmt.Errorf("message %d has no type", j+1)
		}
		m, err := record.MessageFromAny(ms.Type, ms.Attrs)
		if err != nil {
			return planner.Item{}, fmt.Errorf("message %d (%s): %w", j+1, ms.Type, err)
		}
		item.Messages = append(item.Messages, m)
	}
	return item, nil
}
