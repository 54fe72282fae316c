// Package catalog gives read access to the data root shared by every
// activity: the definitions table (categories and tags), the set of existing
// activities, the location index and the storage assets of an activity.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/jsonc"
)

// Category is one entry of the category table.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Tag is one entry of the tag dictionary.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Definitions is the shared definitions table. It is read-only for the
// duration of a validation.
type Definitions struct {
	Categories map[string]Category `json:"categories"`
	Tags       map[string]Tag      `json:"tags"`
}

// ParseDefinitions decodes a definitions file. Comments and trailing commas
// are accepted.
func ParseDefinitions(data []byte) (*Definitions, error) {
	var defs Definitions
	if err := json.Unmarshal(jsonc.ToJSON(data), &defs); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	if defs.Categories == nil {
		defs.Categories = map[string]Category{}
	}
	if defs.Tags == nil {
		defs.Tags = map[string]Tag{}
	}
	return &defs, nil
}

// HasCategory reports whether id is a known category.
func (d *Definitions) HasCategory(id string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Categories[id]
	return ok
}

// HasTag reports whether id is a known tag.
func (d *Definitions) HasTag(id string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Tags[id]
	return ok
}

// TagIDs returns the tag ids sorted.
func (d *Definitions) TagIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Tags))
	for id := range d.Tags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CategoryIDs returns the category ids sorted.
func (d *Definitions) CategoryIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Categories))
	for id := range d.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IDSet is a read-only set of activity ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
