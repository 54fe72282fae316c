// Package activity defines the activity document: the JSON record describing
// a single excursion (location metadata, narrative sections, points of
// interest, images, tags and attestation scoring).
//
// Mappings in the document are ordered: the key order found in the file is
// the order used when iterating and when writing the document back.
package activity

import (
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Category identifiers with dedicated rules.
const (
	// CategoryFerrata is the via-ferrata-like category.
	CategoryFerrata = "0"
	// CategoryTrekking is the trekking-like category.
	CategoryTrekking = "1"
	// CategoryNoParking is the category that does not require a parking point.
	CategoryNoParking = "2"
)

// ImageType identifies where an image is hosted.
type ImageType string

const (
	// ImageStorage is an asset uploaded with the activity.
	ImageStorage ImageType = "storage"
	// ImageWeb is an absolute web url.
	ImageWeb ImageType = "web"
	// ImageLocal is a path local to the data root.
	ImageLocal ImageType = "local"
)

// Valid reports whether t is one of the known image types.
func (t ImageType) Valid() bool {
	switch t {
	case ImageStorage, ImageWeb, ImageLocal:
		return true
	}
	return false
}

// Activity is the whole activity document.
type Activity struct {
	ID          string                                `json:"id"`
	Name        string                                `json:"name"`
	Description string                                `json:"description"`
	Category    string                                `json:"category"`
	Location    *Location                             `json:"location"`
	Images      *orderedmap.OrderedMap[string, Image] `json:"images"`
	Relation    *Relation                             `json:"relation"`
	Tags        *orderedmap.OrderedMap[string, bool]  `json:"tags"`
	Attestation *Attestation                          `json:"attestation"`
	Metrics     *orderedmap.OrderedMap[string, any]   `json:"metrics"`

	doc object
}

// Location holds the administrative location and the named points.
type Location struct {
	Country  string                                `json:"country"`
	Region   string                                `json:"region"`
	Province string                                `json:"province"`
	Zone     string                                `json:"zone"`
	Points   *orderedmap.OrderedMap[string, Point] `json:"points"`

	doc object
}

// Point is a named geographic coordinate.
type Point struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Description string   `json:"description"`
	MapLink     bool     `json:"map_link"`

	doc object
}

// HasCoordinates reports whether both coordinates are set and non-zero.
func (p Point) HasCoordinates() bool {
	return nonZero(p.Latitude) && nonZero(p.Longitude)
}

// Image is a named picture referenced by ph markers.
type Image struct {
	Title string    `json:"title"`
	URL   string    `json:"url"`
	Type  ImageType `json:"type"`

	doc object
}

// Relation holds the narrative of the activity.
type Relation struct {
	Sections *orderedmap.OrderedMap[string, Section] `json:"sections"`

	doc object
}

// Section is a titled block of narrative content.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`

	doc object
}

// Attestation is the scored completion certificate block. Scores are
// numbers in the document and may carry a fraction.
type Attestation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Period    *string  `json:"period"`
	Tokens    *float64 `json:"tokens"`
	Rank      *float64 `json:"rank"`
	Enabled   *bool    `json:"enabled"`

	doc object
}

// IsEnabled reports whether the attestation is enabled. Absent means enabled.
func (a *Attestation) IsEnabled() bool {
	if a == nil {
		return false
	}
	return a.Enabled == nil || *a.Enabled
}

// HasCoordinates reports whether both coordinates are set and non-zero.
func (a *Attestation) HasCoordinates() bool {
	return a != nil && nonZero(a.Latitude) && nonZero(a.Longitude)
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}

// Entry is a key/value pair of an ordered mapping.
type Entry[V any] struct {
	Key   string
	Value V
}

// Entries returns the pairs of m in document order. A nil map has no entries.
func Entries[V any](m *orderedmap.OrderedMap[string, V]) []Entry[V] {
	if m == nil {
		return nil
	}
	out := make([]Entry[V], 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry[V]{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// Keys returns the keys of m in document order.
func Keys[V any](m *orderedmap.OrderedMap[string, V]) []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Contains reports whether key is present in m.
func Contains[V any](m *orderedmap.OrderedMap[string, V], key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Get(key)
	return ok
}

// Points returns the location points in document order.
func (a *Activity) Points() []Entry[Point] {
	if a.Location == nil {
		return nil
	}
	return Entries(a.Location.Points)
}

// Sections returns the relation sections in document order.
func (a *Activity) Sections() []Entry[Section] {
	if a.Relation == nil {
		return nil
	}
	return Entries(a.Relation.Sections)
}

// SortedSectionKeys returns the section keys in numeric order. Keys that are
// not numbers sort after the numeric ones, in document order.
func (a *Activity) SortedSectionKeys() []string {
	var keys []string
	if a.Relation != nil {
		keys = Keys(a.Relation.Sections)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ni, erri := strconv.Atoi(keys[i])
		nj, errj := strconv.Atoi(keys[j])
		switch {
		case erri == nil && errj == nil:
			return ni < nj
		case erri == nil:
			return true
		default:
			return false
		}
	})
	return keys
}

// EnsureLocation returns the location block, creating it when absent.
func (a *Activity) EnsureLocation() *Location {
	if a.Location == nil {
		a.Location = &Location{}
	}
	if a.Location.Points == nil {
		a.Location.Points = orderedmap.New[string, Point]()
	}
	return a.Location
}

// EnsureSections returns the section mapping, creating it when absent.
func (a *Activity) EnsureSections() *orderedmap.OrderedMap[string, Section] {
	if a.Relation == nil {
		a.Relation = &Relation{}
	}
	if a.Relation.Sections == nil {
		a.Relation.Sections = orderedmap.New[string, Section]()
	}
	return a.Relation.Sections
}

// EnsureImages returns the image mapping, creating it when absent.
func (a *Activity) EnsureImages() *orderedmap.OrderedMap[string, Image] {
	if a.Images == nil {
		a.Images = orderedmap.New[string, Image]()
	}
	return a.Images
}

// EnsureTags returns the tag mapping, creating it when absent.
func (a *Activity) EnsureTags() *orderedmap.OrderedMap[string, bool] {
	if a.Tags == nil {
		a.Tags = orderedmap.New[string, bool]()
	}
	return a.Tags
}

// EnsureAttestation returns the attestation block, creating it when absent.
func (a *Activity) EnsureAttestation() *Attestation {
	if a.Attestation == nil {
		a.Attestation = &Attestation{}
	}
	return a.Attestation
}
