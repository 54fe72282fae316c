// Package edit implements the structural editing operations on activity
// documents: sections, points, images, tags and the location block.
//
// Operations mutate the activity in place. They never write to disk; callers
// persist the result through activity.Store.
package edit

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/c360studio/atera/activity"
	"github.com/c360studio/atera/activity/marker"
	"github.com/c360studio/atera/catalog"
)

// Errors returned by the editing operations.
var (
	ErrEmptyName      = errors.New("name is required")
	ErrEmptyTitle     = errors.New("title is required")
	ErrNotFound       = errors.New("item not found")
	ErrInvalidNumber  = errors.New("a number is required")
	ErrMissingID      = errors.New("activity id is required for storage images")
	ErrUnknownTag     = errors.New("tag is not defined")
	ErrUnknownField   = errors.New("unknown location field")
	ErrInvalidType    = errors.New("image type is not valid")
	ErrNoDefinitions  = errors.New("definitions are not loaded")
	ErrInvalidSection = errors.New("section index must not be negative")
)

// LocationFields are the editable fields of the location block, in the order
// they are usually filled.
var LocationFields = []string{"country", "region", "province", "zone"}

var (
	upper = cases.Upper(language.Italian)
	title = cases.Title(language.Italian, cases.NoLower)
)

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return upper.String(string(r)) + s[size:]
}

// WordCapitalized turns an identifier such as "parcheggio_alto" or
// "parcheggio alto" into display text "Parcheggio Alto".
func WordCapitalized(s string) string {
	separator := " "
	if strings.Contains(s, "_") {
		separator = "_"
	}
	var words []string
	for _, w := range strings.Split(strings.TrimSpace(s), separator) {
		if w == "" {
			continue
		}
		words = append(words, title.String(w))
	}
	return strings.Join(words, " ")
}

// InsertSection adds an empty section with the given title before the section
// currently at index. An index past the end appends. Keys are renumbered
// 0..n-1 afterwards. It returns the key of the new section.
func InsertSection(a *activity.Activity, index int, sectionTitle string) (string, error) {
	sectionTitle = strings.TrimSpace(sectionTitle)
	if sectionTitle == "" {
		return "", ErrEmptyTitle
	}
	if index < 0 {
		return "", ErrInvalidSection
	}
	sections := ordered(a)
	if index > len(sections) {
		index = len(sections)
	}
	section := activity.Section{Title: Capitalize(sectionTitle)}
	sections = append(sections[:index], append([]activity.Section{section}, sections[index:]...)...)
	replaceSections(a, sections)
	return strconv.Itoa(index), nil
}

// RemoveSection deletes the section with key and renumbers the rest.
func RemoveSection(a *activity.Activity, key string) error {
	sections := a.EnsureSections()
	if _, present := sections.Delete(key); !present {
		return fmt.Errorf("section %s: %w", key, ErrNotFound)
	}
	Renumber(a)
	return nil
}

// Renumber sorts the sections numerically and rewrites their keys as 0..n-1.
func Renumber(a *activity.Activity) {
	replaceSections(a, ordered(a))
}

func ordered(a *activity.Activity) []activity.Section {
	sections := a.EnsureSections()
	keys := a.SortedSectionKeys()
	out := make([]activity.Section, 0, len(keys))
	for _, k := range keys {
		s, _ := sections.Get(k)
		out = append(out, s)
	}
	return out
}

func replaceSections(a *activity.Activity, sections []activity.Section) {
	m := orderedmap.New[string, activity.Section](len(sections))
	for i, s := range sections {
		m.Set(strconv.Itoa(i), s)
	}
	a.EnsureSections()
	a.Relation.Sections = m
}

// PointInput describes a point to add. Coordinates are text so that both the
// decimal point and the decimal comma are accepted.
type PointInput struct {
	Name        string
	Latitude    string
	Longitude   string
	Description string
	MapLink     bool
}

// AddPoint adds or replaces a location point. A replaced point keeps the keys
// this package does not model.
func AddPoint(a *activity.Activity, in PointInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ErrEmptyName
	}
	lat, err := ParseCoordinate(in.Latitude)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	long, err := ParseCoordinate(in.Longitude)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	points := a.EnsureLocation().Points
	point, _ := points.Get(name)
	point.Latitude = &lat
	point.Longitude = &long
	point.Description = strings.TrimSpace(in.Description)
	point.MapLink = in.MapLink
	points.Set(name, point)
	return nil
}

// ParseCoordinate parses a coordinate in degrees, accepting a decimal comma.
func ParseCoordinate(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidNumber)
	}
	return v, nil
}

// RemovePoint deletes a location point.
func RemovePoint(a *activity.Activity, name string) error {
	if a.Location == nil || a.Location.Points == nil {
		return fmt.Errorf("point %s: %w", name, ErrNotFound)
	}
	if _, present := a.Location.Points.Delete(name); !present {
		return fmt.Errorf("point %s: %w", name, ErrNotFound)
	}
	return nil
}

// ImageInput describes an image to add. For storage images URL is the asset
// name inside the activity storage folder.
type ImageInput struct {
	Name  string
	Type  activity.ImageType
	Title string
	URL   string
}

// AddImage adds or replaces an image. Storage URLs are rewritten to
// activities/<id>/<asset>, which requires the activity id. A replaced image
// keeps the keys this package does not model.
func AddImage(a *activity.Activity, in ImageInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ErrEmptyName
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%q: %w", in.Type, ErrInvalidType)
	}
	url := strings.TrimSpace(in.URL)
	if in.Type == activity.ImageStorage {
		if a.ID == "" {
			return ErrMissingID
		}
		url = StorageURL(a.ID, url)
	}
	images := a.EnsureImages()
	img, _ := images.Get(name)
	img.Title, img.URL, img.Type = in.Title, url, in.Type
	images.Set(name, img)
	return nil
}

// StorageURL is the published path of a storage asset.
func StorageURL(id, asset string) string {
	return "activities/" + id + "/" + asset
}

// RemoveImage deletes an image.
func RemoveImage(a *activity.Activity, name string) error {
	if _, present := a.EnsureImages().Delete(name); !present {
		return fmt.Errorf("image %s: %w", name, ErrNotFound)
	}
	return nil
}

// AddTag enables a tag. Only tags present in the definitions are accepted.
func AddTag(a *activity.Activity, defs *catalog.Definitions, tag string) error {
	if defs == nil {
		return ErrNoDefinitions
	}
	if !defs.HasTag(tag) {
		return fmt.Errorf("%s: %w", tag, ErrUnknownTag)
	}
	a.EnsureTags().Set(tag, true)
	return nil
}

// AvailableTags lists the defined tags not yet enabled on the activity.
func AvailableTags(a *activity.Activity, defs *catalog.Definitions) []string {
	if defs == nil {
		return nil
	}
	var out []string
	for _, id := range defs.TagIDs() {
		enabled := false
		if a.Tags != nil {
			enabled, _ = a.Tags.Get(id)
		}
		if !enabled {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// RemoveTag deletes a tag.
func RemoveTag(a *activity.Activity, tag string) error {
	if _, present := a.EnsureTags().Delete(tag); !present {
		return fmt.Errorf("tag %s: %w", tag, ErrNotFound)
	}
	return nil
}

// SetLocation sets one of the location fields.
func SetLocation(a *activity.Activity, field, value string) error {
	loc := a.EnsureLocation()
	value = strings.TrimSpace(value)
	switch field {
	case "country":
		loc.Country = value
	case "region":
		loc.Region = value
	case "province":
		loc.Province = value
	case "zone":
		loc.Zone = value
	default:
		return fmt.Errorf("%s: %w", field, ErrUnknownField)
	}
	return nil
}

// LocationChoices returns the known values for field given the fields already
// set on loc.
func LocationChoices(idx catalog.LocationIndex, loc *activity.Location, field string) ([]string, error) {
	if loc == nil {
		loc = &activity.Location{}
	}
	switch field {
	case "country":
		return idx.Countries(), nil
	case "region":
		return idx.Regions(loc.Country), nil
	case "province":
		return idx.Provinces(loc.Country, loc.Region), nil
	case "zone":
		return idx.Zones(loc.Country), nil
	}
	return nil, fmt.Errorf("%s: %w", field, ErrUnknownField)
}

// PointMarker compiles a pos marker for a point with display text derived
// from its name.
func PointMarker(name string) (string, error) {
	return marker.Compile(marker.KindPoint, WordCapitalized(name), name)
}

// ImageMarker compiles a ph marker for an image with display text derived
// from its name.
func ImageMarker(name string) (string, error) {
	return marker.Compile(marker.KindImage, WordCapitalized(name), name)
}
