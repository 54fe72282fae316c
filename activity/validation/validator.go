// Package validation checks activity documents before they are published.
// It normalizes the free text, resolves the references made by markers and
// verifies the location, attestation, category and tags, sorting findings
// into problems (blocking) and warnings (advisory).
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/atera/activity"
	"github.com/c360studio/atera/activity/marker"
	"github.com/c360studio/atera/activity/normalize"
	"github.com/c360studio/atera/catalog"
)

// wordsPerLine is the average line length above which a section is reported
// as having few line breaks.
const wordsPerLine = 25

// Structural errors that abort a validation.
var (
	ErrNilActivity     = errors.New("activity is nil")
	ErrMissingLocation = errors.New("location is missing")
	ErrNoDefinitions   = errors.New("definitions are not loaded")
)

// Severity classifies a finding.
type Severity string

const (
	// SeverityError blocks publishing.
	SeverityError Severity = "error"
	// SeverityWarning is advisory.
	SeverityWarning Severity = "warning"
)

// Rank orders severities, most severe first.
func (s Severity) Rank() int {
	if s == SeverityError {
		return 0
	}
	return 1
}

// Finding is a single validation message.
type Finding struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Options controls a validation run.
type Options struct {
	// Fix writes the normalized text back into the activity.
	Fix bool
}

// Result contains the outcome of a validation.
type Result struct {
	Problems []string      `json:"problems"`
	Warnings []string      `json:"warnings"`
	Log      normalize.Log `json:"normalize"`
	// Fixed is set when normalized text was written back into the activity.
	Fixed bool `json:"fixed"`
}

// Valid reports whether the activity has no problems.
func (r *Result) Valid() bool {
	return len(r.Problems) == 0
}

// Findings returns problems then warnings.
func (r *Result) Findings() []Finding {
	out := make([]Finding, 0, len(r.Problems)+len(r.Warnings))
	for _, p := range r.Problems {
		out = append(out, Finding{Severity: SeverityError, Message: p})
	}
	for _, w := range r.Warnings {
		out = append(out, Finding{Severity: SeverityWarning, Message: w})
	}
	return out
}

func (r *Result) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator validates activities against the shared definitions and the set
// of existing activities.
type Validator struct {
	definitions *catalog.Definitions
	existing    catalog.IDSet
}

// NewValidator creates a validator. A nil existing set disables the checks
// on activity references; a non-nil set, even empty, enforces them.
func NewValidator(definitions *catalog.Definitions, existing catalog.IDSet) *Validator {
	return &Validator{definitions: definitions, existing: existing}
}

// Validate checks the activity. Every check runs regardless of earlier
// failures. It never panics: a structurally unusable activity, or any
// unexpected failure, yields a single problem describing it.
func (v *Validator) Validate(a *activity.Activity, opts Options) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = ExceptionResult(fmt.Errorf("%v", r))
		}
	}()

	if err := v.precheck(a); err != nil {
		return ExceptionResult(err)
	}

	result = &Result{Problems: []string{}, Warnings: []string{}}
	v.checkDescription(a, opts, result)
	v.checkSections(a, opts, result)
	v.checkLocation(a, result)
	v.checkPoints(a, result)
	v.checkImages(a, result)
	v.checkAttestation(a, result)
	v.checkRequiredPoints(a, result)
	v.checkCategory(a, result)
	v.checkTags(a, result)
	result.Fixed = opts.Fix && result.Log.Changed()
	return result
}

func (v *Validator) precheck(a *activity.Activity) error {
	switch {
	case a == nil:
		return ErrNilActivity
	case a.Location == nil:
		return ErrMissingLocation
	case v.definitions == nil:
		return ErrNoDefinitions
	}
	return nil
}

// ExceptionResult is the result of a validation that could not run: a single
// problem describing err.
func ExceptionResult(err error) *Result {
	return &Result{
		Problems: []string{"exception in sanitization: " + err.Error()},
		Warnings: []string{},
	}
}

func (v *Validator) checkDescription(a *activity.Activity, opts Options, r *Result) {
	text, log := normalize.Normalize(a.Description, opts.Fix)
	r.Log = r.Log.Add(log)
	if opts.Fix {
		a.Description = text
	}
}

func (v *Validator) checkSections(a *activity.Activity, opts Options, r *Result) {
	if a.Relation == nil || a.Relation.Sections == nil {
		return
	}
	for pair := a.Relation.Sections.Oldest(); pair != nil; pair = pair.Next() {
		section := pair.Value
		content, log := normalize.Normalize(section.Content, opts.Fix)
		r.Log = r.Log.Add(log)
		if opts.Fix {
			section.Content = content
			a.Relation.Sections.Set(pair.Key, section)
		}

		for _, m := range marker.Extract(content) {
			v.checkMarker(a, section.Title, m, r)
		}

		lines := strings.Count(content, "\n") + 1
		words := len(strings.Split(content, " "))
		if float64(lines) < float64(words)/wordsPerLine {
			r.warn("%s: maybe you have few breaklines", section.Title)
		}
		if content == "" {
			r.warn("%s: empty section", section.Title)
		}
	}
}

func (v *Validator) checkMarker(a *activity.Activity, title string, m marker.Marker, r *Result) {
	var exists bool
	switch m.Kind {
	case marker.KindBold, marker.KindItalic:
		return
	case marker.KindPoint:
		exists = activity.Contains(a.Location.Points, m.Payload)
	case marker.KindImage:
		exists = activity.Contains(a.Images, m.Payload)
	case marker.KindActivity:
		if v.existing == nil {
			return
		}
		exists = v.existing.Contains(m.Payload)
	default:
		r.warn("%s: unknown marker kind %s", title, m.Kind)
		return
	}
	if !exists {
		r.problem("referenced %s %s does not exist", m.Kind.Noun(), m.Payload)
	}
}

func (v *Validator) checkLocation(a *activity.Activity, r *Result) {
	fields := []struct {
		name  string
		value string
	}{
		{"country", a.Location.Country},
		{"region", a.Location.Region},
		{"province", a.Location.Province},
		{"zone", a.Location.Zone},
	}
	for _, f := range fields {
		if f.value == "" {
			r.problem("location.%s is not compiled", f.name)
		}
	}
}

func (v *Validator) checkPoints(a *activity.Activity, r *Result) {
	for _, p := range a.Points() {
		if !p.Value.HasCoordinates() {
			r.problem("%s coordinates are not set", p.Key)
		}
	}
}

func (v *Validator) checkImages(a *activity.Activity, r *Result) {
	for _, img := range activity.Entries(a.Images) {
		if !img.Value.Type.Valid() {
			r.problem("%s image type %q is not valid", img.Key, img.Value.Type)
		}
	}
}

func (v *Validator) checkAttestation(a *activity.Activity, r *Result) {
	att := a.Attestation
	if att == nil {
		return
	}
	if !att.HasCoordinates() {
		r.problem("attestation coordinates are not set")
	}
	if !att.IsEnabled() {
		return
	}
	if att.Period != nil && *att.Period != "" && !ValidPeriod(*att.Period) {
		r.problem("attestation period not formatted")
	}
	if att.Tokens == nil || *att.Tokens <= 0 {
		r.warn("tokens: value is missing")
	}
	if att.Rank == nil || *att.Rank <= 0 {
		r.warn("rank: value is missing")
	}
}

func (v *Validator) checkRequiredPoints(a *activity.Activity, r *Result) {
	keys := activity.Keys(a.Location.Points)
	if a.Category != activity.CategoryNoParking && !anyContains(keys, "parcheggio") {
		r.warn("parking: point is missing")
	}
	if a.Category == activity.CategoryFerrata {
		if !anyContains(keys, "attacco") {
			r.warn("attacco: point is missing")
		}
		if !anyContains(keys, "stacco") {
			r.warn("stacco: point is missing")
		}
	}
}

func (v *Validator) checkCategory(a *activity.Activity, r *Result) {
	if !v.definitions.HasCategory(a.Category) {
		r.problem("%s invalid category id", a.Category)
	}
}

func (v *Validator) checkTags(a *activity.Activity, r *Result) {
	for _, tag := range activity.Keys(a.Tags) {
		if !v.definitions.HasTag(tag) {
			r.problem("%s tag does not exist", tag)
		}
	}
}

func anyContains(keys []string, substr string) bool {
	for _, k := range keys {
		if strings.Contains(k, substr) {
			return true
		}
	}
	return false
}

// Validate is a convenience function for a single validation.
func Validate(a *activity.Activity, definitions *catalog.Definitions, existing catalog.IDSet, opts Options) *Result {
	return NewValidator(definitions, existing).Validate(a, opts)
}
