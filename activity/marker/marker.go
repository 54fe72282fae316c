// Package marker implements the inline marker language used inside activity
// narrative text:
//
//	${[display text]kind(payload)}
//
// Markers format text (b, i) or cross-reference points (pos), images (ph) and
// other activities (act).
package marker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies what a marker does.
type Kind string

// Recognized marker kinds.
const (
	KindBold     Kind = "b"
	KindItalic   Kind = "i"
	KindActivity Kind = "act"
	KindPoint    Kind = "pos"
	KindImage    Kind = "ph"
)

// Kinds lists the recognized kinds in display order.
var Kinds = []Kind{KindBold, KindItalic, KindActivity, KindPoint, KindImage}

// ErrInvalidMarker is returned when a marker cannot be represented
// unambiguously in the grammar.
var ErrInvalidMarker = errors.New("invalid marker")

// pattern matches one marker. Display text excludes ']' and payload excludes
// ')'; neither spans lines.
var pattern = regexp.MustCompile(`\$\{\[([^\]\n]+)\]([A-Za-z0-9]+)\(([^)\n]*)\)\}`)

var kindPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Known reports whether k is one of the recognized kinds.
func (k Kind) Known() bool {
	switch k {
	case KindBold, KindItalic, KindActivity, KindPoint, KindImage:
		return true
	}
	return false
}

// IsReference reports whether the payload of k names another entity.
func (k Kind) IsReference() bool {
	return k == KindActivity || k == KindPoint || k == KindImage
}

// Noun is the name of the entity a reference kind points to.
func (k Kind) Noun() string {
	switch k {
	case KindActivity:
		return "activity"
	case KindPoint:
		return "point"
	case KindImage:
		return "image"
	}
	return ""
}

// Marker is one marker occurrence.
type Marker struct {
	Text    string `json:"text"`
	Kind    Kind   `json:"kind"`
	Payload string `json:"payload"`

	// Start and End are the byte offsets of the marker in the scanned text.
	Start int `json:"start"`
	End   int `json:"end"`
}

// String returns the literal form of the marker.
func (m Marker) String() string {
	return literal(m.Kind, m.Text, m.Payload)
}

// Extract returns every non-overlapping marker in text, left to right.
func Extract(text string) []Marker {
	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	markers := make([]Marker, 0, len(matches))
	for _, m := range matches {
		markers = append(markers, Marker{
			Text:    text[m[2]:m[3]],
			Kind:    Kind(text[m[4]:m[5]]),
			Payload: text[m[6]:m[7]],
			Start:   m[0],
			End:     m[1],
		})
	}
	return markers
}

// Compile builds the literal marker for kind, display text and payload.
// Text and payload may not contain ']', ')', '}' or line breaks, text may not
// be empty and kind must be alphanumeric; such markers could not be parsed
// back and are rejected with ErrInvalidMarker.
func Compile(kind Kind, text, payload string) (string, error) {
	if !kindPattern.MatchString(string(kind)) {
		return "", fmt.Errorf("%w: kind %q is not alphanumeric", ErrInvalidMarker, kind)
	}
	if text == "" {
		return "", fmt.Errorf("%w: display text is empty", ErrInvalidMarker)
	}
	if i := strings.IndexAny(text, "])}\n"); i >= 0 {
		return "", fmt.Errorf("%w: display text contains %q", ErrInvalidMarker, text[i])
	}
	if i := strings.IndexAny(payload, "])}\n"); i >= 0 {
		return "", fmt.Errorf("%w: payload contains %q", ErrInvalidMarker, payload[i])
	}
	return literal(kind, text, payload), nil
}

// MustCompile is like Compile but panics on invalid input.
func MustCompile(kind Kind, text, payload string) string {
	s, err := Compile(kind, text, payload)
	if err != nil {
		panic(err)
	}
	return s
}

// Replace rewrites every marker in text with the result of fn.
func Replace(text string, fn func(Marker) string) string {
	markers := Extract(text)
	if len(markers) == 0 {
		return text
	}
	var sb strings.Builder
	last := 0
	for _, m := range markers {
		sb.WriteString(text[last:m.Start])
		sb.WriteString(fn(m))
		last = m.End
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// Plain replaces every marker with its display text.
func Plain(text string) string {
	return Replace(text, func(m Marker) string { return m.Text })
}

func literal(kind Kind, text, payload string) string {
	return "${[" + text + "]" + string(kind) + "(" + payload + ")}"
}
