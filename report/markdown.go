package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360studio/atera/activity"
	"github.com/c360studio/atera/activity/marker"
)

// Transformer converts an activity into a Markdown preview of its relation.
type Transformer struct {
	// MapURL formats the link of a point. Defaults to an OpenStreetMap link.
	MapURL func(lat, long float64) string
}

// NewTransformer creates a new markdown transformer.
func NewTransformer() *Transformer {
	return &Transformer{MapURL: osmURL}
}

func osmURL(lat, long float64) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s",
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(long, 'f', -1, 64))
}

// Transform renders the activity.
func (t *Transformer) Transform(a *activity.Activity) string {
	var sb strings.Builder

	// Title as H1
	title := a.Name
	if title == "" {
		title = a.ID
	}
	if title != "" {
		sb.WriteString("# ")
		sb.WriteString(title)
		sb.WriteString("\n\n")
	}

	if a.Description != "" {
		sb.WriteString(t.Text(a, a.Description))
		sb.WriteString("\n\n")
	}

	t.writeLocation(&sb, a)

	for _, key := range a.SortedSectionKeys() {
		section, _ := a.Relation.Sections.Get(key)
		sb.WriteString("## ")
		sb.WriteString(section.Title)
		sb.WriteString("\n\n")
		if section.Content != "" {
			sb.WriteString(t.Text(a, section.Content))
			sb.WriteString("\n\n")
		}
	}

	if tags := enabledTags(a); len(tags) > 0 {
		sb.WriteString("---\n\n")
		sb.WriteString("**Tags:** ")
		sb.WriteString(strings.Join(tags, ", "))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (t *Transformer) writeLocation(sb *strings.Builder, a *activity.Activity) {
	if a.Location == nil {
		return
	}
	var parts []string
	for _, v := range []string{a.Location.Zone, a.Location.Province, a.Location.Region, a.Location.Country} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		sb.WriteString("**Location:** ")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n\n")
	}
	points := a.Points()
	if len(points) == 0 {
		return
	}
	for _, p := range points {
		sb.WriteString("- ")
		sb.WriteString(t.pointLink(p.Value, p.Key))
		if p.Value.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(p.Value.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// Text converts the markers in text to Markdown. References that cannot be
// resolved keep their display text.
func (t *Transformer) Text(a *activity.Activity, text string) string {
	return marker.Replace(text, func(m marker.Marker) string {
		switch m.Kind {
		case marker.KindBold:
			return "**" + m.Text + "**"
		case marker.KindItalic:
			return "_" + m.Text + "_"
		case marker.KindPoint:
			if a.Location != nil && a.Location.Points != nil {
				if p, ok := a.Location.Points.Get(m.Payload); ok {
					return t.pointLink(p, m.Text)
				}
			}
		case marker.KindImage:
			if a.Images != nil {
				if img, ok := a.Images.Get(m.Payload); ok {
					return "![" + m.Text + "](" + img.URL + ")"
				}
			}
		case marker.KindActivity:
			return "[" + m.Text + "](../" + m.Payload + "/)"
		}
		return m.Text
	})
}

func (t *Transformer) pointLink(p activity.Point, text string) string {
	if !p.HasCoordinates() || t.MapURL == nil {
		return text
	}
	return "[" + text + "](" + t.MapURL(*p.Latitude, *p.Longitude) + ")"
}

func enabledTags(a *activity.Activity) []string {
	var out []string
	for _, tag := range activity.Entries(a.Tags) {
		if tag.Value {
			out = append(out, tag.Key)
		}
	}
	return out
}
