// Package report renders validation results for people and for tools.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/c360studio/atera/activity/validation"
)

// Options controls rendering.
type Options struct {
	// Color enables terminal styling. It only takes effect when the writer
	// is a terminal.
	Color bool
	// NormalizeLog includes the normalizer counters.
	NormalizeLog bool
}

// styles holds the styles of one renderer.
type styles struct {
	title   lipgloss.Style
	error   lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		plain := r.NewStyle()
		return styles{title: plain, error: plain, warning: plain, muted: plain, ok: plain}
	}
	return styles{
		title:   r.NewStyle().Bold(true).Underline(true),
		error:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
	}
}

func (s styles) severity(sev validation.Severity) (lipgloss.Style, string) {
	switch sev {
	case validation.SeverityError:
		return s.error, "✗"
	default:
		return s.warning, "!"
	}
}

// Sort orders findings errors before warnings, keeping the order of findings
// of the same severity.
func Sort(findings []validation.Finding) []validation.Finding {
	out := make([]validation.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}

// Render writes the findings of one document grouped by severity.
func Render(w io.Writer, title string, findings []validation.Finding, opts Options) error {
	st := newStyles(w, opts.Color)
	var sb strings.Builder

	sb.WriteString(st.title.Render(title))
	sb.WriteString("\n")

	sorted := Sort(findings)
	if len(sorted) == 0 {
		sb.WriteString("  ")
		sb.WriteString(st.ok.Render("✓ no findings"))
		sb.WriteString("\n")
	}

	var current validation.Severity
	for _, f := range sorted {
		style, icon := st.severity(f.Severity)
		if f.Severity != current {
			current = f.Severity
			sb.WriteString("  ")
			sb.WriteString(style.Render(groupTitle(f.Severity, countSeverity(sorted, f.Severity))))
			sb.WriteString("\n")
		}
		sb.WriteString("    ")
		sb.WriteString(style.Render(icon))
		sb.WriteString(" ")
		sb.WriteString(f.Message)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderResult writes a validation result, optionally followed by the
// normalizer counters.
func RenderResult(w io.Writer, title string, result *validation.Result, opts Options) error {
	if err := Render(w, title, result.Findings(), opts); err != nil {
		return err
	}
	if !opts.NormalizeLog {
		return nil
	}
	st := newStyles(w, opts.Color)
	var sb strings.Builder
	for _, line := range NormalizeLines(result) {
		sb.WriteString("  ")
		sb.WriteString(st.muted.Render(line))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// NormalizeLines describes the normalizer counters of a result.
func NormalizeLines(result *validation.Result) []string {
	lines := result.Log.Lines()
	if result.Fixed {
		lines = append(lines, "text fixed")
	}
	return lines
}

// Summary is a one-line account of a batch of results.
func Summary(results []*validation.Result) string {
	var problems, warnings, failed int
	for _, r := range results {
		problems += len(r.Problems)
		warnings += len(r.Warnings)
		if !r.Valid() {
			failed++
		}
	}
	return fmt.Sprintf("%d %s checked, %d with problems: %s, %s",
		len(results), plural(len(results), "document"), failed,
		countNoun(problems, "problem"), countNoun(warnings, "warning"))
}

func groupTitle(sev validation.Severity, n int) string {
	if sev == validation.SeverityError {
		return countNoun(n, "problem")
	}
	return countNoun(n, "warning")
}

func countSeverity(findings []validation.Finding, sev validation.Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

func countNoun(n int, noun string) string {
	return fmt.Sprintf("%d %s", n, plural(n, noun))
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
