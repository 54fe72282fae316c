// Package normalize canonicalizes the free text of activity documents:
// whitespace around line breaks, repeated spaces, apostrophe accents on
// capital vowels and the casing of the CAI and SAT acronyms.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// lineBreakRe matches runs of spaces adjacent to a line break.
	lineBreakRe = regexp.MustCompile(` +\n +|\n +| +\n`)
	// spacesRe matches runs of two or more spaces.
	spacesRe = regexp.MustCompile(` {2,}`)
	caiRe    = regexp.MustCompile(`(?i)\bcai\b`)
	satRe    = regexp.MustCompile(`(?i)\bsat\b`)

	// accents maps the ASCII apostrophe digraphs to the accented capitals.
	accents = strings.NewReplacer(
		"A'", "À",
		"E'", "È",
		"I'", "Ì",
		"O'", "Ò",
		"U'", "Ù",
	)
	accentDigraphs = []string{"A'", "E'", "I'", "O'", "U'"}
)

// Log counts the artifacts found in a text.
type Log struct {
	LineBreaks int `json:"line_breaks"`
	Accents    int `json:"accents"`
	Casing     int `json:"casing"`
	Spaces     int `json:"spaces"`
}

// Total is the number of artifacts of every kind.
func (l Log) Total() int {
	return l.LineBreaks + l.Accents + l.Casing + l.Spaces
}

// Changed reports whether any artifact was found.
func (l Log) Changed() bool {
	return l.Total() > 0
}

// Add returns the sum of two logs.
func (l Log) Add(other Log) Log {
	return Log{
		LineBreaks: l.LineBreaks + other.LineBreaks,
		Accents:    l.Accents + other.Accents,
		Casing:     l.Casing + other.Casing,
		Spaces:     l.Spaces + other.Spaces,
	}
}

// Lines renders the log one counter per line.
func (l Log) Lines() []string {
	return []string{
		fmt.Sprintf("break lines: %d", l.LineBreaks),
		fmt.Sprintf("accents: %d", l.Accents),
		fmt.Sprintf("CAI-SAT uppercase: %d", l.Casing),
		fmt.Sprintf("spaces: %d", l.Spaces),
	}
}

// Count reports the artifacts in text without changing it.
func Count(text string) Log {
	var log Log
	log.LineBreaks = len(lineBreakRe.FindAllStringIndex(text, -1))
	for _, d := range accentDigraphs {
		log.Accents += strings.Count(text, d)
	}
	for _, m := range caiRe.FindAllString(text, -1) {
		if m != "CAI" {
			log.Casing++
		}
	}
	for _, m := range satRe.FindAllString(text, -1) {
		if m != "SAT" {
			log.Casing++
		}
	}
	log.Spaces = len(spacesRe.FindAllStringIndex(text, -1))
	return log
}

// Normalize returns the canonical form of text when fix is set, text unchanged
// otherwise, and in both cases the artifacts found in the input.
func Normalize(text string, fix bool) (string, Log) {
	log := Count(text)
	if !fix {
		return text, log
	}
	text = lineBreakRe.ReplaceAllLiteralString(text, "\n")
	text = spacesRe.ReplaceAllLiteralString(text, " ")
	text = accents.Replace(text)
	text = caiRe.ReplaceAllLiteralString(text, "CAI")
	text = satRe.ReplaceAllLiteralString(text, "SAT")
	return text, log
}
