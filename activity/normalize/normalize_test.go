package normalize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fix      bool
		expected string
		log      Log
	}{
		{
			name:     "clean text",
			input:    "Salita al rifugio.\nDiscesa per la valle.",
			fix:      true,
			expected: "Salita al rifugio.\nDiscesa per la valle.",
			log:      Log{},
		},
		{
			name:     "spaces around line breaks",
			input:    "a \n b\n c  \nd",
			fix:      true,
			expected: "a\nb\nc\nd",
			log:      Log{LineBreaks: 3, Spaces: 1},
		},
		{
			name:     "repeated spaces",
			input:    "uno  due   tre",
			fix:      true,
			expected: "uno due tre",
			log:      Log{Spaces: 2},
		},
		{
			name:     "apostrophe accents",
			input:    "PERCHE' E' COSI'",
			fix:      true,
			expected: "PERCHÈ È COSÌ",
			log:      Log{Accents: 3},
		},
		{
			name:     "all vowels",
			input:    "A' E' I' O' U'",
			fix:      true,
			expected: "À È Ì Ò Ù",
			log:      Log{Accents: 5},
		},
		{
			name:     "acronym casing",
			input:    "sentiero cai 101, Sat e SAT, caino",
			fix:      true,
			expected: "sentiero CAI 101, SAT e SAT, caino",
			log:      Log{Casing: 2},
		},
		{
			name:     "dry run keeps text",
			input:    "sentiero  cai \n E'",
			fix:      false,
			expected: "sentiero  cai \n E'",
			log:      Log{LineBreaks: 1, Accents: 1, Casing: 1, Spaces: 1},
		},
		{
			name:     "lowercase apostrophe untouched",
			input:    "l'anello e' bello",
			fix:      true,
			expected: "l'anello e' bello",
			log:      Log{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, log := Normalize(tt.input, tt.fix)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, tt.log, log)
		})
	}
}

func TestNormalize_CasingCountMatchesFixes(t *testing.T) {
	inputs := []string{
		"cai",
		"Cai cAi CAI sat Sat SAT",
		"il cai e la sat organizzano, il CAI approva",
		"nessuna sigla",
	}
	wrong := regexp.MustCompile(`(?i)\b(cai|sat)\b`)

	for _, input := range inputs {
		expected := 0
		for _, m := range wrong.FindAllString(input, -1) {
			if m != "CAI" && m != "SAT" {
				expected++
			}
		}

		out, log := Normalize(input, true)
		assert.Equal(t, expected, log.Casing, input)

		for _, m := range wrong.FindAllString(out, -1) {
			assert.Equal(t, strings.ToUpper(m), m, "wrong case left in %q", out)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	input := "Giro  del cai \n con  passaggi E' esposti"
	once, _ := Normalize(input, true)
	twice, log := Normalize(once, true)
	assert.Equal(t, once, twice)
	assert.False(t, log.Changed())
}

func TestLog(t *testing.T) {
	a := Log{LineBreaks: 1, Accents: 2}
	b := Log{Casing: 3, Spaces: 4}

	sum := a.Add(b)
	assert.Equal(t, Log{LineBreaks: 1, Accents: 2, Casing: 3, Spaces: 4}, sum)
	assert.Equal(t, 10, sum.Total())
	assert.True(t, sum.Changed())
	assert.False(t, Log{}.Changed())
	assert.Equal(t, []string{
		"break lines: 1",
		"accents: 2",
		"CAI-SAT uppercase: 3",
		"spaces: 4",
	}, sum.Lines())
}
