package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/atera/activity"
	"github.com/c360studio/atera/catalog"
)

const validFerrata = `{
	"id": "trincee",
	"category": "0",
	"description": "Ferrata storica",
	"location": {
		"country": "Italia",
		"region": "Veneto",
		"province": "Belluno",
		"zone": "Marmolada",
		"points": {
			"parcheggio passo fedaia": {"latitude": 46.46, "longitude": 11.86},
			"attacco": {"latitude": 46.47, "longitude": 11.87},
			"stacco": {"latitude": 46.48, "longitude": 11.88}
		}
	},
	"images": {"cresta": {"title": "Cresta", "url": "activities/trincee/cresta.webp", "type": "storage"}},
	"relation": {"sections": {
		"0": {"title": "Avvicinamento", "content": "Dal ${[parcheggio]pos(parcheggio passo fedaia)} si segue il sentiero.\nVedi ${[la cresta]ph(cresta)}."},
		"1": {"title": "Ferrata", "content": "Come la ${[ferrata vicina]act(sorapiss)}, ma ${[esposta]b()}."}
	}},
	"tags": {"panoramica": true},
	"attestation": {"latitude": 46.47, "longitude": 11.87, "period": "01-06/30-09", "tokens": 30, "rank": 3}
}`

func definitions() *catalog.Definitions {
	return &catalog.Definitions{
		Categories: map[string]catalog.Category{"0": {Name: "Ferrata"}, "1": {Name: "Trekking"}, "2": {Name: "Arrampicata"}},
		Tags:       map[string]catalog.Tag{"panoramica": {Name: "Panoramica"}, "lago": {Name: "Lago"}},
	}
}

func decode(t *testing.T, doc string) *activity.Activity {
	t.Helper()
	a, err := activity.Decode([]byte(doc))
	require.NoError(t, err)
	return a
}

// mutate decodes the valid fixture and applies a JSON-level change to it.
func mutate(t *testing.T, replacements ...string) *activity.Activity {
	t.Helper()
	require.Equal(t, 0, len(replacements)%2)
	doc := validFerrata
	for i := 0; i < len(replacements); i += 2 {
		require.Contains(t, doc, replacements[i])
		doc = strings.Replace(doc, replacements[i], replacements[i+1], 1)
	}
	return decode(t, doc)
}

func TestValidate_Valid(t *testing.T) {
	result := Validate(decode(t, validFerrata), definitions(), catalog.NewIDSet("sorapiss"), Options{})

	assert.True(t, result.Valid())
	assert.Empty(t, result.Problems)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.Fixed)
}

func TestValidate_References(t *testing.T) {
	a := mutate(t,
		"pos(parcheggio passo fedaia)", "pos(rifugio)",
		"ph(cresta)", "ph(vetta)",
		"act(sorapiss)", "act(tomaselli)",
	)

	result := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{})
	assert.Equal(t, []string{
		"referenced point rifugio does not exist",
		"referenced image vetta does not exist",
		"referenced activity tomaselli does not exist",
	}, result.Problems)
}

func TestValidate_ActivityReferences(t *testing.T) {
	a := decode(t, validFerrata)

	result := Validate(a, definitions(), nil, Options{})
	assert.Empty(t, result.Problems, "unknown id set skips activity references")

	result = Validate(a, definitions(), catalog.NewIDSet(), Options{})
	assert.Equal(t, []string{"referenced activity sorapiss does not exist"}, result.Problems)
}

func TestValidate_UnknownMarkerKind(t *testing.T) {
	a := mutate(t, "${[esposta]b()}", "${[esposta]u()}")

	result := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{})
	assert.Empty(t, result.Problems)
	assert.Equal(t, []string{"Ferrata: unknown marker kind u"}, result.Warnings)
}

func TestValidate_Location(t *testing.T) {
	a := mutate(t,
		`"country": "Italia"`, `"country": ""`,
		`"region": "Veneto",`, ``,
		`"zone": "Marmolada"`, `"zone": null`,
	)

	result := Validate(a, definitions(), nil, Options{})
	assert.Equal(t, []string{
		"location.country is not compiled",
		"location.region is not compiled",
		"location.zone is not compiled",
	}, result.Problems)
}

func TestValidate_PointCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		point string
	}{
		{"zero latitude", `{"latitude": 0, "longitude": 11.87}`},
		{"zero longitude", `{"latitude": 46.47, "longitude": 0}`},
		{"null latitude", `{"latitude": null, "longitude": 11.87}`},
		{"missing longitude", `{"latitude": 46.47}`},
		{"empty point", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mutate(t, `"attacco": {"latitude": 46.47, "longitude": 11.87}`, `"attacco": `+tt.point)

			result := Validate(a, definitions(), nil, Options{})
			assert.Equal(t, []string{"attacco coordinates are not set"}, result.Problems)
		})
	}
}

func TestValidate_Attestation(t *testing.T) {
	attestation := `"attestation": {"latitude": 46.47, "longitude": 11.87, "period": "01-06/30-09", "tokens": 30, "rank": 3}`

	tests := []struct {
		name     string
		value    string
		problems []string
		warnings []string
	}{
		{
			name:     "zero coordinates",
			value:    `"attestation": {"latitude": 0, "longitude": 0, "tokens": 30, "rank": 3}`,
			problems: []string{"attestation coordinates are not set"},
		},
		{
			name:     "malformed period",
			value:    `"attestation": {"latitude": 46.47, "longitude": 11.87, "period": "32-01/01-02", "tokens": 30, "rank": 3}`,
			problems: []string{"attestation period not formatted"},
		},
		{
			name:  "single digit period",
			value: `"attestation": {"latitude": 46.47, "longitude": 11.87, "period": "5-3/20-9", "tokens": 30, "rank": 3}`,
		},
		{
			name:  "empty period",
			value: `"attestation": {"latitude": 46.47, "longitude": 11.87, "period": "", "tokens": 30, "rank": 3}`,
		},
		{
			name:  "fractional scores",
			value: `"attestation": {"latitude": 46.47, "longitude": 11.87, "tokens": 12.5, "rank": 1.0}`,
		},
		{
			name:     "negative fractional score",
			value:    `"attestation": {"latitude": 46.47, "longitude": 11.87, "tokens": 12.5, "rank": -0.5}`,
			warnings: []string{"rank: value is missing"},
		},
		{
			name:     "missing scores",
			value:    `"attestation": {"latitude": 46.47, "longitude": 11.87, "tokens": 0}`,
			warnings: []string{"tokens: value is missing", "rank: value is missing"},
		},
		{
			name:     "disabled skips period and scores",
			value:    `"attestation": {"latitude": 0, "longitude": 11.87, "period": "bad", "enabled": false}`,
			problems: []string{"attestation coordinates are not set"},
		},
		{
			name:  "absent",
			value: `"version": 1`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mutate(t, attestation, tt.value)

			result := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{})
			assert.Equal(t, nonNil(tt.problems), result.Problems)
			assert.Equal(t, nonNil(tt.warnings), result.Warnings)
		})
	}
}

func TestValidate_RequiredPoints(t *testing.T) {
	tests := []struct {
		name     string
		category string
		points   string
		warnings []string
	}{
		{
			name:     "ferrata without any required point",
			category: "0",
			points:   `{"rifugio": {"latitude": 1, "longitude": 1}}`,
			warnings: []string{"parking: point is missing", "attacco: point is missing", "stacco: point is missing"},
		},
		{
			name:     "trekking without parking",
			category: "1",
			points:   `{"rifugio": {"latitude": 1, "longitude": 1}}`,
			warnings: []string{"parking: point is missing"},
		},
		{
			name:     "category exempt from parking",
			category: "2",
			points:   `{}`,
		},
		{
			name:     "substring match",
			category: "0",
			points:   `{"parcheggio alto": {"latitude": 1, "longitude": 1}, "attacco via": {"latitude": 1, "longitude": 1}, "stacco ovest": {"latitude": 1, "longitude": 1}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decode(t, `{"category": "`+tt.category+`", "location": {"country": "Italia", "region": "Veneto", "province": "Belluno", "zone": "Marmolada", "points": `+tt.points+`}}`)

			result := Validate(a, definitions(), nil, Options{})
			assert.Empty(t, result.Problems)
			assert.Equal(t, nonNil(tt.warnings), result.Warnings)
		})
	}
}

func TestValidate_CategoryAndTags(t *testing.T) {
	a := mutate(t,
		`"category": "0"`, `"category": "7"`,
		`"tags": {"panoramica": true}`, `"tags": {"panoramica": true, "mare": false, "deserto": true}`,
	)

	result := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{})
	assert.Equal(t, []string{
		"7 invalid category id",
		"mare tag does not exist",
		"deserto tag does not exist",
	}, result.Problems)
}

func TestValidate_ImageType(t *testing.T) {
	a := mutate(t, `"type": "storage"`, `"type": "ftp"`)

	result := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{})
	assert.Equal(t, []string{`cresta image type "ftp" is not valid`}, result.Problems)
}

func TestValidate_Sections(t *testing.T) {
	long := strings.Repeat("parola ", 60)
	a := decode(t, `{"category": "2", "location": {"country": "Italia", "region": "Veneto", "province": "Belluno", "zone": "Marmolada"},
		"relation": {"sections": {
			"1": {"title": "Lunga", "content": "`+long+`"},
			"0": {"title": "Vuota", "content": ""},
			"2": {"title": "Spezzata", "content": "`+strings.Repeat("parola ", 20)+`\n`+strings.Repeat("parola ", 20)+`"}
		}}}`)

	result := Validate(a, definitions(), nil, Options{})
	assert.Empty(t, result.Problems)
	assert.Equal(t, []string{
		"Lunga: maybe you have few breaklines",
		"Vuota: empty section",
	}, result.Warnings, "sections are checked in document order")
}

func TestValidate_Fix(t *testing.T) {
	a := mutate(t,
		`"description": "Ferrata storica"`, `"description": "Ferrata  storica del cai"`,
		`si segue il sentiero.\nVedi`, `si segue il sentiero sat \n Vedi`,
	)

	dry := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{})
	assert.Equal(t, 4, dry.Log.Total())
	assert.False(t, dry.Fixed)
	assert.Equal(t, "Ferrata  storica del cai", a.Description)

	fixed := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{Fix: true})
	assert.Equal(t, dry.Log, fixed.Log)
	assert.True(t, fixed.Fixed)
	assert.Equal(t, "Ferrata storica del CAI", a.Description)
	assert.Contains(t, a.Sections()[0].Value.Content, "sentiero SAT\nVedi")
	assert.Empty(t, fixed.Problems)

	again := Validate(a, definitions(), catalog.NewIDSet("sorapiss"), Options{Fix: true})
	assert.False(t, again.Fixed)
}

func TestValidate_Exceptions(t *testing.T) {
	tests := []struct {
		name     string
		activity *activity.Activity
		defs     *catalog.Definitions
		expected error
	}{
		{"nil activity", nil, definitions(), ErrNilActivity},
		{"missing location", &activity.Activity{Category: "0"}, definitions(), ErrMissingLocation},
		{"missing definitions", &activity.Activity{Location: &activity.Location{}}, nil, ErrNoDefinitions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.activity, tt.defs, nil, Options{Fix: true})
			require.NotNil(t, result)
			assert.Equal(t, []string{"exception in sanitization: " + tt.expected.Error()}, result.Problems)
			assert.NotNil(t, result.Warnings)
			assert.Empty(t, result.Warnings)
			assert.False(t, result.Valid())
		})
	}
}

func TestValidate_IncompleteDocuments(t *testing.T) {
	docs := []string{
		`{}`,
		`{"location": {}}`,
		`{"location": {"points": {"x": {}}}, "relation": {}}`,
		`{"location": {"points": null}, "relation": {"sections": null}, "images": null, "tags": null}`,
		`{"location": {}, "relation": {"sections": {"0": {}}}, "attestation": {}}`,
	}
	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			a := decode(t, doc)
			var result *Result
			require.NotPanics(t, func() {
				result = Validate(a, definitions(), catalog.NewIDSet(), Options{Fix: true})
			})
			assert.NotNil(t, result.Problems)
			assert.NotNil(t, result.Warnings)
		})
	}
}

func TestResult_Findings(t *testing.T) {
	r := &Result{Problems: []string{"p1"}, Warnings: []string{"w1", "w2"}}
	assert.Equal(t, []Finding{
		{Severity: SeverityError, Message: "p1"},
		{Severity: SeverityWarning, Message: "w1"},
		{Severity: SeverityWarning, Message: "w2"},
	}, r.Findings())

	assert.Less(t, SeverityError.Rank(), SeverityWarning.Rank())
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		period string
		valid  bool
	}{
		{"05-03/20-09", true},
		{"5-3/20-9", true},
		{"31-12/01-01", true},
		{"30-02/01-03", true},
		{"32-01/01-02", false},
		{"00-01/01-02", false},
		{"01-13/01-02", false},
		{"01-01-01-02", false},
		{"01-01/01-02 ", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidPeriod(tt.period))
			_, err := ParsePeriod(tt.period)
			assert.Equal(t, tt.valid, err == nil)
		})
	}

	p, err := ParsePeriod("5-3/20-9")
	require.NoError(t, err)
	assert.Equal(t, Period{StartDay: 5, StartMonth: 3, EndDay: 20, EndMonth: 9}, p)
	assert.Equal(t, "05-03/20-09", p.String())
}

func TestExceptionResultWrapsErrors(t *testing.T) {
	r := ExceptionResult(errors.New("boom"))
	assert.Equal(t, []string{"exception in sanitization: boom"}, r.Problems)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
