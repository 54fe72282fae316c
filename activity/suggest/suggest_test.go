package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/atera/activity"
)

func decode(t *testing.T, doc string) *activity.Activity {
	t.Helper()
	a, err := activity.Decode([]byte(doc))
	require.NoError(t, err)
	return a
}

func TestSuggestParams(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		wavg   float64
		tokens int
		rank   int
	}{
		{
			name:   "trekking low difficulty",
			doc:    `{"category": "1", "metrics": {"difficoltà": 20, "lunghezza": 10, "impegno fisico": 10}}`,
			wavg:   12.5,
			tokens: 0,
			rank:   0,
		},
		{
			name:   "trekking high",
			doc:    `{"category": "1", "metrics": {"difficoltà": 50, "lunghezza": 50, "impegno fisico": 50}}`,
			wavg:   50,
			tokens: 80,
			rank:   8,
		},
		{
			name:   "ferrata",
			doc:    `{"category": "0", "metrics": {"difficoltà": 30, "esposizione": 30, "tecnica": 30, "impegno fisico": 30}}`,
			wavg:   30,
			tokens: 30,
			rank:   3,
		},
		{
			name:   "ferrata defaults",
			doc:    `{"category": "0"}`,
			wavg:   10,
			tokens: 0,
			rank:   0,
		},
		{
			name:   "numeric strings and junk",
			doc:    `{"category": "0", "metrics": {"difficoltà": "60", "esposizione": "alta", "tecnica": null, "impegno fisico": " 60 "}}`,
			wavg:   (60*25 + 10*15 + 10*25 + 60*35) / 100.0,
			tokens: 60,
			rank:   6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decode(t, tt.doc)

			s, ok := SuggestParams(a, false)
			require.True(t, ok)
			assert.InDelta(t, tt.wavg, s.WeightedAverage, 1e-9)
			assert.Equal(t, tt.tokens, s.Tokens)
			assert.Equal(t, tt.rank, s.Rank)
			assert.Nil(t, a.Attestation, "preview leaves the activity untouched")
		})
	}
}

func TestSuggestParams_Apply(t *testing.T) {
	a := decode(t, `{"category": "1", "metrics": {"difficoltà": 50, "lunghezza": 50, "impegno fisico": 50},
		"attestation": {"latitude": 46.1, "longitude": 11.2, "tokens": 5, "rank": 1}}`)

	_, ok := SuggestParams(a, true)
	require.True(t, ok)
	require.NotNil(t, a.Attestation.Tokens)
	assert.Equal(t, 80.0, *a.Attestation.Tokens)
	assert.Equal(t, 8.0, *a.Attestation.Rank)
	assert.InDelta(t, 46.1, *a.Attestation.Latitude, 1e-9)

	b := decode(t, `{"category": "0"}`)
	_, ok = SuggestParams(b, true)
	require.True(t, ok)
	require.NotNil(t, b.Attestation)
	assert.Equal(t, 0.0, *b.Attestation.Tokens)
}

func TestSuggestParams_OtherCategories(t *testing.T) {
	a := decode(t, `{"category": "2", "metrics": {"difficoltà": 90}}`)

	s, ok := SuggestParams(a, true)
	assert.False(t, ok)
	assert.Equal(t, Suggestion{}, s)
	assert.Nil(t, a.Attestation)

	_, ok = SuggestParams(nil, true)
	assert.False(t, ok)
}
