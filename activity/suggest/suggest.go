// Package suggest derives attestation scores from the metrics of an activity.
package suggest

import (
	"math"
	"strconv"
	"strings"

	"github.com/c360studio/atera/activity"
)

// Metric keys as they appear in activity documents.
const (
	MetricDifficulty = "difficoltà"
	MetricExposure   = "esposizione"
	MetricTechnique  = "tecnica"
	MetricEffort     = "impegno fisico"
	MetricLength     = "lunghezza"
)

// defaultMetric is used for absent or non-numeric metrics.
const defaultMetric = 10.0

// Suggestion is the computed score of an activity.
type Suggestion struct {
	Category        string  `json:"category"`
	WeightedAverage float64 `json:"weighted_average"`
	Tokens          int     `json:"tokens"`
	Rank            int     `json:"rank"`
}

// SuggestParams computes tokens and rank for ferrata and trekking activities.
// ok is false for any other category, in which case the activity is left
// untouched. With apply set the attestation scores are overwritten, creating
// the attestation block when absent.
func SuggestParams(a *activity.Activity, apply bool) (s Suggestion, ok bool) {
	if a == nil {
		return Suggestion{}, false
	}
	switch a.Category {
	case activity.CategoryFerrata:
		s = ferrata(a)
	case activity.CategoryTrekking:
		s = trekking(a)
	default:
		return Suggestion{}, false
	}
	if apply {
		att := a.EnsureAttestation()
		tokens, rank := float64(s.Tokens), float64(s.Rank)
		att.Tokens = &tokens
		att.Rank = &rank
	}
	return s, true
}

func ferrata(a *activity.Activity) Suggestion {
	diff := metric(a, MetricDifficulty)
	exp := metric(a, MetricExposure)
	tec := metric(a, MetricTechnique)
	eff := metric(a, MetricEffort)

	wavg := (diff*25 + exp*15 + tec*25 + eff*35) / 100
	tokens := math.Floor(math.Floor(wavg*wavg/25)/10) * 10
	return suggestion(a.Category, wavg, tokens)
}

func trekking(a *activity.Activity) Suggestion {
	diff := metric(a, MetricDifficulty)
	length := metric(a, MetricLength)
	eff := metric(a, MetricEffort)

	wavg := (diff*25 + length*35 + eff*40) / 100
	tokens := math.Floor(0.8*math.Floor(wavg*wavg/25)/10) * 10
	return suggestion(a.Category, wavg, tokens)
}

func suggestion(category string, wavg, tokens float64) Suggestion {
	return Suggestion{
		Category:        category,
		WeightedAverage: wavg,
		Tokens:          int(tokens),
		Rank:            int(math.Floor(tokens / 10)),
	}
}

// metric reads a numeric metric. Numbers and numeric strings are accepted.
func metric(a *activity.Activity, key string) float64 {
	if a.Metrics == nil {
		return defaultMetric
	}
	v, ok := a.Metrics.Get(key)
	if !ok {
		return defaultMetric
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return defaultMetric
}
