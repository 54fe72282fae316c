package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/atera/activity/normalize"
	"github.com/c360studio/atera/activity/validation"
)

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()

	r.Observe(&validation.Result{
		Problems: []string{"a", "b"},
		Warnings: []string{"w"},
		Log:      normalize.Log{LineBreaks: 3, Casing: 1},
	}, 2*time.Millisecond)
	r.Observe(&validation.Result{Problems: []string{}, Warnings: []string{"w"}}, time.Millisecond)
	r.Observe(&validation.Result{Problems: []string{}, Warnings: []string{}}, time.Millisecond)
	r.Observe(nil, time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(r.validations.WithLabelValues("invalid")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.validations.WithLabelValues("warnings")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.validations.WithLabelValues("valid")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.problems), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.warnings), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.changes.WithLabelValues(KindLineBreaks)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.changes.WithLabelValues(KindCasing)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))

	expected := `
# HELP atera_problems_total Problems found in validated documents.
# TYPE atera_problems_total counter
atera_problems_total 2
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "atera_problems_total"))

	var nilRecorder *Recorder
	assert.NotPanics(t, func() { nilRecorder.Observe(&validation.Result{}, 0) })
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(&validation.Result{Problems: []string{"p"}}, time.Millisecond)

	path := filepath.Join(t.TempDir(), "atera.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `atera_validations_total{outcome="invalid"} 1`)
	assert.Contains(t, string(data), "atera_validation_duration_seconds_count 1")

	assert.Error(t, r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "atera.prom")))
}
