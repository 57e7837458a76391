package contract

import (
	"bytes"
	"testing"

	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleObserverVerbosity(t *testing.T) {
	var buf bytes.Buffer
	obs := &ConsoleObserver{Verbosity: 0, w: &buf}

	Emit(obs, schema.InfoLevel, "peaks", "found %d peaks", 12)
	assert.Empty(t, buf.String(), "info should be hidden at verbosity 0")

	Emit(obs, schema.WarnLevel, "align", "no strategy succeeded")
	assert.Contains(t, buf.String(), "[align] no strategy succeeded")

	buf.Reset()
	obs.Verbosity = 2
	Emit(obs, schema.DebugLevel, "signal", "window %d", 399)
	assert.Contains(t, buf.String(), "window 399")
}

func TestWithScopeAndCollect(t *testing.T) {
	collector := &CollectingObserver{}
	scoped := WithScope(collector, "A01", "FAM")

	Emit(scoped, schema.WarnLevel, "calib", "peak outside ladder span")
	scoped.Observe(schema.Diagnostic{Level: schema.InfoLevel, Stage: "calib", Dye: "VIC", Message: "kept"})

	got := collector.Diagnostics()
	require.Len(t, got, 2)
	assert.Equal(t, "A01", got[0].Sample)
	assert.Equal(t, "FAM", got[0].Dye)
	assert.Equal(t, "VIC", got[1].Dye, "existing dye is preserved")
	assert.Equal(t, "[calib A01/FAM] peak outside ladder span", FormatDiagnostic(got[0]))
}

func TestMultiObserverAndNil(t *testing.T) {
	a, b := &CollectingObserver{}, &CollectingObserver{}
	multi := MultiObserver{a, nil, b}
	Emit(multi, schema.InfoLevel, "scan", "ok")
	assert.Len(t, a.Diagnostics(), 1)
	assert.Len(t, b.Diagnostics(), 1)

	assert.NotPanics(t, func() { Emit(nil, schema.WarnLevel, "scan", "dropped") })
	assert.NotPanics(t, func() { Emit(WithScope(nil, "s", "d"), schema.WarnLevel, "scan", "dropped") })
}
