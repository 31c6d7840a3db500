package diag_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/diag"
)

func TestReporterAccumulatesFatalErrors(t *testing.T) {
	r := diag.NewReporter(nil)
	assert.False(t, r.HasErrors())

	r.Info("starting compile")
	r.Warning("deprecated flag used")
	r.FatalError(diag.New(diag.KindIndexOverflow, "string index exceeded 65535 entries", nil))

	require.True(t, r.HasErrors())
	require.Len(t, r.Diagnostics(), 1)
	assert.Equal(t, diag.KindIndexOverflow, r.Diagnostics()[0].Kind)
}

func TestDiagnosticWrapsCauseWithStack(t *testing.T) {
	cause := errors.New("duplicate class Lfoo/Bar; across inputs")
	d := diag.New(diag.KindMalformedInput, "unreconciled duplicate class", cause)

	assert.ErrorIs(t, d, cause)
	assert.Contains(t, d.Error(), "malformed-input")
	assert.Contains(t, d.Error(), "duplicate class")
}
