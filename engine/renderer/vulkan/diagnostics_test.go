package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityFromFlags(t *testing.T) {
	tests := []struct {
		flags vk.DebugReportFlagBits
		want  Severity
	}{
		{vk.DebugReportErrorBit, SeverityError},
		{vk.DebugReportWarningBit, SeverityWarning},
		{vk.DebugReportPerformanceWarningBit, SeverityPerformanceWarning},
		{vk.DebugReportInformationBit, SeverityInfo},
		{vk.DebugReportDebugBit, SeverityDebug},
		{vk.DebugReportErrorBit | vk.DebugReportWarningBit, SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, severityFromFlags(vk.DebugReportFlags(tt.flags)))
		})
	}
}

func TestDebugCallbackForwardsToSink(t *testing.T) {
	var got []Diagnostic
	SetDiagnosticSink(DiagnosticSinkFunc(func(d Diagnostic) {
		got = append(got, d)
	}))
	defer SetDiagnosticSink(nil)

	ret := dbgCallbackFunc(
		vk.DebugReportFlags(vk.DebugReportWarningBit),
		vk.DebugReportObjectType(0),
		0, 0, 42,
		"Validation",
		"something looks off",
		nil)

	// the triggering call must never be aborted
	assert.Equal(t, vk.Bool32(vk.False), ret)
	require.Len(t, got, 1)
	assert.Equal(t, Diagnostic{
		Severity: SeverityWarning,
		Layer:    "Validation",
		Code:     42,
		Message:  "something looks off",
	}, got[0])
}

func TestSetDiagnosticSinkNilRestoresLogger(t *testing.T) {
	SetDiagnosticSink(DiagnosticSinkFunc(func(Diagnostic) {}))
	SetDiagnosticSink(nil)
	assert.IsType(t, LogSink{}, currentSink())

	// the logger sink accepts every severity
	for s := SeverityDebug; s <= SeverityError; s++ {
		LogSink{}.Receive(Diagnostic{Severity: s, Layer: "test", Message: s.String()})
	}
	assert.Equal(t, "performance-warning", SeverityPerformanceWarning.String())
	assert.Equal(t, "unknown", Severity(99).String())
}

func TestDiagnosticFlagsCoverEverySeverity(t *testing.T) {
	flags := diagnosticFlags()
	bits := []vk.DebugReportFlagBits{
		vk.DebugReportErrorBit,
		vk.DebugReportWarningBit,
		vk.DebugReportPerformanceWarningBit,
		vk.DebugReportInformationBit,
		vk.DebugReportDebugBit,
	}
	seen := map[Severity]bool{}
	for _, bit := range bits {
		assert.NotZero(t, flags&vk.DebugReportFlags(bit), "bit 0x%x", bit)
		seen[severityFromFlags(vk.DebugReportFlags(bit))] = true
	}
	for s := SeverityDebug; s <= SeverityError; s++ {
		assert.True(t, seen[s], "severity %s is never delivered", s)
	}
}
