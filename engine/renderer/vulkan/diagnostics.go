package vulkan

import (
	"sync/atomic"
	"unsafe"

	"github.com/charmbracelet/log"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prism/engine/core"
)

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityPerformanceWarning
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityPerformanceWarning:
		return "performance-warning"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Diagnostic is one message reported by a validation layer.
type Diagnostic struct {
	Severity Severity
	Layer    string
	Code     int32
	Message  string
}

// DiagnosticSink consumes validation messages. Messages are advisory and
// never change the control flow of the renderer.
type DiagnosticSink interface {
	Receive(d Diagnostic)
}

// DiagnosticSinkFunc adapts a plain function to a DiagnosticSink.
type DiagnosticSinkFunc func(d Diagnostic)

func (f DiagnosticSinkFunc) Receive(d Diagnostic) {
	f(d)
}

// LogSink writes diagnostics to the engine logger.
type LogSink struct{}

func (LogSink) Receive(d Diagnostic) {
	level := log.InfoLevel
	switch d.Severity {
	case SeverityDebug:
		level = log.DebugLevel
	case SeverityWarning, SeverityPerformanceWarning:
		level = log.WarnLevel
	case SeverityError:
		level = log.ErrorLevel
	}
	core.Log(level, d.Message, "severity", d.Severity, "layer", d.Layer, "code", d.Code)
}

type sinkHolder struct {
	sink DiagnosticSink
}

// The debug report callback may run on a driver thread.
var diagnosticSink atomic.Value

func init() {
	diagnosticSink.Store(sinkHolder{sink: LogSink{}})
}

// SetDiagnosticSink replaces the receiver of validation messages. A nil sink
// restores the logger.
func SetDiagnosticSink(sink DiagnosticSink) {
	if sink == nil {
		sink = LogSink{}
	}
	diagnosticSink.Store(sinkHolder{sink: sink})
}

func currentSink() DiagnosticSink {
	return diagnosticSink.Load().(sinkHolder).sink
}

func severityFromFlags(flags vk.DebugReportFlags) Severity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return SeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return SeverityWarning
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return SeverityPerformanceWarning
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		return SeverityDebug
	default:
		return SeverityInfo
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	currentSink().Receive(Diagnostic{
		Severity: severityFromFlags(flags),
		Layer:    pLayerPrefix,
		Code:     messageCode,
		Message:  pMessage,
	})
	// never abort the call that triggered the report
	return vk.Bool32(vk.False)
}
