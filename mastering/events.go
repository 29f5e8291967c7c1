package mastering

import "fmt"

// Code is a frozen four-digit event identifier: 2xxx info, 3xxx
// warning, 4xxx error. The table is part of the external interface and
// additions are append-only.
type Code int

const (
	CodeLoadingAnalysis     Code = 2003
	CodeMatchingLevels      Code = 2004
	CodeMatchingFrequencies Code = 2005
	CodeCorrectingLevels    Code = 2006
	CodeFinalizeSaving      Code = 2007
	CodeTaskComplete        Code = 2010

	CodeTargetMonoPromoted     Code = 2101
	CodeReferenceResampled     Code = 2202
	CodeTargetClippingDetected Code = 3001
	CodeTargetLimiterDetected  Code = 3002
	CodeTargetResampled        Code = 3003
	CodeLossySource            Code = 3004

	CodeTargetStreamError     Code = 4001
	CodeTargetTooLong         Code = 4002
	CodeTargetTooShort        Code = 4003
	CodeTargetTooManyChannels Code = 4004
	CodeTargetEqualsReference Code = 4005

	CodeReferenceStreamError     Code = 4101
	CodeReferenceTooLong         Code = 4102
	CodeReferenceTooShort        Code = 4103
	CodeReferenceTooManyChannels Code = 4104

	CodeUnknownError           Code = 4201
	CodeInternalValidationFail Code = 4202

	// CodeCancelled is an additive extension of the frozen table: the
	// caller-driven abort path needs a code of its own distinct from
	// CodeInternalValidationFail.
	CodeCancelled Code = 4203
)

// Level is the severity of an emitted event.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// EventSink receives progress and diagnostic events from the pipeline.
// Events are strictly ordered in stage order within a single Process
// call. The zero sink (nil) discards all events.
type EventSink interface {
	Emit(code Code, level Level, message string)
}

// DiscardSink is an EventSink that drops every event; the default when
// Process is called with a nil sink.
type DiscardSink struct{}

// Emit implements EventSink.
func (DiscardSink) Emit(Code, Level, string) {}

// FuncSink adapts a plain function to the EventSink interface.
type FuncSink func(code Code, level Level, message string)

// Emit implements EventSink.
func (f FuncSink) Emit(code Code, level Level, message string) {
	if f != nil {
		f(code, level, message)
	}
}

func emit(sink EventSink, code Code, level Level, format string, args ...any) {
	if sink == nil {
		return
	}

	sink.Emit(code, level, fmt.Sprintf(format, args...))
}
