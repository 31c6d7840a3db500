// Package diag implements the Reporter/Diagnostic taxonomy named in
// spec.md §7: info/warning/error/fatalError severities backed by a
// structured logger, plus the four fatal diagnostic kinds the compiler core
// raises (malformed input, index overflow, invariant violation,
// configuration error). Grounded on the teacher's plain-stderr error
// reporting generalized to the structured-logging style used across the
// wider retrieval pack (tektoncd/chains, DataDog/dd-trace-go).
package diag

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Kind tags which of the four taxonomy members a Diagnostic belongs to
// (spec.md §7).
type Kind int

const (
	KindMalformedInput Kind = iota
	KindIndexOverflow
	KindInvariantViolation
	KindConfigurationError
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed-input"
	case KindIndexOverflow:
		return "index-overflow"
	case KindInvariantViolation:
		return "invariant-violation"
	case KindConfigurationError:
		return "configuration-error"
	default:
		return "unknown"
	}
}

// Diagnostic is a fatal compilation error: a taxonomy Kind, a human-readable
// message, and the underlying cause (wrapped with pkg/errors.WithStack at
// construction so the Reporter can log a creation-site stack trace).
type Diagnostic struct {
	Kind    Kind
	Message string
	Cause   error
}

func (d *Diagnostic) Error() string {
	if d.Cause != nil {
		return d.Kind.String() + ": " + d.Message + ": " + d.Cause.Error()
	}
	return d.Kind.String() + ": " + d.Message
}

func (d *Diagnostic) Unwrap() error { return d.Cause }

// New constructs a Diagnostic, wrapping cause (if non-nil) with a stack
// trace. cause may be nil for a diagnostic with no underlying Go error.
func New(kind Kind, message string, cause error) *Diagnostic {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Diagnostic{Kind: kind, Message: message, Cause: cause}
}

// Reporter is the zap-backed sink spec.md §7 names: info/warning/error/
// fatalError. Only fatalError accumulates a Diagnostic; the other three are
// plain structured log lines.
type Reporter struct {
	log   *zap.Logger
	fatal []*Diagnostic
}

// NewReporter wraps an existing logger. A nil logger is replaced with
// zap.NewNop() so a Reporter is always safe to call into.
func NewReporter(log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{log: log}
}

func (r *Reporter) Info(msg string, fields ...zap.Field) {
	r.log.Info(msg, fields...)
}

func (r *Reporter) Warning(msg string, fields ...zap.Field) {
	r.log.Warn(msg, fields...)
}

func (r *Reporter) Error(msg string, fields ...zap.Field) {
	r.log.Error(msg, fields...)
}

// FatalError logs d at error level and appends it to the accumulated
// diagnostic list HasErrors/Diagnostics expose, letting a caller (the
// pipeline driver) decide whether to keep batching work or abort once any
// fatal diagnostic has been raised (spec.md §7).
func (r *Reporter) FatalError(d *Diagnostic) {
	r.log.Error(d.Message, zap.String("kind", d.Kind.String()), zap.Error(d.Cause))
	r.fatal = append(r.fatal, d)
}

// HasErrors reports whether any fatalError has been reported.
func (r *Reporter) HasErrors() bool { return len(r.fatal) > 0 }

// Diagnostics returns every fatalError reported so far, in report order.
func (r *Reporter) Diagnostics() []*Diagnostic {
	out := make([]*Diagnostic, len(r.fatal))
	copy(out, r.fatal)
	return out
}
