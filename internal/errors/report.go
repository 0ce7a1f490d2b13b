package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/parusbuild/parusc/internal/ast"
)

// Severity distinguishes errors (which block artifact emission) from
// warnings (which don't, unless strict mode promotes them).
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Report is the canonical structured diagnostic value. Every pass surface
// (parser, resolver, checker, capability analyzer, OIR verifier, parlib)
// accumulates Reports rather than raising exceptions (spec §7,
// "Diagnostics are values").
type Report struct {
	Code     Code
	Phase    string
	Severity Severity
	Message  string
	Span     *ast.Span
	Data     map[string]any
}

// Error implements the error interface.
func (r *Report) Error() string {
	if r == nil {
		return "<nil report>"
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// ReportError wraps a Report so it survives errors.As() unwrapping.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Error()
}

// AsReport extracts a Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if stderrors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap wraps a Report as a Go error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// New builds an error-severity Report.
func New(code Code, phase string, span *ast.Span, msg string, args ...any) *Report {
	return &Report{
		Code:     code,
		Phase:    phase,
		Severity: SeverityError,
		Message:  fmt.Sprintf(msg, args...),
		Span:     span,
		Data:     map[string]any{},
	}
}

// NewWarning builds a warning-severity Report.
func NewWarning(code Code, phase string, span *ast.Span, msg string, args ...any) *Report {
	r := New(code, phase, span, msg, args...)
	r.Severity = SeverityWarning
	return r
}

// WithData attaches a structured data field and returns the same Report
// for chaining.
func (r *Report) WithData(key string, val any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = val
	return r
}

// Bag accumulates diagnostics for a single pass. A pass continues
// gathering diagnostics after an error so a single run surfaces multiple
// issues (spec §7), subject to the caller's own sanity bounds (e.g. the
// parser's aborted_ flag).
type Bag struct {
	Reports []*Report
}

// Add appends r if non-nil.
func (b *Bag) Add(r *Report) {
	if r != nil {
		b.Reports = append(b.Reports, r)
	}
}

// Errors returns only error-severity reports.
func (b *Bag) Errors() []*Report {
	var out []*Report
	for _, r := range b.Reports {
		if r.Severity == SeverityError {
			out = append(out, r)
		}
	}
	return out
}

// Warnings returns only warning-severity reports.
func (b *Bag) Warnings() []*Report {
	var out []*Report
	for _, r := range b.Reports {
		if r.Severity == SeverityWarning {
			out = append(out, r)
		}
	}
	return out
}

// OK reports whether the bag contains no error-severity reports. In
// strict mode, warnings also fail the bag (spec §7: "a strict mode
// promotes warnings to errors").
func (b *Bag) OK(strict bool) bool {
	if len(b.Errors()) > 0 {
		return false
	}
	if strict && len(b.Warnings()) > 0 {
		return false
	}
	return true
}

// Merge appends another bag's reports into b.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.Reports = append(b.Reports, other.Reports...)
}
