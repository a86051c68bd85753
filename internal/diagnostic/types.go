package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"packet-generator/internal/common"
)

// Code identifies a kind of diagnostic. A Code is itself an error so it can
// be used as an errors.Is target.
type Code string

const (
	CodeMissingInputDirectory   Code = "MissingInputDirectory"
	CodeMissingCapabilitySymbol Code = "MissingCapabilitySymbol"
	CodeUnsupportedSizeWidth    Code = "UnsupportedSizeWidth"
	CodeRenderFailure           Code = "RenderFailure"
	CodeLoadFailure             Code = "LoadFailure"
	CodeUnsupportedType         Code = "UnsupportedType"
	CodeInvalidMarker           Code = "InvalidMarker"
	CodeInvalidPacketName       Code = "InvalidPacketName"
	CodeDuplicateProtocolID     Code = "DuplicateProtocolID"
	CodeDuplicateDeclaration    Code = "DuplicateDeclaration"
	CodeTypeIDCollision         Code = "TypeIDCollision"
	CodeInvalidConfig           Code = "InvalidConfig"
	CodeIgnoredEmbedding        Code = "IgnoredEmbedding"
)

func (c Code) Error() string { return string(c) }

// Diagnostics holds all diagnostic information from one phase.
type Diagnostics struct {
	Errors   []*Diagnostic
	Warnings []*Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code Code
	// Message is the human-readable description.
	Message string
	// Decl names the declaration this relates to (if any).
	Decl string
	// Field names the field this relates to (if any).
	Field string
	// Position is a file:line:column location (if known).
	Position string
	// Err is the underlying cause (if any).
	Err error
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticWarning DiagnosticSeverity = iota
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Errorf creates an error diagnostic.
func Errorf(code Code, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Wrap creates an error diagnostic around a cause.
func Wrap(code Code, err error, format string, args ...any) *Diagnostic {
	d := Errorf(code, format, args...)
	d.Err = err

	return d
}

// In attaches declaration and field context.
func (d *Diagnostic) In(decl, field string) *Diagnostic {
	d.Decl = decl
	d.Field = field

	return d
}

// At attaches a source position.
func (d *Diagnostic) At(pos string) *Diagnostic {
	d.Position = pos

	return d
}

// Error implements error.
func (d *Diagnostic) Error() string {
	return d.String()
}

// Is matches a Code target.
func (d *Diagnostic) Is(target error) bool {
	code, ok := target.(Code)

	return ok && code == d.Code
}

// Unwrap returns the underlying cause.
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// AddError records an error diagnostic.
func (ds *Diagnostics) AddError(d *Diagnostic) {
	d.Severity = DiagnosticError
	ds.Errors = append(ds.Errors, d)
}

// AddWarning records a warning diagnostic.
func (ds *Diagnostics) AddWarning(code Code, message, decl, field string) {
	ds.Warnings = append(ds.Warnings, &Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		Decl:     decl,
		Field:    field,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (ds *Diagnostics) HasErrors() bool {
	return len(ds.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (ds *Diagnostics) Merge(other Diagnostics) {
	ds.Errors = append(ds.Errors, other.Errors...)
	ds.Warnings = append(ds.Warnings, other.Warnings...)
}

// Err returns all error diagnostics joined into one error, or nil.
func (ds *Diagnostics) Err() error {
	if !ds.HasErrors() {
		return nil
	}

	if len(ds.Errors) == 1 {
		return ds.Errors[0]
	}

	errs := make([]error, len(ds.Errors))
	for i, d := range ds.Errors {
		errs[i] = d
	}

	return errors.Join(errs...)
}

// String returns a formatted diagnostic string.
func (d *Diagnostic) String() string {
	var prefix []string
	if d.Position != "" {
		prefix = append(prefix, d.Position)
	}

	if ctx := d.context(); ctx != "" {
		prefix = append(prefix, ctx)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

func (d *Diagnostic) context() string {
	switch {
	case d.Decl != "" && d.Field != "":
		return d.Decl + "." + d.Field
	case d.Decl != "":
		return d.Decl
	default:
		return d.Field
	}
}
