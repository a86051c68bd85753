package diagnostic

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	errorColor    = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow, color.Bold)
	codeColor     = color.New(color.FgMagenta)
	locationColor = color.New(color.FgCyan)
)

// Fprint writes every diagnostic contained in err to w, one per line.
// Errors that are not diagnostics are printed as plain errors.
func Fprint(w io.Writer, err error) {
	for _, e := range flatten(err) {
		var d *Diagnostic
		if errors.As(e, &d) {
			FprintDiagnostic(w, d)
			continue
		}

		fmt.Fprintf(w, "%s %s\n", errorColor.Sprint("error:"), e)
	}
}

// FprintWarnings writes the warnings of ds to w.
func FprintWarnings(w io.Writer, ds Diagnostics) {
	for _, d := range ds.Warnings {
		FprintDiagnostic(w, d)
	}
}

// FprintDiagnostic writes one diagnostic to w.
func FprintDiagnostic(w io.Writer, d *Diagnostic) {
	severity := errorColor
	if d.Severity == DiagnosticWarning {
		severity = warningColor
	}

	fmt.Fprint(w, severity.Sprintf("%s:", d.Severity))

	if d.Position != "" {
		fmt.Fprint(w, " ", locationColor.Sprint(d.Position))
	}

	if ctx := d.context(); ctx != "" {
		fmt.Fprint(w, " ", locationColor.Sprint(ctx))
	}

	fmt.Fprintf(w, " %s %s", codeColor.Sprintf("[%s]", d.Code), d.Message)

	if d.Err != nil {
		fmt.Fprintf(w, ": %v", d.Err)
	}

	fmt.Fprintln(w)
}

// flatten expands errors.Join trees into their leaves. Single-error wrappers
// are looked through only when they hide a join.
func flatten(err error) []error {
	if err == nil {
		return nil
	}

	if _, ok := err.(*Diagnostic); ok {
		return []error{err}
	}

	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		var out []error
		for _, inner := range e.Unwrap() {
			out = append(out, flatten(inner)...)
		}

		return out
	case interface{ Unwrap() error }:
		if inner := flatten(e.Unwrap()); len(inner) > 1 {
			return inner
		}
	}

	return []error{err}
}
