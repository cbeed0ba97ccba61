// Package diag holds the structured diagnostics reported by the type checker.
package diag

import (
	"errors"
	"fmt"

	"github.com/robbyt/go-polyexpr/platform/ast"
)

// Severity of a diagnostic.
type Severity uint8

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Code identifies the kind of problem.
type Code string

const (
	UnknownFunction      Code = "UnknownFunction"
	UnassignableArgument Code = "UnassignableArgument"
	MissingArgument      Code = "MissingArgument"
	TooManyArguments     Code = "TooManyArguments"
)

// Message templates, rendered with fmt against Args.
const (
	UnknownFunctionTemplate      = "unknown function %q; valid functions are: %s"
	UnassignableArgumentTemplate = "argument %d of %q: cannot use %s as %s"
	MissingArgumentTemplate      = "missing argument %d (%s) of %q"
	TooManyArgumentsTemplate     = "too many arguments to %q: expected at most %d, got %d"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Span     ast.Span
	Severity Severity
	Code     Code
	Template string
	Args     []any
}

// Message renders Template with Args.
func (d Diagnostic) Message() string {
	return fmt.Sprintf(d.Template, d.Args...)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Span, d.Severity, d.Code, d.Message())
}

// Collector receives diagnostics in the order they are found.
type Collector interface {
	Report(d Diagnostic)
}

// List is an ordered Collector.
type List []Diagnostic

// Report implements Collector.
func (l *List) Report(d Diagnostic) {
	*l = append(*l, d)
}

// HasErrors reports whether any diagnostic has Error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// WithCode returns the diagnostics with the given code, in order.
func (l List) WithCode(code Code) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Err joins the error diagnostics into one error, or returns nil.
func (l List) Err() error {
	var errz []error
	for _, d := range l {
		if d.Severity == Error {
			errz = append(errz, errors.New(d.String()))
		}
	}
	return errors.Join(errz...)
}
