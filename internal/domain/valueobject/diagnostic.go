package valueobject

import (
	"fmt"
	"strings"
)

// DiagnosticCode is a stable, space-terminated prefix of every diagnostic message.
type DiagnosticCode string

const (
	CodeParseError    DiagnosticCode = "P663"
	CodeIgnoredField  DiagnosticCode = "P664"
	CodeUnknownField  DiagnosticCode = "P666"
	CodeInvalidValue  DiagnosticCode = "P667"
	CodeMarkerField   DiagnosticCode = "P668"
	CodeMissingField  DiagnosticCode = "P669"
	DefaultCheckerTag                = "polarion_checks"
)

// AllDiagnosticCodes lists every code a checker may emit.
func AllDiagnosticCodes() []DiagnosticCode {
	return []DiagnosticCode{
		CodeParseError, CodeIgnoredField, CodeUnknownField,
		CodeInvalidValue, CodeMarkerField, CodeMissingField,
	}
}

// DocstringError is a linter-facing diagnostic.
type DocstringError struct {
	Lineno  int
	Column  int
	Message string
	Checker string
}

// Code returns the code the message starts with.
func (e DocstringError) Code() DiagnosticCode {
	code, _, _ := strings.Cut(e.Message, " ")
	return DiagnosticCode(code)
}

// Format renders the diagnostic in the flake8 "path:line:col: message" layout.
// Columns are printed 1-based.
func (e DocstringError) Format(path string) string {
	return fmt.Sprintf("%s:%d:%d: %s", path, e.Lineno, e.Column+1, e.Message)
}

func newDiagnostic(lineno, column int, checker string, code DiagnosticCode, format string, args ...any) DocstringError {
	return DocstringError{
		Lineno:  lineno,
		Column:  column,
		Message: string(code) + " " + fmt.Sprintf(format, args...),
		Checker: checker,
	}
}

// ParseErrorDiagnostic maps a parse-time error.
func ParseErrorDiagnostic(rec ErrorRecord, checker string) DocstringError {
	return newDiagnostic(rec.Lineno, rec.Column, checker, CodeParseError, "%s", rec.Message)
}

// IgnoredDiagnostic maps an ignored field.
func IgnoredDiagnostic(rec IgnoredRecord, checker string) DocstringError {
	return newDiagnostic(rec.Lineno, rec.Column, checker, CodeIgnoredField,
		"Ignoring field %q: %s", rec.Field, rec.Reason)
}

// UnknownDiagnostic maps an unrecognized field.
func UnknownDiagnostic(rec FieldRecord, checker string) DocstringError {
	return newDiagnostic(rec.Lineno, rec.Column, checker, CodeUnknownField, "Unknown field %q", rec.Field)
}

// InvalidDiagnostic maps an invalid value.
func InvalidDiagnostic(rec InvalidRecord, checker string) DocstringError {
	if rec.NotList {
		return newDiagnostic(rec.Lineno, rec.Column, checker, CodeInvalidValue,
			"Invalid value of the %q field, expected a list", rec.Field)
	}
	return newDiagnostic(rec.Lineno, rec.Column, checker, CodeInvalidValue,
		"Invalid value %q of the %q field", rec.Value, rec.Field)
}

// MarkerDiagnostic maps a field that belongs to a marker.
func MarkerDiagnostic(rec MarkerRecord, checker string) DocstringError {
	return newDiagnostic(rec.Lineno, rec.Column, checker, CodeMarkerField,
		"Field %q should be handled by the \"@pytest.mark.%s\" marker", rec.Field, rec.Marker)
}

// MissingDiagnostic maps a missing required field.
func MissingDiagnostic(lineno, column int, field, checker string) DocstringError {
	return newDiagnostic(lineno, column, checker, CodeMissingField, "Missing required field %q", field)
}
