package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

const unknownStr = "unknown"

// Diagnostics holds all findings of one run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single finding.
type Diagnostic struct {
	Severity Severity
	// Code is a stable identifier for the kind of finding.
	Code    string
	Message string
	Location
	// Suggestions are likely intended names or fixes.
	Suggestions []string
}

// Location points at what a diagnostic concerns. Zero fields are omitted.
type Location struct {
	File string
	// Record is 1-based; 0 means the whole file.
	Record int
	Field  string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return unknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message string, loc Location, suggestions ...string) {
	d.Add(Diagnostic{Severity: SeverityError, Code: code, Message: message, Location: loc, Suggestions: suggestions})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message string, loc Location, suggestions ...string) {
	d.Add(Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Location: loc, Suggestions: suggestions})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message string, loc Location) {
	d.Add(Diagnostic{Severity: SeverityInfo, Code: code, Message: message, Location: loc})
}

// Add files diag under its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return !d.HasErrors()
}

// Len returns the number of diagnostics of every severity.
func (d *Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// All returns errors, then warnings, then infos.
func (d *Diagnostics) All() []Diagnostic {
	all := make([]Diagnostic, 0, d.Len())
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)

	return append(all, d.Infos...)
}

// Filter returns the diagnostics of every severity matching keep.
func (d *Diagnostics) Filter(keep func(Diagnostic) bool) []Diagnostic {
	var out []Diagnostic

	for _, diag := range d.All() {
		if keep(diag) {
			out = append(out, diag)
		}
	}

	return out
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String formats the location as file#record.field.
func (l Location) String() string {
	var b strings.Builder

	b.WriteString(l.File)

	if l.Record > 0 {
		fmt.Fprintf(&b, "#%d", l.Record)
	}

	if l.Field != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}

		b.WriteString(l.Field)
	}

	return b.String()
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(d.Suggestions, ", "))
	}

	if loc := d.Location.String(); loc != "" {
		return loc + ": " + msg
	}

	return msg
}
