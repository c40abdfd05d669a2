// Package inspect reads an XML document against a schema definition and
// reports, for every record element, how it deviates from the schema along
// with the values of the declared fields.
package inspect

import (
	"fmt"
	"io"

	"xmlrecords/internal/diagnostic"
	"xmlrecords/internal/log"
	"xmlrecords/internal/match"
	"xmlrecords/internal/record"
	"xmlrecords/internal/schema"
	"xmlrecords/internal/xmlread"
)

// Finding codes.
const (
	CodeMissingField    = "missing_field"
	CodeUnexpectedField = "unexpected_field"
	CodeTypeMismatch    = "type_mismatch"
	CodeEmptyRequired   = "empty_required"
	CodeRootMismatch    = "root_mismatch"
)

const maxSuggestions = 2

// Element is the report of one record element.
type Element struct {
	// Index is the zero-based position among record elements.
	Index int
	Line  int
	// Values holds the schema fields in declaration order, null when the
	// element lacks them.
	Values   *record.Record
	Findings diagnostic.Diagnostics
}

// Conforms reports whether the element matches the schema.
func (e Element) Conforms() bool {
	return e.Findings.Len() == 0
}

type Reader struct {
	schema     *schema.Schema
	attributes bool
	logger     log.Logger
}

type Option func(*Reader)

// WithAttributes controls whether attributes count as fields. It defaults
// to true.
func WithAttributes(enabled bool) Option {
	return func(r *Reader) {
		r.attributes = enabled
	}
}

func WithLogger(l log.Logger) Option {
	return func(r *Reader) {
		r.logger = log.NewLogger(l).WithFields(log.Fields{log.ModuleField: "schema_reader"})
	}
}

func New(s *schema.Schema, opts ...Option) *Reader {
	r := &Reader{
		schema:     s,
		attributes: true,
		logger:     log.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// InspectFile inspects the XML document at path.
func (r *Reader) InspectFile(path string) (*Report, error) {
	xr, err := xmlread.Open(path, r.readerOptions()...)
	if err != nil {
		return nil, err
	}
	defer xr.Close()

	return r.inspect(xr, path)
}

// Inspect inspects the XML document read from src.
func (r *Reader) Inspect(src io.Reader) (*Report, error) {
	return r.inspect(xmlread.NewReader(src, r.readerOptions()...), "")
}

func (r *Reader) readerOptions() []xmlread.Option {
	return []xmlread.Option{
		xmlread.WithRecordTag(r.schema.Record),
		xmlread.WithAttributes(r.attributes),
		xmlread.WithLogger(r.logger),
	}
}

func (r *Reader) inspect(xr *xmlread.Reader, path string) (*Report, error) {
	report := &Report{Path: path, Record: r.schema.Record}

	for el, err := range xr.Elements() {
		if err != nil {
			return nil, err
		}

		report.Elements = append(report.Elements, r.inspectElement(path, el))
	}

	report.Root = xr.Root()

	if r.schema.Root != "" && report.Root != r.schema.Root {
		report.Diagnostics.AddError(CodeRootMismatch,
			fmt.Sprintf("document element is %q, expected %q", report.Root, r.schema.Root),
			diagnostic.Location{File: path})
	}

	r.logger.Info("xml inspected", log.Fields{
		log.PathField: path,
		"elements":    len(report.Elements),
		"conforming":  report.Conforming(),
	})

	return report, nil
}

func (r *Reader) inspectElement(path string, el xmlread.Element) Element {
	res := Element{Index: el.Index, Line: el.Line, Values: record.New()}
	rec := el.Record
	names := r.schema.Names()

	loc := func(field string) diagnostic.Location {
		return diagnostic.Location{File: path, Record: el.Index + 1, Field: field}
	}

	for _, field := range r.schema.Fields {
		value, ok := rec.Get(field.Name)
		res.Values.Set(field.Name, value)

		switch {
		case !ok:
			res.Findings.AddError(CodeMissingField,
				fmt.Sprintf("field %q is missing", field.Name), loc(field.Name),
				match.Suggest(field.Name, rec.Keys(), maxSuggestions)...)
		case field.Required && schema.IsEmpty(value):
			res.Findings.AddError(CodeEmptyRequired,
				fmt.Sprintf("required field %q is empty", field.Name), loc(field.Name))
		default:
			if err := schema.CheckValue(field.Type, value); err != nil {
				res.Findings.AddError(CodeTypeMismatch, err.Error(), loc(field.Name))
			}
		}
	}

	for _, key := range rec.Keys() {
		if _, declared := r.schema.Field(key); declared {
			continue
		}

		res.Findings.AddError(CodeUnexpectedField,
			fmt.Sprintf("field %q is not in the schema", key), loc(key),
			match.Suggest(key, names, maxSuggestions)...)
	}

	return res
}
