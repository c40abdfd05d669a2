// Package schema loads the declared structure of XML records and checks
// field values against it.
//
// A schema names the record element and lists its fields:
//
//	record: person
//	fields:
//	  - name: id
//	    type: integer
//	    required: true
//	  - name: birth
//	    type: date
//	  - email          # shorthand for {name: email, type: any}
package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"xmlrecords/internal/json"
	"xmlrecords/internal/xmlread"
)

var (
	ErrDuplicateField = errors.New("duplicate field")
	ErrUnknownType    = errors.New("unknown field type")
	ErrMalformed      = errors.New("malformed schema")
	ErrUnsupported    = errors.New("unsupported schema file type")
)

// Error reports a schema definition that cannot be used.
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("schema error")

	if e.Path != "" {
		b.WriteString(" in " + e.Path)
	}

	if e.Field != "" {
		fmt.Fprintf(&b, " (field %q)", e.Field)
	}

	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Field is one declared field of a record.
type Field struct {
	Name     string `mapstructure:"name"`
	Type     Type   `mapstructure:"type"`
	Required bool   `mapstructure:"required"`
}

// Schema is the declared structure of the records of one XML document.
type Schema struct {
	// Record is the record element tag.
	Record string `mapstructure:"record"`
	// Root is the expected document element; empty accepts any.
	Root   string  `mapstructure:"root"`
	Fields []Field `mapstructure:"fields"`
}

// LoadFile reads a JSON or YAML schema, chosen by extension.
func LoadFile(path string) (*Schema, error) {
	var format string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = "json"
	case ".yaml", ".yml":
		format = "yaml"
	default:
		return nil, &Error{Path: path, Err: ErrUnsupported}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	s, err := Parse(data, format)
	if err != nil {
		var sErr *Error
		if errors.As(err, &sErr) && sErr.Path == "" {
			sErr.Path = path
		}

		return nil, err
	}

	return s, nil
}

// Parse decodes a schema from JSON ("json") or YAML ("yaml") and validates
// it. Unknown keys are rejected.
func Parse(data []byte, format string) (*Schema, error) {
	var raw map[string]any

	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &Error{Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &Error{Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
		}
	default:
		return nil, &Error{Err: fmt.Errorf("%w: %q", ErrUnsupported, format)}
	}

	if raw == nil {
		return nil, &Error{Err: fmt.Errorf("%w: empty document", ErrMalformed)}
	}

	var s Schema

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  fieldShorthandHook,
		ErrorUnused: true,
		Result:      &s,
	})
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(raw); err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

var fieldType = reflect.TypeOf(Field{})

// fieldShorthandHook turns a bare field name into a Field.
func fieldShorthandHook(from, to reflect.Type, data any) (any, error) {
	if to == fieldType && from.Kind() == reflect.String {
		return map[string]any{"name": data}, nil
	}

	return data, nil
}

// Validate fills defaults and checks names and types.
func (s *Schema) Validate() error {
	s.Record = strings.TrimSpace(s.Record)
	if s.Record == "" {
		s.Record = xmlread.DefaultRecordTag
	}

	seen := make(map[string]struct{}, len(s.Fields))

	for i := range s.Fields {
		f := &s.Fields[i]
		f.Name = strings.TrimSpace(f.Name)

		if f.Name == "" {
			return &Error{Err: fmt.Errorf("%w: field %d has no name", ErrMalformed, i)}
		}

		if _, ok := seen[f.Name]; ok {
			return &Error{Field: f.Name, Err: ErrDuplicateField}
		}

		seen[f.Name] = struct{}{}

		t, err := ParseType(string(f.Type))
		if err != nil {
			return &Error{Field: f.Name, Err: err}
		}

		f.Type = t
	}

	return nil
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}

	return names
}

// Field returns the declared field called name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}
