package dataset

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"xmlrecords/internal/json"
	"xmlrecords/internal/record"
)

const yamlIndent = 2

// EncodeJSON renders records as an indented JSON array with a trailing
// newline. Keys keep record order.
func EncodeJSON(records []*record.Record) ([]byte, error) {
	if records == nil {
		records = []*record.Record{}
	}

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}

	return append(b, '\n'), nil
}

// EncodeYAML renders records as one YAML sequence document.
func EncodeYAML(records []*record.Record) ([]byte, error) {
	if records == nil {
		records = []*record.Record{}
	}

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)

	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}

	return buf.Bytes(), nil
}
