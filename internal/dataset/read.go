package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"xmlrecords/internal/record"
)

var (
	errNotList    = errors.New("expected a list of records")
	errInvalidDoc = errors.New("invalid JSON document")
)

// ReadFile reads the records of a partition file.
func ReadFile(f File) ([]*record.Record, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: f.Path, Err: err}
	}

	var recs []*record.Record

	switch f.Format {
	case FormatJSON:
		recs, err = ReadJSON(data)
	case FormatYAML:
		recs, err = ReadYAML(data)
	default:
		err = fmt.Errorf("unsupported format %q", f.Format)
	}

	if err != nil {
		return nil, &DecodeError{Path: f.Path, Err: err}
	}

	return recs, nil
}

// ReadJSON reads a JSON array of objects, keeping key order.
func ReadJSON(data []byte) ([]*record.Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidDoc
	}

	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil, errNotList
	}

	var (
		recs []*record.Record
		err  error
	)

	res.ForEach(func(key, value gjson.Result) bool {
		var rec *record.Record

		rec, err = record.FromJSON(value)
		if err != nil {
			err = fmt.Errorf("item %d: %w", len(recs), err)
			return false
		}

		recs = append(recs, rec)

		return true
	})

	if err != nil {
		return nil, err
	}

	return recs, nil
}

// ReadYAML reads a YAML sequence of mappings. A stream of several documents
// is also accepted; each document is then a mapping or a sequence of them.
func ReadYAML(data []byte) ([]*record.Record, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var (
		recs []*record.Record
		docs int
	)

	for {
		var node yaml.Node

		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		docs++

		doc := &node
		if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
			doc = doc.Content[0]
		}

		switch {
		case doc.Kind == yaml.SequenceNode:
			for i, item := range doc.Content {
				rec, err := record.FromYAMLNode(item)
				if err != nil {
					return nil, fmt.Errorf("document %d, item %d: %w", docs, i, err)
				}

				recs = append(recs, rec)
			}
		case doc.Kind == yaml.MappingNode:
			rec, err := record.FromYAMLNode(doc)
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", docs, err)
			}

			recs = append(recs, rec)
		case doc.Kind == yaml.DocumentNode, doc.Kind == yaml.ScalarNode && doc.Tag == "!!null":
			// empty document
		default:
			return nil, fmt.Errorf("document %d: %w", docs, errNotList)
		}
	}

	if docs == 0 {
		return nil, errNotList
	}

	return recs, nil
}
