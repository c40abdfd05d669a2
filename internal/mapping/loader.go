package mapping

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html/charset"
	"gopkg.in/yaml.v3"
)

// Format is a mapping file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xml":
		return FormatXML, nil
	default:
		return "", &Error{Path: path, Err: ErrUnsupported}
	}
}

// LoadFile loads and validates the mapping table at path. An empty path
// yields the identity table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Identity(), nil
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	t, err := Parse(data, format)
	if err != nil {
		var mErr *Error
		if errors.As(err, &mErr) && mErr.Path == "" {
			mErr.Path = path
		}

		return nil, err
	}

	return t, nil
}

// Parse parses data in the given format.
func Parse(data []byte, format Format) (*Table, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	case FormatXML:
		return ParseXML(data)
	default:
		return nil, &Error{Err: fmt.Errorf("%w: %q", ErrUnsupported, format)}
	}
}

// ParseJSON parses a JSON object {source: target} or a JSON list of
// entries. Keys are read in document order, which also exposes duplicate
// keys that a map decoder would silently collapse.
func ParseJSON(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, &Error{Err: fmt.Errorf("%w: invalid JSON", ErrMalformed)}
	}

	res := gjson.ParseBytes(data)

	var (
		entries []Entry
		err     error
	)

	switch {
	case res.IsObject():
		res.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.String {
				err = &Error{Key: key.String(), Err: fmt.Errorf("%w: target must be a string for source", ErrMalformed)}
				return false
			}

			entries = append(entries, Entry{Source: key.String(), Target: value.String()})

			return true
		})
	case res.IsArray():
		res.ForEach(func(_, item gjson.Result) bool {
			var e Entry

			e, err = entryFromJSON(item)

			entries = append(entries, e)

			return err == nil
		})
	default:
		err = &Error{Err: fmt.Errorf("%w: expected an object or a list", ErrMalformed)}
	}

	if err != nil {
		return nil, err
	}

	return NewTable(entries)
}

func entryFromJSON(item gjson.Result) (Entry, error) {
	if !item.IsObject() {
		return Entry{}, &Error{Err: fmt.Errorf("%w: list items must be objects", ErrMalformed)}
	}

	source := firstString(item, "source", "from")
	target := firstString(item, "target", "to")

	if source == "" || target == "" {
		return Entry{}, &Error{Err: fmt.Errorf("%w: list items need source and target", ErrMalformed)}
	}

	return Entry{Source: source, Target: target}, nil
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(gjson.Escape(k)); v.Type == gjson.String {
			return v.String()
		}
	}

	return ""
}

// ParseYAML parses a YAML mapping {source: target} or a YAML list of
// entries. An empty document yields the identity table.
func ParseYAML(data []byte) (*Table, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}

	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return Identity(), nil
	}

	var entries entryList
	if err := root.Decode(&entries); err != nil {
		var mErr *Error
		if errors.As(err, &mErr) {
			return nil, mErr
		}

		return nil, &Error{Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}

	return NewTable(entries)
}

type xmlMapping struct {
	Maps []xmlMap `xml:",any"`
}

type xmlMap struct {
	From   string `xml:"from,attr"`
	To     string `xml:"to,attr"`
	Source string `xml:"source"`
	Target string `xml:"target"`
}

// ParseXML parses <map from="" to=""/> or <map><source/><target/></map>
// children of the root element. Children carrying neither form are skipped.
func ParseXML(data []byte) (*Table, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var doc xmlMapping
	if err := dec.Decode(&doc); err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}

	entries := make([]Entry, 0, len(doc.Maps))

	for _, m := range doc.Maps {
		switch {
		case m.From != "" && m.To != "":
			entries = append(entries, Entry{Source: m.From, Target: m.To})
		case strings.TrimSpace(m.Source) != "" && strings.TrimSpace(m.Target) != "":
			entries = append(entries, Entry{Source: m.Source, Target: m.Target})
		}
	}

	return NewTable(entries)
}
