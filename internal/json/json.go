// Package json is the JSON codec used across xmlrecords.
package json

import (
	"bytes"

	json "github.com/bytedance/sonic"
	"github.com/tidwall/pretty"
)

func Unmarshal(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent follows encoding/json semantics, including calls to
// json.Marshaler implementations.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.ConfigStd.MarshalIndent(v, prefix, indent)
}

// Valid reports whether b is a valid JSON document.
func Valid(b []byte) bool {
	return json.Valid(b)
}

// Indent reformats the JSON document src, keeping its key order. The result
// has no trailing newline.
func Indent(src []byte, prefix, indent string) []byte {
	out := pretty.PrettyOptions(src, &pretty.Options{
		Width:  80,
		Prefix: prefix,
		Indent: indent,
	})

	return bytes.TrimRight(out, "\n")
}
