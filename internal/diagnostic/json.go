package diagnostic

import (
	"github.com/tidwall/sjson"
)

// MarshalJSON renders d as an object; empty location parts are left out.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	doc := []byte(`{}`)

	type kv struct {
		path  string
		value any
		skip  bool
	}

	for _, p := range []kv{
		{path: "severity", value: d.Severity.String()},
		{path: "code", value: d.Code},
		{path: "message", value: d.Message},
		{path: "file", value: d.File, skip: d.File == ""},
		{path: "record", value: d.Record, skip: d.Record == 0},
		{path: "field", value: d.Field, skip: d.Field == ""},
		{path: "suggestions", value: d.Suggestions, skip: len(d.Suggestions) == 0},
	} {
		if p.skip {
			continue
		}

		var err error

		doc, err = sjson.SetBytes(doc, p.path, p.value)
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}
