package inspect

import (
	"fmt"
	"strings"

	"github.com/tidwall/sjson"

	"xmlrecords/internal/diagnostic"
	"xmlrecords/internal/json"
	"xmlrecords/internal/record"
)

// Report is the outcome of inspecting one document.
type Report struct {
	Path     string
	Root     string
	Record   string
	Elements []Element
	// Diagnostics holds document-level findings.
	Diagnostics diagnostic.Diagnostics
}

// Conforming returns the number of elements without findings.
func (r *Report) Conforming() int {
	n := 0

	for _, el := range r.Elements {
		if el.Conforms() {
			n++
		}
	}

	return n
}

// Conforms reports whether the document and every element match the schema.
func (r *Report) Conforms() bool {
	return r.Diagnostics.Len() == 0 && r.Conforming() == len(r.Elements)
}

// All returns document findings followed by element findings.
func (r *Report) All() diagnostic.Diagnostics {
	var all diagnostic.Diagnostics

	all.Merge(r.Diagnostics)

	for _, el := range r.Elements {
		all.Merge(el.Findings)
	}

	return all
}

// Values returns the extracted values of every element.
func (r *Report) Values() []*record.Record {
	out := make([]*record.Record, len(r.Elements))
	for i, el := range r.Elements {
		out[i] = el.Values
	}

	return out
}

// ValuesJSON renders the extracted values as an indented JSON array.
func (r *Report) ValuesJSON() ([]byte, error) {
	return json.MarshalIndent(r.Values(), "", "  ")
}

// PrettyPrint lists the findings of every nonconforming element.
func (r *Report) PrettyPrint() string {
	var b strings.Builder

	name := r.Path
	if name == "" {
		name = "<input>"
	}

	for _, d := range r.Diagnostics.All() {
		fmt.Fprintf(&b, "%s\n", d.String())
	}

	for _, el := range r.Elements {
		if el.Conforms() {
			continue
		}

		fmt.Fprintf(&b, "<%s> #%d (line %d):\n", r.Record, el.Index+1, el.Line)

		for _, d := range el.Findings.All() {
			msg := d.Message
			if len(d.Suggestions) > 0 {
				msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(d.Suggestions, ", "))
			}

			fmt.Fprintf(&b, "  %-16s %s\n", d.Code, msg)
		}
	}

	fmt.Fprintf(&b, "%s: %d of %d <%s> element(s) conform\n", name, r.Conforming(), len(r.Elements), r.Record)

	return b.String()
}

// JSON renders the report, including the extracted values, as JSON.
func (r *Report) JSON() ([]byte, error) {
	doc, err := setFields([]byte(`{"elements": [], "findings": []}`),
		field{"path", r.Path},
		field{"root", r.Root},
		field{"record", r.Record},
		field{"conforms", r.Conforms()},
		field{"summary.elements", len(r.Elements)},
		field{"summary.conforming", r.Conforming()},
	)
	if err != nil {
		return nil, fmt.Errorf("building json report: %w", err)
	}

	for _, el := range r.Elements {
		item, err := elementJSON(el)
		if err != nil {
			return nil, fmt.Errorf("building json report: element %d: %w", el.Index+1, err)
		}

		if doc, err = sjson.SetRawBytes(doc, "elements.-1", item); err != nil {
			return nil, fmt.Errorf("building json report: %w", err)
		}
	}

	if doc, err = appendDiagnostics(doc, "findings", r.Diagnostics); err != nil {
		return nil, fmt.Errorf("building json report: %w", err)
	}

	return doc, nil
}

type field struct {
	path  string
	value any
}

func setFields(doc []byte, fields ...field) ([]byte, error) {
	var err error

	for _, f := range fields {
		if doc, err = sjson.SetBytes(doc, f.path, f.value); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func appendDiagnostics(doc []byte, path string, diags diagnostic.Diagnostics) ([]byte, error) {
	for _, d := range diags.All() {
		raw, err := d.MarshalJSON()
		if err != nil {
			return nil, err
		}

		if doc, err = sjson.SetRawBytes(doc, path+".-1", raw); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func elementJSON(el Element) ([]byte, error) {
	item, err := setFields([]byte(`{"findings": []}`),
		field{"index", el.Index},
		field{"line", el.Line},
		field{"conforms", el.Conforms()},
	)
	if err != nil {
		return nil, err
	}

	values, err := el.Values.MarshalJSON()
	if err != nil {
		return nil, err
	}

	if item, err = sjson.SetRawBytes(item, "values", values); err != nil {
		return nil, err
	}

	return appendDiagnostics(item, "findings", el.Findings)
}
