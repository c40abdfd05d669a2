package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/tidwall/sjson"

	"xmlrecords/internal/dataset"
	"xmlrecords/internal/diagnostic"
)

// FileResult holds the findings of one partition file.
type FileResult struct {
	Path      string
	Partition string
	Format    dataset.Format
	Records   int
	Failures  diagnostic.Diagnostics
}

// Report is the outcome of validating one directory.
type Report struct {
	Dir   string
	Files []FileResult
	// Diagnostics holds findings that concern partitions rather than one
	// file: pairing, duplicates and JSON/YAML disagreement.
	Diagnostics diagnostic.Diagnostics
}

// All returns every finding: per file, in file order, then per partition.
func (r *Report) All() diagnostic.Diagnostics {
	var all diagnostic.Diagnostics

	for _, f := range r.Files {
		all.Merge(f.Failures)
	}

	all.Merge(r.Diagnostics)

	return all
}

// Failures returns the number of error findings.
func (r *Report) Failures() int {
	all := r.All()
	return len(all.Errors)
}

// HasFailures reports whether any error finding exists. Warnings alone do
// not fail a dataset.
func (r *Report) HasFailures() bool {
	return r.Failures() > 0
}

// PrettyPrint renders a table of files and the list of findings.
func (r *Report) PrettyPrint() string {
	var b strings.Builder

	data := pterm.TableData{{"file", "format", "records", "failures"}}
	for _, f := range r.Files {
		data = append(data, []string{
			f.Path,
			string(f.Format),
			strconv.Itoa(f.Records),
			strconv.Itoa(len(f.Failures.Errors)),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		table = fmt.Sprintf("rendering table: %v", err)
	}

	b.WriteString(table)
	b.WriteString("\n")

	all := r.All()
	for _, d := range all.All() {
		fmt.Fprintf(&b, "%-7s %s\n", d.Severity, d.String())
	}

	fmt.Fprintf(&b, "%d file(s), %d failure(s), %d warning(s)\n", len(r.Files), len(all.Errors), len(all.Warnings))

	return b.String()
}

// JSON renders the report as a JSON document.
func (r *Report) JSON() ([]byte, error) {
	all := r.All()

	b := &jsonBuilder{doc: []byte(`{}`)}
	b.set("dir", r.Dir)
	b.set("valid", !r.HasFailures())
	b.set("summary.files", len(r.Files))
	b.set("summary.failures", len(all.Errors))
	b.set("summary.warnings", len(all.Warnings))
	b.setRaw("files", []byte(`[]`))
	b.setRaw("findings", []byte(`[]`))

	for _, f := range r.Files {
		entry := &jsonBuilder{doc: []byte(`{}`)}
		entry.set("path", f.Path)
		entry.set("partition", f.Partition)
		entry.set("format", string(f.Format))
		entry.set("records", f.Records)
		entry.set("failures", len(f.Failures.Errors))
		b.append("files", entry)
	}

	for _, d := range all.All() {
		b.appendDiagnostic("findings", d)
	}

	if b.err != nil {
		return nil, fmt.Errorf("building json report: %w", b.err)
	}

	return b.doc, nil
}

// jsonBuilder sets values on a JSON document, keeping the first error.
type jsonBuilder struct {
	doc []byte
	err error
}

func (b *jsonBuilder) set(path string, value any) {
	if b.err == nil {
		b.doc, b.err = sjson.SetBytes(b.doc, path, value)
	}
}

func (b *jsonBuilder) setRaw(path string, raw []byte) {
	if b.err == nil {
		b.doc, b.err = sjson.SetRawBytes(b.doc, path, raw)
	}
}

func (b *jsonBuilder) append(path string, item *jsonBuilder) {
	if item.err != nil && b.err == nil {
		b.err = item.err
	}

	b.setRaw(path+".-1", item.doc)
}

func (b *jsonBuilder) appendDiagnostic(path string, d diagnostic.Diagnostic) {
	raw, err := d.MarshalJSON()
	if err != nil && b.err == nil {
		b.err = err
	}

	b.setRaw(path+".-1", raw)
}
