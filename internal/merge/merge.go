// Package merge rebuilds one XML document from a converted dataset, turning
// output keys back into XML tags through the inverse mapping table.
package merge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xmlrecords/internal/dataset"
	"xmlrecords/internal/log"
	"xmlrecords/internal/mapping"
	"xmlrecords/internal/progress"
	"xmlrecords/internal/record"
	"xmlrecords/internal/xmlread"
)

const (
	DefaultRootTag = "people"
	dirPerm        = 0o755
	filePerm       = 0o644
)

var (
	ErrDisagreement = errors.New("json and yaml files disagree")
	ErrMissingKey   = errors.New("record lacks a mapped key")
	ErrInvalidTag   = errors.New("invalid element name")
)

// Error reports a dataset that cannot be merged.
type Error struct {
	Partition string
	Path      string
	// Record is 1-based; 0 means the whole partition.
	Record int
	Key    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("merge error")

	switch {
	case e.Path != "":
		b.WriteString(" in " + e.Path)
	case e.Partition != "":
		fmt.Fprintf(&b, " in partition %q", e.Partition)
	}

	if e.Record > 0 {
		fmt.Fprintf(&b, " record %d", e.Record)
	}

	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Prefer names the authoritative format when both files of a partition
// exist. PreferNone requires them to agree.
type Prefer string

const (
	PreferNone Prefer = ""
	PreferJSON Prefer = "json"
	PreferYAML Prefer = "yaml"
)

// ParsePrefer parses a preference; "" and "none" mean PreferNone.
func ParsePrefer(s string) (Prefer, error) {
	switch p := Prefer(strings.ToLower(strings.TrimSpace(s))); p {
	case PreferNone, "none":
		return PreferNone, nil
	case PreferJSON, PreferYAML:
		return p, nil
	default:
		return "", fmt.Errorf("unknown format preference %q (expected json or yaml)", s)
	}
}

// Summary describes a merge.
type Summary struct {
	Partitions int
	Records    int
}

type Merger struct {
	table     *mapping.Table
	inverse   *mapping.Table
	rootTag   string
	recordTag string
	prefer    Prefer
	logger    log.Logger
	bar       progress.Bar
}

type Option func(*Merger)

func WithRootTag(tag string) Option {
	return func(m *Merger) {
		if tag != "" {
			m.rootTag = tag
		}
	}
}

func WithRecordTag(tag string) Option {
	return func(m *Merger) {
		if tag != "" {
			m.recordTag = tag
		}
	}
}

func WithPrefer(p Prefer) Option {
	return func(m *Merger) {
		m.prefer = p
	}
}

func WithLogger(l log.Logger) Option {
	return func(m *Merger) {
		m.logger = log.NewLogger(l).WithFields(log.Fields{log.ModuleField: "merger"})
	}
}

// WithProgress advances bar once per merged partition.
func WithProgress(bar progress.Bar) Option {
	return func(m *Merger) {
		if bar != nil {
			m.bar = bar
		}
	}
}

// New returns a Merger for datasets converted with table. A nil table is
// the identity.
func New(table *mapping.Table, opts ...Option) *Merger {
	if table == nil {
		table = mapping.Identity()
	}

	m := &Merger{
		table:     table,
		inverse:   table.Inverse(),
		rootTag:   DefaultRootTag,
		recordTag: xmlread.DefaultRecordTag,
		logger:    log.NewNoopLogger(),
		bar:       progress.NoopBar{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Records reads every partition of dir, in sorted partition order, and
// returns its records with the inverse table applied.
func (m *Merger) Records(dir string) ([]*record.Record, Summary, error) {
	parts, err := dataset.ScanPartitions(dir)
	if err != nil {
		return nil, Summary{}, err
	}

	var (
		out     []*record.Record
		summary Summary
	)

	for _, p := range parts {
		recs, err := m.partitionRecords(p)
		if err != nil {
			return nil, Summary{}, err
		}

		for i, rec := range recs {
			if err := m.checkKeys(rec); err != nil {
				err.Partition = p.Name
				err.Record = i + 1

				return nil, Summary{}, err
			}

			out = append(out, m.inverse.Apply(rec, mapping.PolicyPassthrough))
		}

		summary.Partitions++
		summary.Records += len(recs)

		if err := m.bar.Add(1); err != nil {
			m.logger.Warn(err, "updating progress")
		}

		m.logger.Debug("partition merged", log.Fields{log.PartitionField: p.Name, "records": len(recs)})
	}

	return out, summary, nil
}

// partitionRecords picks the records of one partition, reading both files
// when present.
func (m *Merger) partitionRecords(p dataset.Partition) ([]*record.Record, error) {
	if !p.Paired() {
		f := p.Files()[0]
		m.logger.Warn(nil, "partition has a single file", log.Fields{log.PartitionField: p.Name, log.PathField: f.Path})

		return dataset.ReadFile(f)
	}

	switch m.prefer {
	case PreferJSON:
		return m.preferred(p, *p.JSON, *p.YAML)
	case PreferYAML:
		return m.preferred(p, *p.YAML, *p.JSON)
	}

	jsonRecs, err := dataset.ReadFile(*p.JSON)
	if err != nil {
		return nil, err
	}

	yamlRecs, err := dataset.ReadFile(*p.YAML)
	if err != nil {
		return nil, err
	}

	if !sameRecords(jsonRecs, yamlRecs) {
		return nil, &Error{Partition: p.Name, Err: fmt.Errorf("%w: %s and %s", ErrDisagreement, p.JSON.Path, p.YAML.Path)}
	}

	return jsonRecs, nil
}

// preferred reads the authoritative file. The other one is read only to
// warn about a disagreement; its failures are not fatal.
func (m *Merger) preferred(p dataset.Partition, main, other dataset.File) ([]*record.Record, error) {
	recs, err := dataset.ReadFile(main)
	if err != nil {
		return nil, err
	}

	fields := log.Fields{log.PartitionField: p.Name, log.PathField: other.Path}

	otherRecs, err := dataset.ReadFile(other)
	switch {
	case err != nil:
		m.logger.Warn(err, "ignoring unreadable file of preferred partition", fields)
	case !sameRecords(recs, otherRecs):
		m.logger.Warn(ErrDisagreement, fmt.Sprintf("using %s file", main.Format), fields)
	}

	return recs, nil
}

func (m *Merger) checkKeys(rec *record.Record) *Error {
	for _, target := range m.table.Targets() {
		if !rec.Has(target) {
			return &Error{Key: target, Err: ErrMissingKey}
		}
	}

	return nil
}

func sameRecords(a, b []*record.Record) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}

// Merge reads dir and renders the merged XML document.
func (m *Merger) Merge(dir string) ([]byte, Summary, error) {
	recs, summary, err := m.Records(dir)
	if err != nil {
		return nil, Summary{}, err
	}

	doc, err := Encode(recs, m.rootTag, m.recordTag)
	if err != nil {
		return nil, Summary{}, err
	}

	return doc, summary, nil
}

// MergeFile merges dir into the XML file at out, written once at the end.
func (m *Merger) MergeFile(dir, out string) (Summary, error) {
	doc, summary, err := m.Merge(dir)
	if err != nil {
		return Summary{}, err
	}

	if parent := filepath.Dir(out); parent != "" {
		if err := os.MkdirAll(parent, dirPerm); err != nil {
			return Summary{}, &dataset.IOError{Op: "mkdir", Path: parent, Err: err}
		}
	}

	if err := os.WriteFile(out, doc, filePerm); err != nil {
		return Summary{}, &dataset.IOError{Op: "write", Path: out, Err: err}
	}

	m.logger.Info("merged xml written", log.Fields{
		log.PathField: out,
		"records":     summary.Records,
		"partitions":  summary.Partitions,
	})

	return summary, nil
}
