// Package validate re-reads a converted dataset and checks it against the
// expected fields, an optional schema and the JSON/YAML pairing of every
// partition. Findings are collected, never returned as errors.
package validate

import (
	"fmt"
	"slices"

	"xmlrecords/internal/dataset"
	"xmlrecords/internal/diagnostic"
	"xmlrecords/internal/log"
	"xmlrecords/internal/match"
	"xmlrecords/internal/record"
	"xmlrecords/internal/schema"
)

// Failure codes.
const (
	CodeParseError        = "parse_error"
	CodeMissingField      = "missing_field"
	CodeTypeMismatch      = "type_mismatch"
	CodeEmptyRequired     = "empty_required"
	CodePartitionMismatch = "partition_mismatch"
	CodeUnpairedPartition = "unpaired_partition"
	CodeDuplicateFile     = "duplicate_partition_file"
	CodeEmptyDataset      = "empty_dataset"
)

const maxSuggestions = 2

type Validator struct {
	fields []string
	schema *schema.Schema
	logger log.Logger
}

type Option func(*Validator)

// WithFields sets the keys every record must carry, such as the targets of
// a mapping table.
func WithFields(fields ...string) Option {
	return func(v *Validator) {
		v.fields = append(v.fields, fields...)
	}
}

// WithSchema checks every record against s. Its fields are expected too.
func WithSchema(s *schema.Schema) Option {
	return func(v *Validator) {
		v.schema = s
	}
}

func WithLogger(l log.Logger) Option {
	return func(v *Validator) {
		v.logger = log.NewLogger(l).WithFields(log.Fields{log.ModuleField: "validator"})
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		logger: log.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// expected returns the explicit expected keys, in order, without repeats.
func (v *Validator) expected() []string {
	var out []string

	add := func(name string) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}

	for _, f := range v.fields {
		add(f)
	}

	if v.schema != nil {
		for _, name := range v.schema.Names() {
			add(name)
		}
	}

	return out
}

// ValidateDir checks every partition file directly under dir. Only a
// directory that cannot be listed is an error.
func (v *Validator) ValidateDir(dir string) (*Report, error) {
	parts, err := dataset.ScanPartitions(dir)
	if err != nil {
		return nil, err
	}

	report := &Report{Dir: dir}

	if len(parts) == 0 {
		report.Diagnostics.AddWarning(CodeEmptyDataset, "no .json, .yaml or .yml files found", diagnostic.Location{File: dir})
	}

	for _, p := range parts {
		v.validatePartition(report, p)
	}

	v.logger.Info("dataset validated", log.Fields{
		log.PathField: dir,
		"files":       len(report.Files),
		"failures":    report.Failures(),
	})

	return report, nil
}

func (v *Validator) validatePartition(report *Report, p dataset.Partition) {
	loaded := map[dataset.Format][]*record.Record{}

	for _, f := range p.Files() {
		res, recs, ok := v.validateFile(f)
		report.Files = append(report.Files, res)

		if ok {
			loaded[f.Format] = recs
		}
	}

	for _, extra := range p.Extra {
		report.Diagnostics.AddWarning(CodeDuplicateFile,
			fmt.Sprintf("partition %q has more than one %s file; only the first is checked", p.Name, extra.Format),
			diagnostic.Location{File: extra.Path})
	}

	if !p.Paired() {
		present, missing := dataset.FormatJSON, dataset.FormatYAML
		if p.JSON == nil {
			present, missing = missing, present
		}

		report.Diagnostics.AddWarning(CodeUnpairedPartition,
			fmt.Sprintf("partition %q has a %s file but no %s file", p.Name, present, missing),
			diagnostic.Location{File: p.Files()[0].Path})

		return
	}

	jsonRecs, jsonOK := loaded[dataset.FormatJSON]
	yamlRecs, yamlOK := loaded[dataset.FormatYAML]

	if !jsonOK || !yamlOK {
		return
	}

	if msg, rec := compareRecords(jsonRecs, yamlRecs); msg != "" {
		report.Diagnostics.AddError(CodePartitionMismatch,
			fmt.Sprintf("%s and %s differ: %s", p.JSON.Path, p.YAML.Path, msg),
			diagnostic.Location{File: p.JSON.Path, Record: rec})
	}
}

// validateFile reads one file and checks its records. ok is false when the
// file could not be read.
func (v *Validator) validateFile(f dataset.File) (FileResult, []*record.Record, bool) {
	res := FileResult{Path: f.Path, Partition: f.Partition, Format: f.Format}

	recs, err := dataset.ReadFile(f)
	if err != nil {
		res.Failures.AddError(CodeParseError, err.Error(), diagnostic.Location{File: f.Path})
		v.logger.Warn(err, "unreadable partition file", log.Fields{log.PathField: f.Path})

		return res, nil, false
	}

	res.Records = len(recs)

	expected, inferred := v.expected(), false
	if len(expected) == 0 {
		expected, inferred = unionKeys(recs), true
	}

	for i, rec := range recs {
		v.checkRecord(&res.Failures, f.Path, i+1, rec, expected, inferred)
	}

	return res, recs, true
}

// checkRecord checks one record. Keys missing from an inferred expected set
// are warnings: passthrough output may legitimately vary between records.
func (v *Validator) checkRecord(
	diags *diagnostic.Diagnostics,
	path string,
	index int,
	rec *record.Record,
	expected []string,
	inferred bool,
) {
	keys := rec.Keys()

	severity := diagnostic.SeverityError
	if inferred {
		severity = diagnostic.SeverityWarning
	}

	for _, name := range expected {
		if rec.Has(name) {
			continue
		}

		diags.Add(diagnostic.Diagnostic{
			Severity:    severity,
			Code:        CodeMissingField,
			Message:     fmt.Sprintf("field %q is missing", name),
			Location:    diagnostic.Location{File: path, Record: index, Field: name},
			Suggestions: match.Suggest(name, keys, maxSuggestions),
		})
	}

	if v.schema == nil {
		return
	}

	for _, field := range v.schema.Fields {
		value, ok := rec.Get(field.Name)
		if !ok {
			continue
		}

		loc := diagnostic.Location{File: path, Record: index, Field: field.Name}

		if field.Required && schema.IsEmpty(value) {
			diags.AddError(CodeEmptyRequired, fmt.Sprintf("required field %q is empty", field.Name), loc)
			continue
		}

		if err := schema.CheckValue(field.Type, value); err != nil {
			diags.AddError(CodeTypeMismatch, err.Error(), loc)
		}
	}
}

// unionKeys returns every key seen in recs, in first-seen order.
func unionKeys(recs []*record.Record) []string {
	var (
		out  []string
		seen = map[string]struct{}{}
	)

	for _, rec := range recs {
		for _, k := range rec.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}

			seen[k] = struct{}{}
			out = append(out, k)
		}
	}

	return out
}

// compareRecords describes the first difference between a and b, with the
// 1-based record it concerns, or returns "" when they hold the same records.
func compareRecords(a, b []*record.Record) (string, int) {
	for i := 0; i < min(len(a), len(b)); i++ {
		if !a[i].Equal(b[i]) {
			return fmt.Sprintf("record %d holds different values", i+1), i + 1
		}
	}

	if len(a) != len(b) {
		return fmt.Sprintf("%d records against %d", len(a), len(b)), 0
	}

	return "", 0
}
