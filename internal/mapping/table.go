package mapping

import (
	"errors"
	"fmt"
	"strings"

	"xmlrecords/internal/record"
)

var (
	ErrDuplicateSource = errors.New("duplicate source key")
	ErrDuplicateTarget = errors.New("duplicate target key")
	ErrInvalidName     = errors.New("invalid name")
	ErrMalformed       = errors.New("malformed mapping table")
	ErrUnsupported     = errors.New("unsupported mapping file type")
)

// Error reports a mapping table that cannot be used.
type Error struct {
	Path string
	// Key is the offending source or target name, if any.
	Key string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("mapping error")

	if e.Path != "" {
		b.WriteString(" in " + e.Path)
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

// Policy decides what happens to fields the table does not name.
type Policy string

const (
	PolicyPassthrough Policy = "passthrough"
	PolicyDrop        Policy = "drop"
)

// ParsePolicy parses a policy name; the empty string means passthrough.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyPassthrough:
		return PolicyPassthrough, nil
	case PolicyDrop:
		return p, nil
	default:
		return "", fmt.Errorf("unknown unmapped field policy %q (expected passthrough or drop)", s)
	}
}

// Entry renames one XML tag.
type Entry struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// Table is an immutable, ordered mapping table.
type Table struct {
	entries  []Entry
	bySource map[string]int
	byTarget map[string]int
}

// NewTable validates entries and builds a Table.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		entries:  make([]Entry, 0, len(entries)),
		bySource: make(map[string]int, len(entries)),
		byTarget: make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		e.Source = strings.TrimSpace(e.Source)
		e.Target = strings.TrimSpace(e.Target)

		if !IsValidName(e.Source) {
			return nil, &Error{Key: e.Source, Err: fmt.Errorf("%w: source must be an XML name", ErrInvalidName)}
		}

		if e.Target == "" {
			return nil, &Error{Key: e.Source, Err: fmt.Errorf("%w: empty target for source", ErrInvalidName)}
		}

		if _, ok := t.bySource[e.Source]; ok {
			return nil, &Error{Key: e.Source, Err: ErrDuplicateSource}
		}

		if _, ok := t.byTarget[e.Target]; ok {
			return nil, &Error{Key: e.Target, Err: ErrDuplicateTarget}
		}

		t.bySource[e.Source] = len(t.entries)
		t.byTarget[e.Target] = len(t.entries)
		t.entries = append(t.entries, e)
	}

	return t, nil
}

// Identity returns an empty table: under passthrough it keeps every field.
func Identity() *Table {
	t, _ := NewTable(nil)
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Sources returns the source names in order.
func (t *Table) Sources() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Source
	}

	return out
}

// Targets returns the target names in order.
func (t *Table) Targets() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Target
	}

	return out
}

// TargetOf returns the output key for an XML tag.
func (t *Table) TargetOf(source string) (string, bool) {
	i, ok := t.bySource[source]
	if !ok {
		return "", false
	}

	return t.entries[i].Target, true
}

// SourceOf returns the XML tag for an output key.
func (t *Table) SourceOf(target string) (string, bool) {
	i, ok := t.byTarget[target]
	if !ok {
		return "", false
	}

	return t.entries[i].Source, true
}

// Inverse returns the table with sources and targets swapped.
func (t *Table) Inverse() *Table {
	inv := &Table{
		entries:  make([]Entry, len(t.entries)),
		bySource: make(map[string]int, len(t.entries)),
		byTarget: make(map[string]int, len(t.entries)),
	}

	for i, e := range t.entries {
		inv.entries[i] = Entry{Source: e.Target, Target: e.Source}
		inv.bySource[e.Target] = i
		inv.byTarget[e.Source] = i
	}

	return inv
}

// Apply returns a new record with the table applied to rec. Every target is
// present, in table order; an absent source yields a null value.
func (t *Table) Apply(rec *record.Record, policy Policy) *record.Record {
	out := record.New()

	for _, e := range t.entries {
		v, _ := rec.Get(e.Source)
		out.Set(e.Target, t.rename(v))
	}

	if policy == PolicyDrop {
		return out
	}

	for _, f := range rec.Fields() {
		if _, mapped := t.bySource[f.Key]; mapped {
			continue
		}

		if _, shadowed := t.Shadows(f.Key); shadowed {
			continue
		}

		out.Set(f.Key, t.rename(f.Value))
	}

	return out
}

// Shadows reports whether key is an unmapped name that is also the target
// of another source. Such a field is dropped at every level, since the
// target name belongs to that source; the source is returned.
func (t *Table) Shadows(key string) (string, bool) {
	if _, mapped := t.bySource[key]; mapped {
		return "", false
	}

	return t.SourceOf(key)
}

// rename renames the keys of nested records without null-filling them.
// Shadowed keys are dropped, so every target name in the output comes from
// its source.
func (t *Table) rename(v any) any {
	switch val := v.(type) {
	case *record.Record:
		out := record.New()

		for _, f := range val.Fields() {
			if _, shadowed := t.Shadows(f.Key); shadowed {
				continue
			}

			key := f.Key
			if target, ok := t.TargetOf(f.Key); ok {
				key = target
			}

			out.Set(key, t.rename(f.Value))
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = t.rename(val[i])
		}

		return out
	default:
		return v
	}
}
