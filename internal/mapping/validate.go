package mapping

import (
	"fmt"
	"slices"

	"xmlrecords/internal/diagnostic"
	"xmlrecords/internal/match"
	"xmlrecords/internal/record"
)

const maxSuggestions = 3

// Usage tracks which table entries and which unmapped tags a run has seen.
// It does not change conversion; it only feeds diagnostics.
type Usage struct {
	table    *Table
	records  int
	sources  map[string]int
	unmapped map[string]int
	order    []string
	shadowed map[string]int
	shadows  []string
}

// NewUsage starts tracking the use of t.
func NewUsage(t *Table) *Usage {
	return &Usage{
		table:    t,
		sources:  map[string]int{},
		unmapped: map[string]int{},
		shadowed: map[string]int{},
	}
}

// Observe records the top-level fields of one source record and the
// shadowed fields at any depth.
func (u *Usage) Observe(rec *record.Record) {
	u.records++

	for _, f := range rec.Fields() {
		u.observeNested(f.Value)

		if _, ok := u.table.TargetOf(f.Key); ok {
			u.sources[f.Key]++
			continue
		}

		if u.observeShadowed(f.Key) {
			continue
		}

		if _, seen := u.unmapped[f.Key]; !seen {
			u.order = append(u.order, f.Key)
		}

		u.unmapped[f.Key]++
	}
}

func (u *Usage) observeNested(v any) {
	switch val := v.(type) {
	case *record.Record:
		for _, f := range val.Fields() {
			u.observeShadowed(f.Key)
			u.observeNested(f.Value)
		}
	case []any:
		for _, item := range val {
			u.observeNested(item)
		}
	}
}

func (u *Usage) observeShadowed(key string) bool {
	if _, ok := u.table.Shadows(key); !ok {
		return false
	}

	if _, seen := u.shadowed[key]; !seen {
		u.shadows = append(u.shadows, key)
	}

	u.shadowed[key]++

	return true
}

// Records returns the number of observed records.
func (u *Usage) Records() int {
	return u.records
}

// Diagnostics reports table entries that matched no record, shadowed tags
// and unmapped tags, the latter as warnings under drop and infos under
// passthrough. Unmapped tags carry suggestions from the unused sources when
// the names are close.
func (u *Usage) Diagnostics(file string, policy Policy) diagnostic.Diagnostics {
	var (
		res    diagnostic.Diagnostics
		unused []string
	)

	if u.records == 0 {
		return res
	}

	for _, src := range u.table.Sources() {
		if u.sources[src] == 0 {
			unused = append(unused, src)
		}
	}

	for _, src := range unused {
		target, _ := u.table.TargetOf(src)
		res.AddWarning("unused_mapping",
			fmt.Sprintf("no record has tag %q; %q is null everywhere", src, target),
			diagnostic.Location{File: file, Field: src},
			match.Suggest(src, u.order, maxSuggestions)...)
	}

	for _, key := range u.shadows {
		src, _ := u.table.Shadows(key)
		res.AddWarning("shadowed_field",
			fmt.Sprintf("tag %q dropped %d time(s): the name is the target of %q", key, u.shadowed[key], src),
			diagnostic.Location{File: file, Field: key})
	}

	for _, key := range u.order {
		loc := diagnostic.Location{File: file, Field: key}
		suggestions := match.Suggest(key, unused, maxSuggestions)
		count := u.unmapped[key]

		if policy == PolicyDrop {
			res.AddWarning("dropped_field",
				fmt.Sprintf("unmapped tag %q dropped from %d record(s)", key, count), loc, suggestions...)

			continue
		}

		res.Add(diagnostic.Diagnostic{
			Severity:    diagnostic.SeverityInfo,
			Code:        "passthrough_field",
			Message:     fmt.Sprintf("unmapped tag %q kept as is in %d record(s)", key, count),
			Location:    loc,
			Suggestions: suggestions,
		})
	}

	return res
}

// UnmappedTags returns the unmapped tags in first-seen order.
func (u *Usage) UnmappedTags() []string {
	return slices.Clone(u.order)
}
