package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrecords/internal/diagnostic"
	"xmlrecords/internal/record"
)

func codes(diags []diagnostic.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code+":"+d.Field)
	}

	return out
}

func TestUsageDiagnostics(t *testing.T) {
	table := mustTable(t, "id", "person_id", "birth_date", "born")

	usage := NewUsage(table)
	usage.Observe(record.FromFields(
		record.Field{Key: "id", Value: "1"},
		record.Field{Key: "birthdate", Value: "1990-01-01"},
	))
	usage.Observe(record.FromFields(
		record.Field{Key: "id", Value: "2"},
		record.Field{Key: "birthdate", Value: "1991-01-01"},
		record.Field{Key: "note", Value: "x"},
	))

	assert.Equal(t, 2, usage.Records())
	assert.Equal(t, []string{"birthdate", "note"}, usage.UnmappedTags())

	t.Run("passthrough", func(t *testing.T) {
		diags := usage.Diagnostics("people.xml", PolicyPassthrough)
		assert.False(t, diags.HasErrors())

		assert.Equal(t, []string{"unused_mapping:birth_date"}, codes(diags.Warnings))
		assert.Equal(t, []string{"passthrough_field:birthdate", "passthrough_field:note"}, codes(diags.Infos))

		require.Len(t, diags.Warnings, 1)
		assert.Equal(t, []string{"birthdate"}, diags.Warnings[0].Suggestions)
		assert.Equal(t, []string{"birth_date"}, diags.Infos[0].Suggestions)
		assert.Contains(t, diags.Infos[0].Message, "2 record(s)")
	})

	t.Run("drop", func(t *testing.T) {
		diags := usage.Diagnostics("people.xml", PolicyDrop)
		assert.Equal(t,
			[]string{"unused_mapping:birth_date", "dropped_field:birthdate", "dropped_field:note"},
			codes(diags.Warnings))
		assert.Empty(t, diags.Infos)
	})
}

func TestUsageShadowedFields(t *testing.T) {
	table := mustTable(t, "id", "person_id", "birth", "year")

	usage := NewUsage(table)
	usage.Observe(record.FromFields(
		record.Field{Key: "id", Value: "1"},
		record.Field{Key: "person_id", Value: "x"},
		record.Field{Key: "contact", Value: record.FromFields(
			record.Field{Key: "person_id", Value: "B"},
			record.Field{Key: "year", Value: "1990"},
		)},
	))

	assert.Equal(t, []string{"contact"}, usage.UnmappedTags())

	diags := usage.Diagnostics("people.xml", PolicyPassthrough)
	assert.Equal(t,
		[]string{"unused_mapping:birth", "shadowed_field:person_id", "shadowed_field:year"},
		codes(diags.Warnings))
	assert.Contains(t, diags.Warnings[1].Message, "2 time(s)")
	assert.Contains(t, diags.Warnings[1].Message, `"id"`)
}

func TestUsageNoRecords(t *testing.T) {
	usage := NewUsage(mustTable(t, "id", "person_id"))
	diags := usage.Diagnostics("", PolicyPassthrough)
	assert.Zero(t, diags.Len())
}
