package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrecords/internal/mapping"
	"xmlrecords/internal/merge"
	"xmlrecords/internal/partition"
	"xmlrecords/internal/record"
	"xmlrecords/internal/xmlread"
)

type countingBar struct {
	n      int
	closed bool
}

func (b *countingBar) Add(n int) error { b.n += n; return nil }
func (b *countingBar) Close() error    { b.closed = true; return nil }

func scenarioTable(t *testing.T) *mapping.Table {
	t.Helper()

	table, err := mapping.ParseYAML([]byte("id: person_id\nyear: year\n"))
	require.NoError(t, err)

	return table
}

func TestConvertScenario(t *testing.T) {
	dir := t.TempDir()

	xmlPath := filepath.Join(dir, "people.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(`<people><person><id>1</id><year>2020</year></person></people>`), 0o644))

	outDir := filepath.Join(dir, DefaultOutDir)
	bar := &countingBar{}

	res, err := NewConverter(WithProgress(bar)).Convert(context.Background(), Config{
		XMLPath: xmlPath,
		OutDir:  outDir,
		Table:   scenarioTable(t),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 1, res.Partitions)
	assert.Equal(t, 1, bar.n)
	assert.Zero(t, res.Usage.Len())

	content, err := os.ReadFile(filepath.Join(outDir, "2020.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"person_id": "1", "year": "2020"}]`, string(content))

	_, err = os.Stat(filepath.Join(outDir, "2020.yaml"))
	assert.NoError(t, err)
}

func TestConvertMissingTagIsNull(t *testing.T) {
	outDir := t.TempDir()

	_, err := NewConverter().ConvertReader(context.Background(),
		strings.NewReader(`<people><person><id>7</id></person></people>`),
		Config{OutDir: outDir, Table: scenarioTable(t)})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(outDir, partition.Unknown+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"person_id": "7", "year": null}]`, string(content))
}

func TestConvertOptions(t *testing.T) {
	outDir := t.TempDir()
	doc := `<rows>
  <row country="NO"><id>1</id><note>x</note></row>
  <row country="SE"><id>2</id></row>
</rows>`

	res, err := NewConverter().ConvertReader(context.Background(), strings.NewReader(doc), Config{
		OutDir:        outDir,
		Table:         scenarioTable(t),
		RecordTag:     "row",
		Policy:        mapping.PolicyDrop,
		PartitionKeys: []string{"country"},
		PartitionMode: partition.ModeValue,
		FilePattern:   "people_{{ .Partition | lower }}",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Partitions)

	content, err := os.ReadFile(filepath.Join(outDir, "people_unknown.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"person_id": "1", "year": null}, {"person_id": "2", "year": null}]`, string(content),
		"country is dropped before partitioning")

	var codes []string
	for _, d := range res.Usage.Warnings {
		codes = append(codes, d.Code+":"+d.Field)
	}

	assert.Equal(t, []string{"unused_mapping:year", "dropped_field:country", "dropped_field:note"}, codes)
}

func TestConvertValueModePassthrough(t *testing.T) {
	outDir := t.TempDir()

	_, err := NewConverter().ConvertReader(context.Background(),
		strings.NewReader(`<rows><row country="NO"><id>1</id></row></rows>`),
		Config{
			OutDir:        outDir,
			RecordTag:     "row",
			PartitionKeys: []string{"country"},
			PartitionMode: partition.ModeValue,
		})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "NO.json"))
	assert.NoError(t, err)
}

func TestConvertErrors(t *testing.T) {
	t.Run("parse error", func(t *testing.T) {
		_, err := NewConverter().ConvertReader(context.Background(),
			strings.NewReader(`<people><person>`), Config{OutDir: t.TempDir()})

		var parseErr *xmlread.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewConverter().Convert(context.Background(), Config{XMLPath: filepath.Join(t.TempDir(), "absent.xml")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := NewConverter().ConvertReader(context.Background(),
			strings.NewReader(`<people/>`), Config{OutDir: t.TempDir(), FilePattern: "{{"})
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewConverter().ConvertReader(ctx,
			strings.NewReader(`<people><person/></people>`), Config{OutDir: t.TempDir()})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConvertPartitionsByRenamedKey(t *testing.T) {
	outDir := t.TempDir()
	table, err := mapping.ParseYAML([]byte("id: person_id\nbirth: nacimiento\n"))
	require.NoError(t, err)

	res, err := NewConverter().ConvertReader(context.Background(),
		strings.NewReader(`<people><person><id>1</id><birth>1990-1-1</birth></person></people>`),
		Config{OutDir: outDir, Table: table, FilePattern: "people_{{ .Partition }}"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(outDir, "people_1990.json"),
		filepath.Join(outDir, "people_1990.yaml"),
	}, res.Files)

	assert.Equal(t,
		append(slices.Clone(partition.DefaultKeys), "nacimiento"),
		partitionKeys(nil, table))
	assert.Equal(t, []string{"country"}, partitionKeys([]string{"country"}, table))
}

func TestConvertNestedShadowedKey(t *testing.T) {
	outDir := t.TempDir()
	table, err := mapping.ParseYAML([]byte("id: person_id\nbirth: year\n"))
	require.NoError(t, err)

	doc := `<people>
  <person><id>1</id><birth>1990-1-1</birth><contact><id>A</id><person_id>B</person_id></contact></person>
  <person><id>2</id><birth>1991-1-1</birth><contact><id>C</id><city>Oslo</city></contact></person>
</people>`

	res, err := NewConverter().ConvertReader(context.Background(), strings.NewReader(doc),
		Config{OutDir: outDir, Table: table})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(outDir, "1990.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"person_id": "1", "year": "1990-1-1", "contact": {"person_id": "A"}}]`, string(content))

	require.Len(t, res.Usage.Warnings, 1)
	assert.Equal(t, "shadowed_field", res.Usage.Warnings[0].Code)
	assert.Equal(t, "person_id", res.Usage.Warnings[0].Field)

	merged, _, err := merge.New(table).Merge(outDir)
	require.NoError(t, err)

	var got []*record.Record
	for rec, err := range xmlread.NewReader(bytes.NewReader(merged)).Records() {
		require.NoError(t, err)
		got = append(got, rec)
	}

	require.Len(t, got, 2)

	contact, _ := got[0].Get("contact")
	assert.Equal(t, []string{"id"}, contact.(*record.Record).Keys())

	var want []*record.Record
	for rec, err := range xmlread.NewReader(strings.NewReader(doc)).Records() {
		require.NoError(t, err)
		want = append(want, rec)
	}

	assert.True(t, want[1].Equal(got[1]), "unshadowed record must come back unchanged:\n%s", merged)
}

func TestConvertNilLogger(t *testing.T) {
	res, err := NewConverter(WithLogger(nil), WithProgress(nil)).ConvertReader(context.Background(),
		strings.NewReader(`<people><person><id>1</id></person></people>`), Config{OutDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)
}
