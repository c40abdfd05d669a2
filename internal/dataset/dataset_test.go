package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmlrecords/internal/partition"
	"xmlrecords/internal/record"
)

func person(id, year string) *record.Record {
	return record.FromFields(
		record.Field{Key: "person_id", Value: id},
		record.Field{Key: "year", Value: year},
	)
}

func TestWriterScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out_by_year")

	w, err := NewWriter(dir)
	require.NoError(t, err)

	assert.Equal(t, "2020", w.Add(person("1", "2020")))

	summary, err := w.Flush()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Records)
	assert.Equal(t, 1, summary.Partitions)
	assert.Equal(t, []string{filepath.Join(dir, "2020.json"), filepath.Join(dir, "2020.yaml")}, summary.Files)

	jsonContent, err := os.ReadFile(filepath.Join(dir, "2020.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"person_id": "1", "year": "2020"}]`, string(jsonContent))
	assert.Equal(t, byte('\n'), jsonContent[len(jsonContent)-1])

	yamlContent, err := os.ReadFile(filepath.Join(dir, "2020.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "- person_id: \"1\"\n  year: \"2020\"\n", string(yamlContent))
}

func TestWriterGroupsAndOrders(t *testing.T) {
	dir := t.TempDir()

	namer, err := partition.NewNamer("people_{{ .Partition }}")
	require.NoError(t, err)

	w, err := NewWriter(dir, WithNamer(namer))
	require.NoError(t, err)

	w.Add(person("1", "2001"))
	w.Add(person("2", "1999"))
	w.Add(record.FromFields(record.Field{Key: "person_id", Value: "3"}))
	w.Add(person("4", "2001"))

	assert.Equal(t, []string{"1999", "2001", partition.Unknown}, w.Partitions())

	files, err := w.Render()
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Filename)
	}

	assert.Equal(t, []string{
		"people_1999.json", "people_1999.yaml",
		"people_2001.json", "people_2001.yaml",
		"people_unknown.json", "people_unknown.yaml",
	}, names)

	_, err = w.Flush()
	require.NoError(t, err)

	recs, err := ReadFile(File{Format: FormatJSON, Path: filepath.Join(dir, "people_2001.json")})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	id, _ := recs[1].Get("person_id")
	assert.Equal(t, "4", id, "records keep their input order within a partition")
}

func TestWriterIdempotent(t *testing.T) {
	write := func(dir string) map[string]string {
		w, err := NewWriter(dir)
		require.NoError(t, err)

		for _, r := range []*record.Record{person("1", "2020"), person("2", "1990"), person("3", "2020")} {
			w.Add(r)
		}

		_, err = w.Flush()
		require.NoError(t, err)

		out := map[string]string{}

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)

		for _, e := range entries {
			b, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)

			out[e.Name()] = string(b)
		}

		return out
	}

	dir := t.TempDir()
	first := write(dir)
	second := write(dir)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestWriterFileNameCollision(t *testing.T) {
	namer, err := partition.NewNamer("all")
	require.NoError(t, err)

	w, err := NewWriter(t.TempDir(), WithNamer(namer))
	require.NoError(t, err)

	w.Add(person("1", "2020"))
	w.Add(person("2", "2021"))

	_, err = w.Flush()
	assert.ErrorContains(t, err, "both render to file name")
}

func TestWriterIOError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	w, err := NewWriter(filepath.Join(blocker, "sub"))
	require.NoError(t, err)

	w.Add(person("1", "2020"))

	_, err = w.Flush()

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "mkdir", ioErr.Op)
}

func TestRoundTripValues(t *testing.T) {
	rec := record.FromFields(
		record.Field{Key: "person_id", Value: "007"},
		record.Field{Key: "email", Value: nil},
		record.Field{Key: "tags", Value: []any{"a", "b"}},
		record.Field{Key: "address", Value: record.FromFields(
			record.Field{Key: "city", Value: "Oslo"},
			record.Field{Key: "zip", Value: "0150"},
		)},
		record.Field{Key: "quote", Value: "yes: \"no\""},
	)

	jsonContent, err := EncodeJSON([]*record.Record{rec})
	require.NoError(t, err)

	yamlContent, err := EncodeYAML([]*record.Record{rec})
	require.NoError(t, err)

	fromJSON, err := ReadJSON(jsonContent)
	require.NoError(t, err)

	fromYAML, err := ReadYAML(yamlContent)
	require.NoError(t, err)

	require.Len(t, fromJSON, 1)
	require.Len(t, fromYAML, 1)

	assert.True(t, rec.Equal(fromJSON[0]), "json:\n%s", spew.Sdump(fromJSON[0].Fields()))
	assert.True(t, rec.Equal(fromYAML[0]), "yaml:\n%s", spew.Sdump(fromYAML[0].Fields()))
	assert.Equal(t, rec.Keys(), fromJSON[0].Keys())
	assert.Equal(t, rec.Keys(), fromYAML[0].Keys())
}

func TestEncodeEmpty(t *testing.T) {
	j, err := EncodeJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(j))

	y, err := EncodeYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(y))
}

func TestReadYAMLLayouts(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIDs []string
		wantErr bool
	}{
		{name: "sequence", data: "- id: a\n- id: b\n", wantIDs: []string{"a", "b"}},
		{name: "one document per record", data: "id: a\n---\nid: b\n", wantIDs: []string{"a", "b"}},
		{name: "empty documents are skipped", data: "---\nid: a\n---\n", wantIDs: []string{"a"}},
		{name: "scalar", data: "hello\n", wantErr: true},
		{name: "sequence of scalars", data: "- 1\n- 2\n", wantErr: true},
		{name: "empty file", data: "", wantErr: true},
		{name: "syntax error", data: "- id: [a\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := ReadYAML([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			var ids []string
			for _, r := range recs {
				v, _ := r.Get("id")
				ids = append(ids, v.(string))
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestReadJSONErrors(t *testing.T) {
	for _, data := range []string{`{"id": 1}`, `[1, 2]`, `[{"id": 1}`, ``} {
		_, err := ReadJSON([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestScanAndGroup(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"2020.json", "2020.yaml", "1990.yml", "1990.yaml", "notes.txt", "2001.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644))
	}

	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	parts, err := ScanPartitions(dir)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	assert.Equal(t, "1990", parts[0].Name)
	assert.Nil(t, parts[0].JSON)
	require.NotNil(t, parts[0].YAML)
	assert.Equal(t, filepath.Join(dir, "1990.yaml"), parts[0].YAML.Path)
	require.Len(t, parts[0].Extra, 1)
	assert.Equal(t, filepath.Join(dir, "1990.yml"), parts[0].Extra[0].Path)

	assert.Equal(t, "2001", parts[1].Name)
	assert.False(t, parts[1].Paired())

	assert.Equal(t, "2020", parts[2].Name)
	assert.True(t, parts[2].Paired())
	assert.Len(t, parts[2].Files(), 2)
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "absent"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "scan", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
