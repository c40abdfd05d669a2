package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"xmlrecords/internal/mapping"
)

const peopleXML = `<?xml version="1.0"?>
<people>
  <person><id>1</id><name>Ada</name><year>2020</year></person>
  <person><id>2</id><name>Alan</name><year>2021</year></person>
</people>`

const mappingYAML = `id: person_id
name: full_name
year: year
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := Prepare()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))

	err := cmd.Execute()

	return out.String(), err
}

func TestConvertValidateMerge(t *testing.T) {
	dir := t.TempDir()
	xmlPath := writeFile(t, dir, "people.xml", peopleXML)
	mapPath := writeFile(t, dir, "mapping.yaml", mappingYAML)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "convert", "--xml", xmlPath, "--mapping", mapPath, "--outdir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s) written to 2 partition(s)")

	data, err := os.ReadFile(filepath.Join(outDir, "2020.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"person_id":"1","full_name":"Ada","year":"2020"}]`, compact(t, data))
	assert.FileExists(t, filepath.Join(outDir, "2021.yaml"))

	out, err = run(t, "validate", "--indir", outDir, "--mapping", mapPath)
	require.NoError(t, err)
	assert.Contains(t, out, "4 file(s), 0 failure(s)")

	mergedPath := filepath.Join(dir, "merged.xml")
	out, err = run(t, "merge", "--indir", outDir, "--mapping", mapPath, "--out", mergedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s) from 2 partition(s) merged")

	merged, err := os.ReadFile(mergedPath)
	require.NoError(t, err)
	assert.Contains(t, string(merged), "<people>")
	assert.Contains(t, string(merged), "<id>2</id>")
	assert.Contains(t, string(merged), "<name>Alan</name>")
}

func compact(t *testing.T, data []byte) string {
	t.Helper()

	var b bytes.Buffer
	require.NoError(t, json.Compact(&b, data))

	return b.String()
}

func TestValidateJSONReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2020.json", `[{"id": "1", "year": "2020"}]`)
	writeFile(t, dir, "2020.yaml", "- id: \"1\"\n  year: \"2020\"\n")

	out, err := run(t, "validate", "--indir", dir, "--json")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out))
	assert.Equal(t, dir, gjson.Get(out, "dir").String())
	assert.Equal(t, int64(2), gjson.Get(out, "files.#").Int())
}

func TestValidateFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2020.json", `[{"id": "1"`)
	writeFile(t, dir, "2020.yaml", "- id: \"1\"\n")

	out, err := run(t, "validate", "--indir", dir)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out, "parse_error")
}

func TestSchemaCommand(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", `
record: person
root: people
fields:
  - {name: id, type: integer, required: true}
  - {name: name, type: string}
  - {name: year, type: integer}
`)
	good := writeFile(t, dir, "good.xml", peopleXML)
	bad := writeFile(t, dir, "bad.xml", `<people><person><id>x</id><nmae>Ada</nmae></person></people>`)

	out, err := run(t, "schema", "--xml", good, "--schema", schemaPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 2 <person> element(s) conform")

	out, err = run(t, "schema", "--xml", good, "--schema", schemaPath, "--print")
	require.NoError(t, err)
	assert.Equal(t, "Ada", gjson.Get(out, "0.name").String())
	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())

	out, err = run(t, "schema", "--xml", bad, "--schema", schemaPath)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, out, "unexpected_field")
	assert.Contains(t, out, "missing_field")

	_, err = run(t, "schema", "--xml", good)
	require.ErrorIs(t, err, errMissingSchema)
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	xmlPath := writeFile(t, dir, "people.xml", peopleXML)
	fileDir := filepath.Join(dir, "from-file")
	envDir := filepath.Join(dir, "from-env")
	flagDir := filepath.Join(dir, "from-flag")

	cfgPath := writeFile(t, dir, "xmlrecords.yaml", `
convert:
  xml: `+xmlPath+`
  outdir: `+fileDir+`
  file-pattern: 'people_{{ .Partition }}'
`)

	_, err := run(t, "convert", "-c", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(fileDir, "people_2020.json"))

	t.Setenv("XMLRECORDS_CONVERT_OUTDIR", envDir)

	_, err = run(t, "convert", "-c", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(envDir, "people_2021.yaml"))

	_, err = run(t, "convert", "-c", cfgPath, "--outdir", flagDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(flagDir, "people_2020.yaml"))
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	xmlPath := writeFile(t, dir, "people.xml", peopleXML)
	dupPath := writeFile(t, dir, "dup.yaml", "id: a\nname: a\n")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:    "convert without xml",
			args:    []string{"convert"},
			wantErr: errMissingXML,
		},
		{
			name: "unknown policy",
			args: []string{"convert", "--xml", xmlPath, "--unmapped", "keep"},
		},
		{
			name: "bad mapping",
			args: []string{"convert", "--xml", xmlPath, "--mapping", dupPath},
			check: func(t *testing.T, err error) {
				var mErr *mapping.Error
				require.ErrorAs(t, err, &mErr)
				assert.ErrorIs(t, err, mapping.ErrDuplicateTarget)
			},
		},
		{
			name: "missing config file",
			args: []string{"convert", "-c", filepath.Join(dir, "none.yaml")},
		},
		{
			name: "unknown prefer",
			args: []string{"merge", "--indir", dir, "--prefer", "xml"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, 2, ExitCode(err))

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}

			if tc.check != nil {
				tc.check(t, err)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrValidationFailed))
	assert.Equal(t, 2, ExitCode(errors.New("boom")))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.False(t, isTerminal(f))
}
