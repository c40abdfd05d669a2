package dataset

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// File is a partition file found on disk.
type File struct {
	// Partition is the file name without extension.
	Partition string
	Format    Format
	Path      string
}

// Partition pairs the files of one partition. Either file may be nil.
type Partition struct {
	Name string
	JSON *File
	YAML *File
	// Extra holds further files of the same partition and format, such as
	// both x.yaml and x.yml.
	Extra []File
}

// Paired reports whether both formats are present.
func (p Partition) Paired() bool {
	return p.JSON != nil && p.YAML != nil
}

// Files returns the present files, JSON first.
func (p Partition) Files() []File {
	var out []File

	if p.JSON != nil {
		out = append(out, *p.JSON)
	}

	if p.YAML != nil {
		out = append(out, *p.YAML)
	}

	return out
}

// FormatOfPath returns the partition file format for a path, if any.
func FormatOfPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Scan lists the partition files directly under dir, sorted by name.
// Subdirectories and other files are ignored.
func Scan(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "scan", Path: dir, Err: err}
	}

	var files []File

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		format, ok := FormatOfPath(e.Name())
		if !ok {
			continue
		}

		files = append(files, File{
			Partition: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Format:    format,
			Path:      filepath.Join(dir, e.Name()),
		})
	}

	slices.SortFunc(files, func(a, b File) int {
		return strings.Compare(a.Path, b.Path)
	})

	return files, nil
}

// Group pairs files by partition, in sorted partition order.
func Group(files []File) []Partition {
	byName := map[string]*Partition{}

	var names []string

	for _, f := range files {
		p, ok := byName[f.Partition]
		if !ok {
			p = &Partition{Name: f.Partition}
			byName[f.Partition] = p
			names = append(names, f.Partition)
		}

		slot := &p.JSON
		if f.Format == FormatYAML {
			slot = &p.YAML
		}

		if *slot != nil {
			p.Extra = append(p.Extra, f)
			continue
		}

		file := f
		*slot = &file
	}

	slices.Sort(names)

	out := make([]Partition, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}

	return out
}

// ScanPartitions is Scan followed by Group.
func ScanPartitions(dir string) ([]Partition, error) {
	files, err := Scan(dir)
	if err != nil {
		return nil, err
	}

	return Group(files), nil
}
