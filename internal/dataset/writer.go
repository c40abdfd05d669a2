package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"xmlrecords/internal/log"
	"xmlrecords/internal/partition"
	"xmlrecords/internal/record"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Format is a partition file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// EncodedFile is a rendered partition file.
type EncodedFile struct {
	Filename  string
	Partition string
	Format    Format
	Content   []byte
}

// Summary describes what a Writer wrote.
type Summary struct {
	Records    int
	Partitions int
	Files      []string
}

// Writer groups records by partition and writes one JSON and one YAML file
// per partition on Flush.
type Writer struct {
	dir         string
	partitioner *partition.Partitioner
	namer       *partition.Namer
	logger      log.Logger

	groups  map[string][]*record.Record
	records int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

func WithPartitioner(p *partition.Partitioner) WriterOption {
	return func(w *Writer) {
		if p != nil {
			w.partitioner = p
		}
	}
}

func WithNamer(n *partition.Namer) WriterOption {
	return func(w *Writer) {
		if n != nil {
			w.namer = n
		}
	}
}

func WithLogger(l log.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = log.NewLogger(l).WithFields(log.Fields{log.ModuleField: "dataset_writer"})
	}
}

// NewWriter returns a Writer for dir with the default partitioner and file
// pattern.
func NewWriter(dir string, opts ...WriterOption) (*Writer, error) {
	namer, err := partition.NewNamer(partition.DefaultPattern)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		dir:         dir,
		partitioner: partition.New(),
		namer:       namer,
		logger:      log.NewNoopLogger(),
		groups:      map[string][]*record.Record{},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Add assigns rec to its partition and returns the partition name.
func (w *Writer) Add(rec *record.Record) string {
	p := w.partitioner.Of(rec)
	w.groups[p] = append(w.groups[p], rec)
	w.records++

	return p
}

// Partitions returns the partition names seen so far, sorted.
func (w *Writer) Partitions() []string {
	names := make([]string, 0, len(w.groups))
	for name := range w.groups {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Render encodes every partition, in sorted partition order, JSON first.
func (w *Writer) Render() ([]EncodedFile, error) {
	var (
		files  []EncodedFile
		owners = map[string]string{}
	)

	for _, p := range w.Partitions() {
		base, err := w.namer.Name(p)
		if err != nil {
			return nil, err
		}

		if other, ok := owners[base]; ok {
			return nil, fmt.Errorf("partitions %q and %q both render to file name %q", other, p, base)
		}

		owners[base] = p

		jsonContent, err := EncodeJSON(w.groups[p])
		if err != nil {
			return nil, fmt.Errorf("partition %q: %w", p, err)
		}

		yamlContent, err := EncodeYAML(w.groups[p])
		if err != nil {
			return nil, fmt.Errorf("partition %q: %w", p, err)
		}

		files = append(files,
			EncodedFile{Filename: base + ".json", Partition: p, Format: FormatJSON, Content: jsonContent},
			EncodedFile{Filename: base + ".yaml", Partition: p, Format: FormatYAML, Content: yamlContent},
		)
	}

	return files, nil
}

// Flush renders and writes every partition. Files already written stay on
// disk when a later write fails.
func (w *Writer) Flush() (Summary, error) {
	files, err := w.Render()
	if err != nil {
		return Summary{}, err
	}

	if err := WriteFiles(files, w.dir); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Records:    w.records,
		Partitions: len(w.groups),
		Files:      make([]string, 0, len(files)),
	}

	for _, f := range files {
		summary.Files = append(summary.Files, filepath.Join(w.dir, f.Filename))
		w.logger.Debug("partition file written", log.Fields{
			log.PartitionField: f.Partition,
			log.PathField:      f.Filename,
			"records":          len(w.groups[f.Partition]),
		})
	}

	w.logger.Info("dataset written", log.Fields{
		log.PathField: w.dir,
		"records":     summary.Records,
		"partitions":  summary.Partitions,
	})

	return summary, nil
}

// WriteFiles writes files to dir, creating it if needed.
func WriteFiles(files []EncodedFile, dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	for _, f := range files {
		path := filepath.Join(dir, f.Filename)

		if err := os.WriteFile(path, f.Content, filePerm); err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}

	return nil
}
