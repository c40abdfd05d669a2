package partition

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultPattern names partition files after the partition value.
const DefaultPattern = "{{ .Partition }}"

var ErrInvalidFileName = errors.New("invalid partition file name")

// NameData is the template input of a Namer.
type NameData struct {
	Partition string
}

// Namer renders the base file name of a partition, without extension.
type Namer struct {
	pattern string
	tmpl    *template.Template
	buf     *bytes.Buffer
}

// NewNamer parses pattern, a text/template with sprig functions. An empty
// pattern means DefaultPattern.
func NewNamer(pattern string) (*Namer, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}

	tmpl, err := template.New("file-pattern").
		Funcs(sprig.FuncMap()).
		Option("missingkey=error").
		Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("parsing file pattern %q: %w", pattern, err)
	}

	return &Namer{
		pattern: pattern,
		tmpl:    tmpl,
		buf:     bytes.NewBuffer(nil),
	}, nil
}

// Pattern returns the template source.
func (n *Namer) Pattern() string {
	return n.pattern
}

// Name renders the file name of partition. The result must be a single,
// non-empty path component.
func (n *Namer) Name(partition string) (string, error) {
	n.buf.Reset()

	if err := n.tmpl.Execute(n.buf, NameData{Partition: partition}); err != nil {
		return "", fmt.Errorf("rendering file pattern for partition %q: %w", partition, err)
	}

	name := strings.TrimSpace(n.buf.String())

	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q for partition %q", ErrInvalidFileName, name, partition)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidFileName, name)
	}

	return name, nil
}
