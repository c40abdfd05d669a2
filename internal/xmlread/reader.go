// Package xmlread turns an XML document into a lazy sequence of records.
package xmlread

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"xmlrecords/internal/log"
	"xmlrecords/internal/record"
)

// DefaultRecordTag is the element that delimits one record.
const DefaultRecordTag = "person"

// ErrConsumed is yielded when a Reader is iterated a second time.
var ErrConsumed = errors.New("record sequence already consumed")

// ParseError reports a document that is not well-formed XML.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString("parse error")

	if e.Path != "" {
		b.WriteString(" in " + e.Path)
	}

	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}

	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Element is one record element with its position in the document.
type Element struct {
	// Index is the zero-based position among record elements.
	Index int
	// Line is the line of the element start tag.
	Line   int
	Record *record.Record
}

// Reader yields the record elements of one XML document.
type Reader struct {
	dec        *xml.Decoder
	closer     io.Closer
	path       string
	recordTag  string
	root       string
	attributes bool
	consumed   bool
	logger     log.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithRecordTag sets the local name of record elements.
func WithRecordTag(tag string) Option {
	return func(r *Reader) {
		if tag != "" {
			r.recordTag = tag
		}
	}
}

// WithAttributes controls whether attributes of record elements become
// fields. It defaults to true.
func WithAttributes(enabled bool) Option {
	return func(r *Reader) {
		r.attributes = enabled
	}
}

func WithLogger(l log.Logger) Option {
	return func(r *Reader) {
		r.logger = log.NewLogger(l).WithFields(log.Fields{log.ModuleField: "xml_reader"})
	}
}

// NewReader reads records from src. The document charset is honored when
// it is declared in the XML prolog.
func NewReader(src io.Reader, opts ...Option) *Reader {
	dec := xml.NewDecoder(src)
	dec.CharsetReader = charset.NewReaderLabel

	r := &Reader{
		dec:        dec,
		recordTag:  DefaultRecordTag,
		attributes: true,
		logger:     log.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Open opens the XML file at path. The caller must Close the Reader.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening xml file: %w", err)
	}

	r := NewReader(f, opts...)
	r.closer = f
	r.path = path

	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// Root returns the document element name once iteration has reached it.
func (r *Reader) Root() string {
	return r.root
}

// Records yields every record of the document. Iteration stops at the first
// error; the sequence cannot be restarted.
func (r *Reader) Records() iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		for el, err := range r.Elements() {
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(el.Record, nil) {
				return
			}
		}
	}
}

// Elements is like Records and also reports element positions.
func (r *Reader) Elements() iter.Seq2[Element, error] {
	return func(yield func(Element, error) bool) {
		if r.consumed {
			yield(Element{}, ErrConsumed)
			return
		}

		r.consumed = true

		index := 0
		sawRoot := false

		for {
			line, _ := r.dec.InputPos()

			tok, err := r.dec.Token()
			if errors.Is(err, io.EOF) {
				if !sawRoot {
					yield(Element{}, r.parseError(line, errors.New("no root element")))
				}

				r.logger.Debug("xml document read", log.Fields{"records": index})

				return
			}

			if err != nil {
				yield(Element{}, r.wrap(err))
				return
			}

			start, ok := tok.(xml.StartElement)
			if !ok {
				continue
			}

			if !sawRoot {
				sawRoot = true
				r.root = start.Name.Local
			}

			if start.Name.Local != r.recordTag {
				continue
			}

			startLine, _ := r.dec.InputPos()

			rec, err := r.readRecord(start)
			if err != nil {
				yield(Element{}, r.wrap(err))
				return
			}

			if !yield(Element{Index: index, Line: startLine, Record: rec}, nil) {
				return
			}

			index++
		}
	}
}

// readRecord consumes the subtree of a record element.
func (r *Reader) readRecord(start xml.StartElement) (*record.Record, error) {
	rec := record.New()

	if r.attributes {
		for _, attr := range start.Attr {
			if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
				continue
			}

			rec.Set(attr.Name.Local, attr.Value)
		}
	}

	if err := r.readChildren(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// readChildren reads child elements until the parent end tag. Leaf children
// become trimmed strings, children with elements become nested records and
// repeated tags become lists.
func (r *Reader) readChildren(rec *record.Record) error {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return unexpectedEOF(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			v, err := r.readValue()
			if err != nil {
				return err
			}

			addValue(rec, t.Name.Local, v)
		case xml.EndElement:
			return nil
		}
	}
}

// readValue reads the element whose start tag was just consumed.
func (r *Reader) readValue() (any, error) {
	var (
		text   strings.Builder
		nested *record.Record
	)

	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if nested == nil {
				nested = record.New()
			}

			v, err := r.readValue()
			if err != nil {
				return nil, err
			}

			addValue(nested, t.Name.Local, v)
		case xml.EndElement:
			if nested != nil {
				return nested, nil
			}

			return strings.TrimSpace(text.String()), nil
		}
	}
}

func addValue(rec *record.Record, key string, v any) {
	prev, ok := rec.Get(key)
	if !ok {
		rec.Set(key, v)
		return
	}

	if list, isList := prev.([]any); isList {
		rec.Set(key, append(list, v))
		return
	}

	rec.Set(key, []any{prev, v})
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}

func (r *Reader) wrap(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Path: r.path, Line: syntaxErr.Line, Err: err}
	}

	line, _ := r.dec.InputPos()

	return r.parseError(line, err)
}

func (r *Reader) parseError(line int, err error) *ParseError {
	return &ParseError{Path: r.path, Line: line, Err: err}
}
