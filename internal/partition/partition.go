package partition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"xmlrecords/internal/record"
)

// Unknown is the partition of records without a partition value.
const Unknown = "unknown"

// DefaultKeys are the fields looked up for a partition value, in order.
var DefaultKeys = []string{"year", "birth", "fecha", "fechaNacimiento", "birthdate", "birth_date"}

// Mode selects how a partition value is derived from a field value.
type Mode string

const (
	// ModeYear extracts a four-digit year.
	ModeYear Mode = "year"
	// ModeValue uses the field value itself.
	ModeValue Mode = "value"
)

// ParseMode parses a mode name; the empty string means ModeYear.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeYear:
		return ModeYear, nil
	case ModeValue:
		return m, nil
	default:
		return "", fmt.Errorf("unknown partition mode %q (expected year or value)", s)
	}
}

var yearRe = regexp.MustCompile(`(18\d{2}|19\d{2}|20\d{2})`)

// YearOf extracts a year from a date-like string. A year between 1800 and
// 2099 anywhere in s wins; otherwise a four-digit first or last
// dash-separated part is used.
func YearOf(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := yearRe.FindString(s); m != "" {
		return m, true
	}

	parts := strings.Split(s, "-")

	for _, p := range []string{parts[0], parts[len(parts)-1]} {
		if isYear(p) {
			return p, true
		}
	}

	return "", false
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// Partitioner assigns records to partitions.
type Partitioner struct {
	keys    []string
	mode    Mode
	unknown string
}

// Option configures a Partitioner.
type Option func(*Partitioner)

// WithKeys replaces the looked up fields. An empty list keeps the defaults.
func WithKeys(keys ...string) Option {
	return func(p *Partitioner) {
		if len(keys) > 0 {
			p.keys = keys
		}
	}
}

func WithMode(m Mode) Option {
	return func(p *Partitioner) {
		if m != "" {
			p.mode = m
		}
	}
}

// WithUnknown renames the partition of records without a value.
func WithUnknown(name string) Option {
	return func(p *Partitioner) {
		if name != "" {
			p.unknown = name
		}
	}
}

func New(opts ...Option) *Partitioner {
	p := &Partitioner{
		keys:    DefaultKeys,
		mode:    ModeYear,
		unknown: Unknown,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Keys returns the looked up fields.
func (p *Partitioner) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Of returns the partition of rec.
func (p *Partitioner) Of(rec *record.Record) string {
	raw, ok := p.value(rec)
	if !ok {
		return p.unknown
	}

	if p.mode == ModeValue {
		if v := safeValue(raw); v != "" {
			return v
		}

		return p.unknown
	}

	if year, ok := YearOf(raw); ok {
		return year
	}

	return p.unknown
}

// value returns the first configured key holding a non-empty scalar.
func (p *Partitioner) value(rec *record.Record) (string, bool) {
	for _, key := range p.keys {
		v, ok := rec.Get(key)
		if !ok {
			continue
		}

		if s, ok := scalarString(v); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}

	return "", false
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// safeValue makes a raw value usable as a file name component.
func safeValue(s string) string {
	s = strings.Trim(strings.TrimSpace(s), ".")

	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 || unicode.IsControl(r) {
			return '_'
		}

		return r
	}, s)
}
