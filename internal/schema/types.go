package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is the declared type of a field value.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
	TypeAny     Type = "any"
)

var ErrTypeMismatch = errors.New("type mismatch")

// dateLayouts are the accepted date forms, including unpadded ones.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"02-01-2006",
	"2-1-2006",
	"2006/01/02",
	"2006/1/2",
	time.RFC3339,
}

// ParseType parses a type name; the empty string means TypeAny.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeAny, nil
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDate, TypeAny:
		return t, nil
	case "int":
		return TypeInteger, nil
	case "float", "double":
		return TypeNumber, nil
	case "bool":
		return TypeBoolean, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownType, s)
	}
}

// CheckValue reports whether v conforms to t. Null conforms to every type;
// required fields are checked separately. Strings are accepted for every
// scalar type when they parse as one, since XML carries text only.
func CheckValue(t Type, v any) error {
	if v == nil || t == TypeAny || t == "" {
		return nil
	}

	ok := false

	switch t {
	case TypeString:
		_, ok = v.(string)
	case TypeInteger:
		ok = isInteger(v)
	case TypeNumber:
		ok = isNumber(v)
	case TypeBoolean:
		ok = isBoolean(v)
	case TypeDate:
		ok = isDate(v)
	}

	if !ok {
		return fmt.Errorf("%w: %s is not %s", ErrTypeMismatch, describe(v), article(t))
	}

	return nil
}

// IsEmpty reports a null value or a blank string.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}

func isInteger(v any) bool {
	switch val := v.(type) {
	case int64:
		return true
	case float64:
		return val == math.Trunc(val) && !math.IsInf(val, 0)
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return err == nil
	default:
		return false
	}
}

func isNumber(v any) bool {
	switch val := v.(type) {
	case int64, float64:
		return true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

func isBoolean(v any) bool {
	switch val := v.(type) {
	case bool:
		return true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "false", "1", "0", "yes", "no":
			return true
		}
	}

	return false
}

func isDate(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}

	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}

	return false
}

func describe(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case int64, float64, bool:
		return fmt.Sprintf("%v (%T)", val, val)
	default:
		return fmt.Sprintf("a %T value", val)
	}
}

func article(t Type) string {
	if t == TypeInteger || t == TypeAny {
		return "an " + string(t)
	}

	return "a " + string(t)
}
