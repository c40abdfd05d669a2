package mapping

import (
	"strings"
	"unicode"
)

// IsValidName reports whether s is usable as an XML element name: a letter
// or underscore followed by letters, digits, '_', '-' or '.'. Namespace
// prefixes are not supported.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isNameStart(r) {
				return false
			}

			continue
		}

		if !isNameChar(r) {
			return false
		}
	}

	return true
}

// SanitizeName turns an arbitrary key into a valid XML element name by
// replacing every invalid character with '_'. A leading character that may
// not start a name gets an '_' prefix.
func SanitizeName(s string) string {
	if s == "" {
		return "_"
	}

	var b strings.Builder

	b.Grow(len(s) + 1)

	for i, r := range s {
		switch {
		case i == 0 && !isNameStart(r):
			b.WriteByte('_')

			if isNameChar(r) {
				b.WriteRune(r)
			}
		case isNameChar(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.'
}
