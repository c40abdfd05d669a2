package match

import (
	"strings"
	"unicode"
)

// NormalizeName folds a field name for fuzzy comparison: camelCase, snake_case,
// kebab-case and dotted names of the same words normalize to the same string.
func NormalizeName(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// Tokenize splits a name into lowercase words on separators and case
// changes: "birthDate" and "birth_date" both give ["birth", "date"].
func Tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && startsToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(unicode.ToLower(r))
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ':' || unicode.IsSpace(r)
}

// startsToken reports a lower-to-upper transition ("birthDate") or the end
// of an acronym ("XMLName" splits before 'N').
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) {
		return false
	}

	if !unicode.IsUpper(prev) && !isSeparator(prev) {
		return true
	}

	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
