package match

import (
	"slices"
	"strings"
)

// DefaultThreshold is the minimum similarity for a suggestion.
const DefaultThreshold = 0.6

// Candidate is a known name scored against a queried name.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name, best first. Ties are broken by
// name so the order is deterministic.
func Rank(name string, candidates []string) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		score := NameSimilarity(name, c)

		// a shared word counts even when the rest differs: "birth" ~ "birth_date"
		if tokenOverlap(name, c) && score < DefaultThreshold {
			score = DefaultThreshold
		}

		ranked = append(ranked, Candidate{Name: c, Score: score})
	}

	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})

	return ranked
}

// Suggest returns up to limit candidate names whose similarity to name is at
// least DefaultThreshold. An exact match is never suggested.
func Suggest(name string, candidates []string, limit int) []string {
	var out []string

	for _, c := range Rank(name, candidates) {
		if len(out) == limit || c.Score < DefaultThreshold {
			break
		}

		if c.Name == name {
			continue
		}

		out = append(out, c.Name)
	}

	return out
}

func tokenOverlap(a, b string) bool {
	bt := Tokenize(b)
	for _, t := range Tokenize(a) {
		if len(t) > 2 && slices.Contains(bt, t) {
			return true
		}
	}

	return false
}
