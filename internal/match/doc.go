// Package match ranks field names by similarity, to suggest the intended
// name when a record carries a field the schema or mapping table does not
// know.
//
// Key functions:
//   - NormalizeName: case-folds a name and strips separators
//   - Levenshtein: computes edit distance between strings
//   - Rank: scores candidate names against a name
//   - Suggest: returns the closest candidates above a threshold
package match
