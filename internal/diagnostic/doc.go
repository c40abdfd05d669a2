// Package diagnostic collects non-fatal findings: validation failures,
// schema nonconformance and mapping coverage warnings.
//
// Diagnostics are reported, never raised, so a validator can report every
// problem of a file set in a single pass. Each Diagnostic carries a stable
// code (for example "missing_field") and a Location naming the file, the
// 1-based record number and the field it concerns.
package diagnostic
