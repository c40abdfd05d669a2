// Package dataset writes partitioned records as JSON and YAML file pairs and
// reads such a directory back.
//
// A partition named 2020 is stored as 2020.json, a two-space indented array
// of objects, and 2020.yaml, a single YAML sequence document. Both hold the
// same records in the same order. Readers also accept the older layout of
// one YAML document per record.
package dataset
