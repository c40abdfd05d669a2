// Package record provides the ordered Record type that flows through every
// xmlrecords pipeline, and its JSON and YAML encodings.
//
// A Record is one logical entity (for example one <person> element). Field
// order matters: it is the order of the mapping table, and it is kept in the
// generated JSON and YAML so that re-running a conversion produces
// byte-identical files.
//
// # Encodings
//
//   - JSON: MarshalJSON writes keys in record order; FromJSON reads an
//     object through gjson, which iterates keys in document order.
//   - YAML: MarshalYAML and UnmarshalYAML work on yaml.Node mapping nodes,
//     which are ordered as well.
package record
