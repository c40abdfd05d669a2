// Package mapping provides the mapping table: a static, bidirectional rename
// table between XML tag names and output keys, its loaders and the engine
// that applies it to records.
//
// # File formats
//
// The table is loaded once per run from a JSON, YAML or XML file, chosen by
// extension. JSON and YAML accept a flat object or a list of entries:
//
//	{"id": "person_id", "year": "year"}
//
//	- source: id
//	  target: person_id
//	- from: year   # "from"/"to" are aliases of "source"/"target"
//	  to: year
//
// XML accepts either form of child element under any root:
//
//	<mapping>
//	  <map from="id" to="person_id"/>
//	  <map><source>year</source><target>year</target></map>
//	</mapping>
//
// Entry order is significant: it is the field order of every mapped record.
//
// # Rules
//
//   - Source names must be valid XML names; targets must be non-empty.
//   - A source or a target may appear once; duplicates are a mapping Error,
//     since the inverse table would be ambiguous.
//
// # Applying the table
//
// Apply emits every target, in table order, with a null value when the
// source tag is absent. Fields with no entry are kept under their own names
// (PolicyPassthrough) or dropped (PolicyDrop). Inverse swaps sources and
// targets, which is how the merger turns output keys back into tags.
package mapping
