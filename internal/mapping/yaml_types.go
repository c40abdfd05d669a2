package mapping

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// entryList is the YAML form of a table body.
type entryList []Entry

// UnmarshalYAML accepts:
//   - A mapping of source to target: {id: person_id}
//   - A list of entries: [{source: id, target: person_id}]
//   - A list using the aliases: [{from: id, to: person_id}]
//
// Duplicate keys are kept so that NewTable can report them.
func (l *entryList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		entries := make(entryList, 0, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]

			if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
				return &Error{
					Key: key.Value,
					Err: fmt.Errorf("%w: line %d: target must be a string for source", ErrMalformed, key.Line),
				}
			}

			entries = append(entries, Entry{Source: key.Value, Target: value.Value})
		}

		*l = entries

		return nil

	case yaml.SequenceNode:
		entries := make(entryList, 0, len(node.Content))

		for _, item := range node.Content {
			e, err := entryFromYAML(item)
			if err != nil {
				return err
			}

			entries = append(entries, e)
		}

		*l = entries

		return nil

	default:
		return &Error{Err: fmt.Errorf("%w: line %d: expected a mapping or a list", ErrMalformed, node.Line)}
	}
}

// entryFromYAML parses one list item like {source: id, target: person_id}.
func entryFromYAML(node *yaml.Node) (Entry, error) {
	if node.Kind != yaml.MappingNode {
		return Entry{}, &Error{Err: fmt.Errorf("%w: line %d: list items must be mappings", ErrMalformed, node.Line)}
	}

	var e Entry

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			continue
		}

		switch key.Value {
		case "source", "from":
			if e.Source == "" {
				e.Source = value.Value
			}
		case "target", "to":
			if e.Target == "" {
				e.Target = value.Value
			}
		}
	}

	if e.Source == "" || e.Target == "" {
		return Entry{}, &Error{Err: fmt.Errorf("%w: line %d: list items need source and target", ErrMalformed, node.Line)}
	}

	return e, nil
}

// MarshalYAML writes the table as an ordered mapping of source to target.
func (t *Table) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, e := range t.entries {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Source},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Target},
		)
	}

	return node, nil
}
