package record

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"xmlrecords/internal/json"
)

var errNotObject = errors.New("record must be an object")

// MarshalJSON encodes r as a JSON object with keys in record order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	if err := appendJSON(&buf, r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v any) error {
	switch val := Normalize(v).(type) {
	case nil:
		buf.WriteString("null")
	case string:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}

		buf.Write(b)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("unsupported float value %v", val)
		}

		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case *Record:
		if val == nil {
			buf.WriteString("null")
			return nil
		}

		buf.WriteByte('{')

		for i, f := range val.fields {
			if i > 0 {
				buf.WriteByte(',')
			}

			key, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}

			buf.Write(key)
			buf.WriteByte(':')

			if err := appendJSON(buf, f.Value); err != nil {
				return fmt.Errorf("field %q: %w", f.Key, err)
			}
		}

		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')

		for i := range val {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := appendJSON(buf, val[i]); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}

	return nil
}

// FromJSON builds a Record from a JSON object, keeping key order.
func FromJSON(res gjson.Result) (*Record, error) {
	if !res.IsObject() {
		return nil, errNotObject
	}

	v, err := valueFromJSON(res)
	if err != nil {
		return nil, err
	}

	return v.(*Record), nil
}

func valueFromJSON(res gjson.Result) (any, error) {
	switch res.Type {
	case gjson.Null:
		return nil, nil
	case gjson.False:
		return false, nil
	case gjson.True:
		return true, nil
	case gjson.String:
		return res.String(), nil
	case gjson.Number:
		if !strings.ContainsAny(res.Raw, ".eE") {
			if i, err := strconv.ParseInt(res.Raw, 10, 64); err == nil {
				return i, nil
			}
		}

		return res.Float(), nil
	}

	var err error

	switch {
	case res.IsObject():
		rec := New()
		res.ForEach(func(key, value gjson.Result) bool {
			var v any

			v, err = valueFromJSON(value)
			if err != nil {
				err = fmt.Errorf("field %q: %w", key.String(), err)
				return false
			}

			rec.Set(key.String(), v)

			return true
		})

		return rec, err
	case res.IsArray():
		list := []any{}
		res.ForEach(func(_, value gjson.Result) bool {
			var v any

			v, err = valueFromJSON(value)
			if err != nil {
				return false
			}

			list = append(list, v)

			return true
		})

		return list, err
	default:
		return nil, fmt.Errorf("unexpected JSON value %q", res.Raw)
	}
}

// MarshalYAML implements yaml.Marshaler with an ordered mapping node.
func (r *Record) MarshalYAML() (any, error) {
	return toNode(r)
}

// UnmarshalYAML implements yaml.Unmarshaler, keeping key order.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	rec, err := FromYAMLNode(node)
	if err != nil {
		return err
	}

	*r = *rec

	return nil
}

// FromYAMLNode builds a Record from a YAML mapping node.
func FromYAMLNode(node *yaml.Node) (*Record, error) {
	node = resolveAlias(node)
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = resolveAlias(node.Content[0])
	}

	if node.Kind != yaml.MappingNode {
		return nil, errNotObject
	}

	v, err := valueFromNode(node)
	if err != nil {
		return nil, err
	}

	return v.(*Record), nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	return node
}

func valueFromNode(node *yaml.Node) (any, error) {
	node = resolveAlias(node)

	switch node.Kind {
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}

		return Normalize(v), nil
	case yaml.MappingNode:
		rec := New()

		for i := 0; i+1 < len(node.Content); i += 2 {
			key := resolveAlias(node.Content[i])
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: record keys must be scalars", key.Line)
			}

			v, err := valueFromNode(node.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key.Value, err)
			}

			rec.Set(key.Value, v)
		}

		return rec, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))

		for _, item := range node.Content {
			v, err := valueFromNode(item)
			if err != nil {
				return nil, err
			}

			list = append(list, v)
		}

		return list, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected YAML node kind %v", node.Line, node.Kind)
	}
}

func toNode(v any) (*yaml.Node, error) {
	switch val := Normalize(v).(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case string:
		return scalar("!!str", val), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(val, 10)), nil
	case float64:
		return scalar("!!float", formatYAMLFloat(val)), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(val)), nil
	case *Record:
		if val == nil {
			return scalar("!!null", "null"), nil
		}

		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

		for _, f := range val.fields {
			vn, err := toNode(f.Value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Key, err)
			}

			n.Content = append(n.Content, scalar("!!str", f.Key), vn)
		}

		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

		for i := range val {
			vn, err := toNode(val[i])
			if err != nil {
				return nil, err
			}

			n.Content = append(n.Content, vn)
		}

		return n, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func formatYAMLFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}
