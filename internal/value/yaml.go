package value

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a single YAML document into a Value.
// Mapping keys must be scalars; they are used by their literal text.
// Timestamps and binary scalars are kept as strings. An empty input is Null.
func FromYAML(data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if root.Kind == 0 {
		return Null{}, nil
	}
	return FromYAMLNode(&root)
}

// FromYAMLNode converts an already parsed YAML node. A zero node is Null.
func FromYAMLNode(n *yaml.Node) (Value, error) {
	if n.Kind == 0 {
		return Null{}, nil
	}
	return fromYAMLNode(n)
}

func fromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return fromYAMLNode(n.Content[0])

	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)

	case yaml.SequenceNode:
		arr := make(Array, len(n.Content))
		for i, c := range n.Content {
			v, err := fromYAMLNode(c)
			if err != nil {
				return nil, fmt.Errorf("line %d: sequence[%d]: %w", n.Line, i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case yaml.MappingNode:
		obj := make(Object, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: line %d: mapping key must be a scalar", ErrInvalidDocument, k.Line)
			}
			val, err := fromYAMLNode(v)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k.Value, err)
			}
			obj[k.Value] = val
		}
		return obj, nil

	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}
	return nil, fmt.Errorf("%w: line %d: unsupported YAML node kind %d", ErrInvalidDocument, n.Line, n.Kind)
}

func fromYAMLScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidDocument, n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		// Out of int64 range; fall through to float.
		fallthrough
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidDocument, n.Line, err)
		}
		return fromFloat(f)
	default:
		return String(n.Value), nil
	}
}
