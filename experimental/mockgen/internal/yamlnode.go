package mockgen

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// resolveAlias follows YAML aliases so callers only ever see the anchored node.
func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// isMapping reports whether n (after alias resolution) is a mapping node.
func isMapping(n *yaml.Node) bool {
	n = resolveAlias(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// mappingValue returns the value for key in a mapping node, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolveAlias(n.Content[i+1])
		}
	}
	return nil
}

// scalarValue returns the string value of key when it is a scalar.
func scalarValue(n *yaml.Node, key string) string {
	v := mappingValue(n, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

// mappingPair is one key/value entry of a mapping node.
type mappingPair struct {
	Key   string
	Value *yaml.Node
}

// mappingPairs returns the entries of a mapping node in document order.
func mappingPairs(n *yaml.Node) []mappingPair {
	n = resolveAlias(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]mappingPair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, mappingPair{Key: n.Content[i].Value, Value: resolveAlias(n.Content[i+1])})
	}
	return pairs
}

// setMappingValue replaces the value for key, appending the entry when absent.
func setMappingValue(n *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			n.Content[i+1] = value
			return
		}
	}
	n.Content = append(n.Content, scalarNode(key), value)
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// marshalYAML encodes v with two-space indentation. Maps are written with
// sorted keys, which keeps the output stable across runs.
func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeNode decodes a node into plain Go values.
func decodeNode(n *yaml.Node) (any, error) {
	n = resolveAlias(n)
	if n == nil {
		return nil, fmt.Errorf("missing node")
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// jsonCompatible converts the map[interface{}]interface{} values yaml.v3
// produces for non-string keys into map[string]any.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	default:
		return v
	}
}
