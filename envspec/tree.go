// FILE: lixenwraith/settings/envspec/tree.go
package envspec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// TreeOptions shapes the JSON, YAML and TOML dumps
type TreeOptions struct {
	// Root nests everything under one key when set
	Root string
	// Flat drops the per-section level
	Flat bool
	// Code keys variables by field key instead of variable name
	Code bool
}

// DefaultYAMLRoot is the root key of the YAML dump when none is given
const DefaultYAMLRoot = "settings"

// tree is an object that keeps insertion order when encoded
type tree struct {
	keys   []string
	values map[string]any
}

func newTree() *tree {
	return &tree{values: make(map[string]any)}
}

func (t *tree) set(key string, value any) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// child returns the subtree at key, creating it when absent
func (t *tree) child(key string) *tree {
	if sub, ok := t.values[key].(*tree); ok {
		return sub
	}
	sub := newTree()
	t.set(key, sub)
	return sub
}

func (t *tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(t.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *tree) MarshalYAML() (any, error) {
	node := mappingNode()
	for _, key := range t.keys {
		var value *yaml.Node
		switch v := t.values[key].(type) {
		case *tree:
			sub, err := v.MarshalYAML()
			if err != nil {
				return nil, err
			}
			value = sub.(*yaml.Node)
		case placeholder:
			value = stringNode(string(v))
		default:
			value = &yaml.Node{}
			if err := value.Encode(v); err != nil {
				return nil, err
			}
		}
		node.Content = append(node.Content, keyNode(key), value)
	}
	return node, nil
}

// plain converts the tree into nested maps for encoders without ordering
func (t *tree) plain() map[string]any {
	out := make(map[string]any, len(t.keys))
	for _, key := range t.keys {
		switch v := t.values[key].(type) {
		case *tree:
			out[key] = v.plain()
		case placeholder:
			out[key] = string(v)
		default:
			out[key] = v
		}
	}
	return out
}

// placeholder stands in for a variable without default
type placeholder string

// buildTree lays the spec out under opts
func buildTree(s *Spec, opts TreeOptions) *tree {
	out := newTree()
	base := out
	if opts.Root != "" {
		base = out.child(opts.Root)
	}

	for _, g := range s.Groups {
		target := base
		if !opts.Flat {
			target = base.child(g.Section())
		}
		for _, v := range g.Vars {
			target.set(treeKey(v, opts), treeValue(v))
		}
	}
	return out
}

func treeKey(v Var, opts TreeOptions) string {
	switch {
	case opts.Code:
		return v.OriginalName
	case v.Alias != "":
		return v.Alias
	}
	return v.Name
}

func treeValue(v Var) any {
	if v.Default == nil {
		return placeholder(v.Placeholder())
	}
	return typedDefault(v)
}

// typedDefault interprets the default text by the first word of the type.
// Text that does not parse stays a string.
func typedDefault(v Var) any {
	def := *v.Default
	declared, _, _ := strings.Cut(v.Type, " ")

	switch declared {
	case "number", "int":
		if i, err := strconv.ParseInt(def, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(def, 64); err == nil {
			return f
		}
	case "boolean":
		switch strings.ToLower(def) {
		case "true":
			return true
		case "false":
			return false
		}
	case "array":
		var parsed []any
		if err := json.Unmarshal([]byte(def), &parsed); err == nil {
			return parsed
		}
	case "object":
		var parsed map[string]any
		if err := json.Unmarshal([]byte(def), &parsed); err == nil && parsed != nil {
			return parsed
		}
	}
	return def
}

// JSON renders the defaults as an indented JSON document
func JSON(s *Spec, opts TreeOptions) (string, error) {
	data, err := json.MarshalIndent(buildTree(s, opts), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding JSON: %w", err)
	}
	return string(data), nil
}

// YAML renders the defaults as a YAML document, rooted at DefaultYAMLRoot
// when opts.Root is empty
func YAML(s *Spec, opts TreeOptions) (string, error) {
	if opts.Root == "" {
		opts.Root = DefaultYAMLRoot
	}
	return encodeYAML(buildTree(s, opts))
}

// TOML renders the defaults as a TOML document
func TOML(s *Spec, opts TreeOptions) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(buildTree(s, opts).plain()); err != nil {
		return "", fmt.Errorf("encoding TOML: %w", err)
	}
	return buf.String(), nil
}

// Raw renders the extracted spec itself: section prefix to variable name to
// variable description
func Raw(s *Spec) (string, error) {
	out := newTree()
	for _, g := range s.Groups {
		group := out.child(g.Prefix)
		for _, v := range g.Vars {
			group.set(v.Name, v)
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding JSON: %w", err)
	}
	return string(data), nil
}
