// FILE: lixenwraith/settings/envspec/spec.go

// Package envspec extracts the environment contract of settings types and
// renders it as templates, documentation and deployment snippets.
package envspec

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/settings"
)

// Var describes one environment variable of a settings type
type Var struct {
	Name         string  `json:"-"`
	Default      *string `json:"default"`
	Required     bool    `json:"required"`
	OriginalName string  `json:"originalName"`
	Secret       bool    `json:"secret"`
	Type         string  `json:"type"`
	Optional     bool    `json:"optional,omitempty"`
	DevOnly      bool    `json:"devOnly,omitempty"`
	Alias        string  `json:"alias,omitempty"`
	Description  string  `json:"description,omitempty"`
	Pattern      string  `json:"pattern,omitempty"`

	Kind settings.Kind `json:"-"`
}

// Placeholder returns the default, or the type in braces when there is none
func (v Var) Placeholder() string {
	if v.Default != nil {
		return *v.Default
	}
	return "{" + v.Type + "}"
}

// Group is the variables of one settings type
type Group struct {
	Class       string
	Prefix      string // without the trailing underscore
	Description string
	Vars        []Var
}

// Section is the lower-cased prefix used as a document section name
func (g Group) Section() string {
	return strings.ToLower(g.Prefix)
}

// HasAlias reports whether any variable has an alias
func (g Group) HasAlias() bool {
	for _, v := range g.Vars {
		if v.Alias != "" {
			return true
		}
	}
	return false
}

// HasSecrets reports whether any variable is secret
func (g Group) HasSecrets() bool {
	for _, v := range g.Vars {
		if v.Secret {
			return true
		}
	}
	return false
}

// Spec is the extracted contract of a set of settings types, in the order given
type Spec struct {
	Groups []Group
}

// Options controls extraction
type Options struct {
	// SkipDevOnly drops variables marked dev-only
	SkipDevOnly bool
}

// Describer is implemented by settings types that document their group
type Describer interface {
	Description() string
}

// Extract builds the spec of the given settings types. Groups left empty by
// SkipDevOnly are omitted.
func Extract(opts Options, types ...reflect.Type) (*Spec, error) {
	spec := &Spec{Groups: make([]Group, 0, len(types))}

	for _, t := range types {
		group, err := extractGroup(t, opts)
		if err != nil {
			return nil, err
		}
		if len(group.Vars) > 0 {
			spec.Groups = append(spec.Groups, group)
		}
	}
	return spec, nil
}

func extractGroup(t reflect.Type, opts Options) (Group, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema, err := settings.Describe(t)
	if err != nil {
		return Group{}, err
	}
	declared, err := settings.DeclaredDefaults(t)
	if err != nil {
		return Group{}, err
	}

	group := Group{
		Class:  schema.Class,
		Prefix: strings.TrimSuffix(schema.Prefix, "_"),
	}
	if d, ok := reflect.New(t).Interface().(Describer); ok {
		group.Description = d.Description()
	}

	for _, b := range schema.Fields {
		if opts.SkipDevOnly && b.Meta.DevOnly {
			continue
		}

		v := Var{
			Name:         b.EnvVar,
			OriginalName: b.Key,
			Secret:       b.Meta.Secret,
			Type:         typeOf(b),
			Optional:     b.Optional,
			DevOnly:      b.Meta.DevOnly,
			Alias:        b.Meta.Alias,
			Description:  b.Description,
			Pattern:      b.Pattern,
			Kind:         b.Kind,
		}

		switch {
		case b.HasDefault:
			def := b.Default
			v.Default = &def
		default:
			if value, ok := declared[b.Key]; ok {
				if def, ok := settings.FormatValue(value); ok {
					v.Default = &def
				}
			}
		}
		v.Required = b.Required() && v.Default == nil

		group.Vars = append(group.Vars, v)
	}
	return group, nil
}

// typeOf describes the kind and bounds of a field: "int >= 1 <= 65535"
func typeOf(b *settings.Binding) string {
	rules := strings.Split(b.EffectiveRules(), ",")

	var sb strings.Builder
	if b.Kind == settings.KindEnum {
		options := ruleParam(rules, "oneof")
		sb.WriteString("enum [" + strings.Join(strings.Fields(options), ", ") + "]")
	} else {
		sb.WriteString(string(b.Kind))
	}

	for _, bound := range []struct{ rule, op string }{
		{"gt", ">"},
		{"min", ">="},
		{"gte", ">="},
		{"max", "<="},
		{"lte", "<="},
	} {
		if param := ruleParam(rules, bound.rule); param != "" {
			fmt.Fprintf(&sb, " %s %s", bound.op, param)
		}
	}
	return sb.String()
}

func ruleParam(rules []string, name string) string {
	for _, rule := range rules {
		key, param, ok := strings.Cut(strings.TrimSpace(rule), "=")
		if ok && key == name {
			return param
		}
	}
	return ""
}

// FormatType appends the pattern, optional and dev-only annotations to a
// variable's type: "string [pattern, optional]".
func FormatType(v Var) string {
	var annotations []string
	if v.Pattern != "" {
		annotations = append(annotations, "pattern")
	}
	if v.Optional {
		annotations = append(annotations, "optional")
	}
	if v.DevOnly {
		annotations = append(annotations, "devOnly")
	}

	clean := strings.Join(strings.Fields(v.Type), " ")
	if len(annotations) > 0 {
		return clean + " [" + strings.Join(annotations, ", ") + "]"
	}
	return clean
}
