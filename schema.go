// FILE: lixenwraith/settings/schema.go
package settings

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Binding is one resolved field of a composed settings schema
type Binding struct {
	Field

	Name   string       // Go field name
	Key    string       // camelCase key used by sources and serialization
	EnvVar string       // derived PREFIX_UPPER_SNAKE variable
	Meta   Meta         // metadata resolved from the composing type
	Owner  reflect.Type // type that declared the field
	Type   reflect.Type // Go type of the field

	index   []int
	rules   string
	pattern *regexp.Regexp
}

// Variable returns the environment variable the field is read from and pushed to.
func (b *Binding) Variable() string {
	if b.Meta.Alias != "" {
		return b.Meta.Alias
	}
	return b.EnvVar
}

// Required reports whether a missing value fails validation
func (b *Binding) Required() bool {
	return !b.HasDefault && !b.Optional && b.Type.Kind() != reflect.Ptr
}

// EffectiveRules returns the validator rules including those implied by the kind.
func (b *Binding) EffectiveRules() string {
	return b.rules
}

// refinement is a cross-field check added through Schema.Refine
type refinement struct {
	path    []string
	message string
	fn      func(values map[string]any) bool
}

// Schema is the structural validator composed for one settings type
type Schema struct {
	Class  string
	Prefix string
	Type   reflect.Type
	Fields []*Binding

	refinements []refinement
}

// Refine adds a cross-field check evaluated against the validated values,
// keyed by field key. A failing check is reported as a custom issue at path.
func (s *Schema) Refine(fn func(values map[string]any) bool, message string, path ...string) {
	s.refinements = append(s.refinements, refinement{path: path, message: message, fn: fn})
}

// Lookup finds a binding by field key
func (s *Schema) Lookup(key string) (*Binding, bool) {
	for _, b := range s.Fields {
		if b.Key == key {
			return b, true
		}
	}
	return nil, false
}

// canonical maps a source key onto a declared field key.
// Exact key match first, then case-insensitive key, then Go field name.
func (s *Schema) canonical(key string) (string, bool) {
	if _, ok := s.Lookup(key); ok {
		return key, true
	}
	for _, b := range s.Fields {
		if strings.EqualFold(b.Key, key) || strings.EqualFold(b.Name, key) {
			return b.Key, true
		}
	}
	return "", false
}

// Describe composes the schema of a settings type without loading it.
func Describe(t reflect.Type) (*Schema, error) {
	return compose(t)
}

// DeclaredDefaults returns the class-declared default values of a settings
// type keyed by field key: the non-zero fields of a fresh instance after
// its Defaults method, when present, has run.
func DeclaredDefaults(t reflect.Type) (map[string]any, error) {
	s, err := compose(t)
	if err != nil {
		return nil, err
	}
	instance := reflect.New(s.Type)
	if d, ok := instance.Interface().(Defaulter); ok {
		d.Defaults()
	}
	return s.captureDefaults(instance.Elem()), nil
}

// captureDefaults reads every non-zero bound field of v
func (s *Schema) captureDefaults(v reflect.Value) map[string]any {
	defaults := make(map[string]any)
	for _, b := range s.Fields {
		fv := v.FieldByIndex(b.index)
		if !fv.IsZero() {
			defaults[b.Key] = fv.Interface()
		}
	}
	return defaults
}

// compose builds the schema of t from its own fields and those of its
// embedded settings structs. An own field shadows an ancestor field of the same key.
func compose(t reflect.Type) (*Schema, error) {
	t = baseType(t)
	if t.Kind() != reflect.Struct {
		return nil, &DeclarationError{Class: t.String(), Err: ErrInvalidTarget}
	}
	schemas.define(t)

	s := &Schema{
		Class:  t.Name(),
		Prefix: Prefix(t.Name()),
		Type:   t,
	}
	if err := s.collect(t, nil, make(map[string]bool)); err != nil {
		return nil, err
	}
	if len(s.Fields) == 0 {
		return nil, &DeclarationError{Class: s.Class, Err: ErrNoFields}
	}
	return s, nil
}

func (s *Schema) collect(owner reflect.Type, index []int, seen map[string]bool) error {
	own := FieldSchemas(owner)

	type parent struct {
		t     reflect.Type
		index []int
	}
	var parents []parent

	for i := 0; i < owner.NumField(); i++ {
		sf := owner.Field(i)
		fieldIndex := append(append([]int{}, index...), i)

		if isAncestor(sf) {
			parents = append(parents, parent{t: sf.Type, index: fieldIndex})
			continue
		}

		f, ok := own[sf.Name]
		if !ok {
			continue
		}
		delete(own, sf.Name)

		key := lowerCamel(sf.Name)
		if seen[key] {
			continue
		}

		b, err := s.bind(owner, sf, f, fieldIndex)
		if err != nil {
			return err
		}
		seen[key] = true
		s.Fields = append(s.Fields, b)
	}

	if len(own) > 0 {
		missing := make([]string, 0, len(own))
		for name := range own {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return &DeclarationError{
			Class: s.Class,
			Field: missing[0],
			Err:   fmt.Errorf("registered on %s but no such struct field exists", owner.Name()),
		}
	}

	for _, p := range parents {
		if err := s.collect(p.t, p.index, seen); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) bind(owner reflect.Type, sf reflect.StructField, f Field, index []int) (*Binding, error) {
	if !sf.IsExported() {
		return nil, &DeclarationError{Class: s.Class, Field: sf.Name, Err: fmt.Errorf("field is not exported")}
	}

	if f.Kind == "" {
		f.Kind = inferKind(sf.Type)
	}
	if err := checkKind(f.Kind, sf.Type); err != nil {
		return nil, &DeclarationError{Class: s.Class, Field: sf.Name, Err: err}
	}

	b := &Binding{
		Field:  f,
		Name:   sf.Name,
		Key:    lowerCamel(sf.Name),
		Meta:   MetaOf(s.Type, sf.Name),
		Owner:  owner,
		Type:   sf.Type,
		index:  index,
		rules:  joinRules(f.Rules, impliedRules(f.Kind, sf.Type)),
	}
	b.EnvVar = EnvVarName(s.Class, b.Key)

	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return nil, &DeclarationError{Class: s.Class, Field: sf.Name, Err: fmt.Errorf("invalid pattern: %w", err)}
		}
		b.pattern = re
	}
	return b, nil
}

func joinRules(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ",")
}
