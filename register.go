// FILE: lixenwraith/settings/register.go
package settings

import (
	"reflect"
	"sync"
)

// Metadata attribute keys. Metadata is stored apart from field schemas
// so that it can be inherited through embedded settings structs.
const (
	metaSecret    = "settings:secret"
	metaDevOnly   = "settings:devOnly"
	metaAlias     = "settings:alias"
	metaPushToEnv = "settings:pushToEnv"
)

// schemaRegistry is the process-wide field schema store keyed by declaring type
type schemaRegistry struct {
	mu       sync.RWMutex
	fields   map[reflect.Type]map[string]Field
	metadata map[reflect.Type]map[string]map[string]string
	scanned  map[reflect.Type]bool
}

var schemas = &schemaRegistry{
	fields:   make(map[reflect.Type]map[string]Field),
	metadata: make(map[reflect.Type]map[string]map[string]string),
	scanned:  make(map[reflect.Type]bool),
}

// RegisterField associates a validation schema with a field of a settings type.
// Calling it again for the same field replaces the earlier schema.
// Programmatic registrations take precedence over struct tags.
func RegisterField(t reflect.Type, name string, f Field) {
	t = baseType(t)

	schemas.mu.Lock()
	defer schemas.mu.Unlock()

	own, ok := schemas.fields[t]
	if !ok {
		own = make(map[string]Field)
		schemas.fields[t] = own
	}
	own[name] = f
}

// Register is the generic form of RegisterField.
func Register[T any](name string, f Field) {
	RegisterField(reflect.TypeFor[T](), name, f)
}

// Define scans the struct tags of T and its embedded settings structs.
// Loading a type defines it implicitly; calling Define at init time
// surfaces the declaration to introspection before the first load.
func Define[T any]() {
	schemas.define(reflect.TypeFor[T]())
}

// FieldSchemas returns the schemas declared by exactly this type, keyed by Go
// field name. Fields of embedded settings structs are not included.
func FieldSchemas(t reflect.Type) map[string]Field {
	t = baseType(t)
	schemas.define(t)

	schemas.mu.RLock()
	defer schemas.mu.RUnlock()

	result := make(map[string]Field, len(schemas.fields[t]))
	for name, f := range schemas.fields[t] {
		result[name] = f
	}
	return result
}

// MarkSecret flags a field for redaction in serialized output and docs.
func MarkSecret[T any](name string) {
	schemas.setMeta(reflect.TypeFor[T](), name, metaSecret, "true")
}

// MarkDevOnly flags a field as relevant to local development only.
func MarkDevOnly[T any](name string) {
	schemas.setMeta(reflect.TypeFor[T](), name, metaDevOnly, "true")
}

// SetAlias binds a field to a custom environment variable name.
func SetAlias[T any](name, envVar string) {
	schemas.setMeta(reflect.TypeFor[T](), name, metaAlias, envVar)
}

// MarkPushToEnv makes Load write the validated value of a field back into the
// process environment.
func MarkPushToEnv[T any](name string) {
	schemas.setMeta(reflect.TypeFor[T](), name, metaPushToEnv, "true")
}

// MetaOf resolves the metadata of a field as seen from type t.
// Each attribute is looked up on t first, then on its embedded settings
// structs depth-first; the first attachment found wins.
func MetaOf(t reflect.Type, name string) Meta {
	t = baseType(t)
	schemas.define(t)

	schemas.mu.RLock()
	defer schemas.mu.RUnlock()

	var m Meta
	if v, ok := schemas.lookupMeta(t, name, metaSecret); ok {
		m.Secret = v == "true"
	}
	if v, ok := schemas.lookupMeta(t, name, metaDevOnly); ok {
		m.DevOnly = v == "true"
	}
	if v, ok := schemas.lookupMeta(t, name, metaPushToEnv); ok {
		m.PushToEnv = v == "true"
	}
	if v, ok := schemas.lookupMeta(t, name, metaAlias); ok {
		m.Alias = v
	}
	return m
}

func (r *schemaRegistry) setMeta(t reflect.Type, name, key, value string) {
	t = baseType(t)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.putMeta(t, name, key, value)
}

// putMeta stores one attribute. Caller holds the write lock.
func (r *schemaRegistry) putMeta(t reflect.Type, name, key, value string) {
	byField, ok := r.metadata[t]
	if !ok {
		byField = make(map[string]map[string]string)
		r.metadata[t] = byField
	}
	attrs, ok := byField[name]
	if !ok {
		attrs = make(map[string]string)
		byField[name] = attrs
	}
	attrs[key] = value
}

// lookupMeta walks t and its ancestors. Caller holds the read lock.
func (r *schemaRegistry) lookupMeta(t reflect.Type, name, key string) (string, bool) {
	if v, ok := r.metadata[t][name][key]; ok {
		return v, true
	}
	for _, parent := range ancestors(t) {
		if v, ok := r.lookupMeta(parent, name, key); ok {
			return v, true
		}
	}
	return "", false
}

// define scans struct tags of t once. Embedded ancestors are scanned first.
// Entries registered programmatically before the scan are left untouched.
func (r *schemaRegistry) define(t reflect.Type) {
	t = baseType(t)
	if t.Kind() != reflect.Struct {
		return
	}

	r.mu.RLock()
	done := r.scanned[t]
	r.mu.RUnlock()
	if done {
		return
	}

	type tagged struct {
		name  string
		field Field
		attrs map[string]string
		ok    bool
	}
	var found []tagged

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if isAncestor(sf) {
			r.define(sf.Type)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		f, ok := parseFieldTags(sf)
		attrs := parseMetaTags(sf)
		if ok || len(attrs) > 0 {
			found = append(found, tagged{name: sf.Name, field: f, attrs: attrs, ok: ok})
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanned[t] {
		return
	}
	r.scanned[t] = true

	for _, tg := range found {
		if tg.ok {
			own, exists := r.fields[t]
			if !exists {
				own = make(map[string]Field)
				r.fields[t] = own
			}
			if _, registered := own[tg.name]; !registered {
				own[tg.name] = tg.field
			}
		}
		for key, value := range tg.attrs {
			if _, set := r.metadata[t][tg.name][key]; !set {
				r.putMeta(t, tg.name, key, value)
			}
		}
	}
}

// isAncestor reports whether a struct field embeds another settings struct
func isAncestor(sf reflect.StructField) bool {
	if !sf.Anonymous || sf.Type.Kind() != reflect.Struct {
		return false
	}
	_, declared := sf.Tag.Lookup(TagSetting)
	return !declared
}

// ancestors lists the embedded settings structs of t in declaration order
func ancestors(t reflect.Type) []reflect.Type {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var result []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		if sf := t.Field(i); isAncestor(sf) {
			result = append(result, sf.Type)
		}
	}
	return result
}
