// FILE: lixenwraith/settings/field.go
package settings

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// Kind identifies the declared value type of a settings field
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindInt      Kind = "int"
	KindBoolean  Kind = "boolean"
	KindDate     Kind = "date"
	KindDuration Kind = "duration"
	KindArray    Kind = "array"
	KindObject   Kind = "object"
	KindEnum     Kind = "enum"
	KindURL      Kind = "url"
	KindEmail    Kind = "email"
)

// Struct tags recognized on settings fields
const (
	TagSetting  = "setting"
	TagValidate = "validate"
	TagPattern  = "pattern"
	TagDefault  = "default"
	TagDesc     = "desc"
	TagSecret   = "secret"
	TagDevOnly  = "devonly"
	TagAlias    = "alias"
	TagPushEnv  = "pushenv"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	urlType      = reflect.TypeOf(url.URL{})
	ipType       = reflect.TypeOf(net.IP{})
	ipNetType    = reflect.TypeOf(net.IPNet{})
)

// Field is the validation schema of one declared settings field.
// Rules use go-playground/validator syntax ("min=1,max=10").
type Field struct {
	Kind        Kind
	Rules       string
	Pattern     string
	Default     string
	HasDefault  bool
	Optional    bool
	Nullable    bool
	Description string
}

// Meta holds the display and behavioral tags attached to a field.
// Unlike Field, metadata is inherited through embedded settings structs.
type Meta struct {
	Secret    bool
	DevOnly   bool
	Alias     string
	PushToEnv bool
}

// parseFieldTags builds the schema for a struct field carrying a `setting` tag.
// The second return value reports whether the field is declared at all.
func parseFieldTags(sf reflect.StructField) (Field, bool) {
	tag, ok := sf.Tag.Lookup(TagSetting)
	if !ok {
		return Field{}, false
	}

	var f Field
	parts := strings.Split(tag, ",")
	f.Kind = Kind(strings.TrimSpace(parts[0]))
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "optional":
			f.Optional = true
		case "nullable":
			f.Nullable = true
		}
	}

	f.Rules = sf.Tag.Get(TagValidate)
	f.Pattern = sf.Tag.Get(TagPattern)
	f.Description = sf.Tag.Get(TagDesc)
	f.Default, f.HasDefault = sf.Tag.Lookup(TagDefault)
	return f, true
}

// parseMetaTags extracts metadata attributes from struct tags
func parseMetaTags(sf reflect.StructField) map[string]string {
	attrs := make(map[string]string)
	if isTrue(sf.Tag.Get(TagSecret)) {
		attrs[metaSecret] = "true"
	}
	if isTrue(sf.Tag.Get(TagDevOnly)) {
		attrs[metaDevOnly] = "true"
	}
	if isTrue(sf.Tag.Get(TagPushEnv)) {
		attrs[metaPushToEnv] = "true"
	}
	if alias := sf.Tag.Get(TagAlias); alias != "" {
		attrs[metaAlias] = alias
	}
	return attrs
}

func isTrue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// baseType strips pointer indirection
func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// inferKind picks the natural kind for a Go field type
func inferKind(t reflect.Type) Kind {
	t = baseType(t)
	switch t {
	case timeType:
		return KindDate
	case durationType:
		return KindDuration
	case urlType:
		return KindURL
	case ipType, ipNetType:
		return KindString
	}

	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map, reflect.Struct, reflect.Interface:
		return KindObject
	}
	return ""
}

// checkKind verifies a declared kind can be stored in the Go field type
func checkKind(k Kind, t reflect.Type) error {
	t = baseType(t)
	natural := inferKind(t)

	var ok bool
	switch k {
	case KindString, KindEnum, KindEmail:
		ok = t.Kind() == reflect.String
	case KindURL:
		ok = t.Kind() == reflect.String || t == urlType
	case KindNumber:
		ok = natural == KindNumber || natural == KindInt
	case KindInt, KindBoolean, KindDate, KindDuration, KindArray:
		ok = natural == k
	case KindObject:
		ok = natural == KindObject
	default:
		return fmt.Errorf("unknown kind %q", k)
	}

	if !ok {
		return fmt.Errorf("kind %q cannot be stored in Go type %s", k, t)
	}
	return nil
}

// impliedRules returns validator rules carried by the kind itself
func impliedRules(k Kind, t reflect.Type) string {
	switch k {
	case KindEmail:
		return "email"
	case KindURL:
		if baseType(t).Kind() == reflect.String {
			return "url"
		}
	}
	return ""
}
