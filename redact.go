// FILE: lixenwraith/settings/redact.go
package settings

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"
)

// Mask replaces the value of every secret field in serialized output
const Mask = "****"

// Redact returns the fields of a settings instance keyed by field key, with
// secret fields replaced by Mask whatever their type.
func Redact(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("settings: %w, got nil %T", ErrInvalidTarget, v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("settings: %w, got %T", ErrInvalidTarget, v)
	}

	s, err := compose(rv.Type())
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(s.Fields))
	for _, b := range s.Fields {
		if b.Meta.Secret {
			out[b.Key] = Mask
			continue
		}
		out[b.Key] = plainValue(rv.FieldByIndex(b.index))
	}
	return out, nil
}

// MarshalRedacted encodes a settings instance as JSON with secrets masked.
// Settings types can delegate their MarshalJSON to it.
func MarshalRedacted(v any) ([]byte, error) {
	redacted, err := Redact(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(redacted)
}

// plainValue converts a field to a value with a readable serialization
func plainValue(v reflect.Value) any {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch val := v.Interface().(type) {
	case time.Duration:
		return val.String()
	case time.Time:
		return val
	case url.URL:
		return val.String()
	case net.IP:
		return val.String()
	case net.IPNet:
		return val.String()
	}
	return v.Interface()
}
