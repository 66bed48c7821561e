// File: lixenwraith/settings/convenience.go
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// MustLoad is like Load but panics on error
func MustLoad[T any](opts ...LoadOption) *T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("settings load failed: %v", err))
	}
	return v
}

// DumpTOML writes the redacted registry contents as TOML, one table per key.
// Null values are omitted since TOML cannot represent them.
func DumpTOML(w io.Writer, r *Registry) error {
	data, err := r.MarshalJSON()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return fmt.Errorf("settings: decoding snapshot: %w", err)
	}

	if err := toml.NewEncoder(w).Encode(tomlValue(tree)); err != nil {
		return fmt.Errorf("settings: encoding TOML: %w", err)
	}
	return nil
}

// tomlValue drops nulls and restores integer and float numbers
func tomlValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			out[k] = tomlValue(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if item != nil {
				out = append(out, tomlValue(item))
			}
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	}
	return v
}
