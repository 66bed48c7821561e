// FILE: lixenwraith/settings/loader.go
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// source names the input layered on top of declared defaults for one load
type source string

const (
	sourceOverride source = "override" // OverrideForTest values
	sourceValues   source = "values"   // WithValues input
	sourceEnv      source = "env"      // environment and dotenv file
)

// Defaulter is implemented by settings types that declare default values.
// Load calls Defaults on the fresh instance before capturing its fields.
// Only non-zero fields are captured: a false or 0 set here is
// indistinguishable from unset, so such a field stays required. Declare it
// with a `default:"false"` or `default:"0"` tag instead.
type Defaulter interface {
	Defaults()
}

// SchemaRefiner is implemented by settings types that add cross-field checks
// to their composed schema before validation.
type SchemaRefiner interface {
	RefineSchema(s *Schema)
}

// Validator is implemented by settings types with business rules that run
// after all fields are assigned. Its error is returned unchanged.
type Validator interface {
	Validate() error
}

// LoadOptions configures how a single load resolves its input
type LoadOptions struct {
	// Values replaces the environment as input when non-nil
	Values map[string]any

	// Env replaces the process environment snapshot when non-nil
	Env map[string]string

	// DotenvPath is read once per load; empty means DotenvPath()
	DotenvPath string

	// SkipDotenv disables dotenv reading
	SkipDotenv bool
}

// LoadOption mutates LoadOptions
type LoadOption func(*LoadOptions)

// WithValues supplies explicit input values keyed by field key.
// They are used instead of the environment, still on top of defaults.
func WithValues(values map[string]any) LoadOption {
	return func(o *LoadOptions) {
		o.Values = values
	}
}

// WithEnv replaces the process environment as the variable source.
func WithEnv(env map[string]string) LoadOption {
	return func(o *LoadOptions) {
		o.Env = env
	}
}

// WithDotenv reads variables from the dotenv file at path.
func WithDotenv(path string) LoadOption {
	return func(o *LoadOptions) {
		o.DotenvPath = path
		o.SkipDotenv = false
	}
}

// WithoutDotenv disables dotenv reading.
func WithoutDotenv() LoadOption {
	return func(o *LoadOptions) {
		o.SkipDotenv = true
	}
}

// Load allocates a fresh T, applies its declared defaults and resolves every
// registered field. Precedence, lowest first: declared defaults, then exactly
// one of test override, explicit values, or environment.
func Load[T any](opts ...LoadOption) (*T, error) {
	target := new(T)
	if d, ok := any(target).(Defaulter); ok {
		d.Defaults()
	}
	if err := LoadInto(target, opts...); err != nil {
		return nil, err
	}
	return target, nil
}

// LoadInto resolves the registered fields of the struct target points to.
// The current non-zero field values act as the declared defaults.
func LoadInto(target any, opts ...LoadOption) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("settings: %w, got %T", ErrInvalidTarget, target)
	}
	instance := rv.Elem()

	s, err := compose(instance.Type())
	if err != nil {
		return err
	}
	if r, ok := target.(SchemaRefiner); ok {
		r.RefineSchema(s)
	}

	options := LoadOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	merged := s.captureDefaults(instance)
	_, input, err := s.resolveInput(options)
	if err != nil {
		return err
	}
	for key, value := range input {
		merged[key] = value
	}

	validated, err := s.validate(merged)
	if err != nil {
		return err
	}
	s.assign(instance, validated)

	if err := s.pushToEnv(instance); err != nil {
		return err
	}

	if v, ok := target.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// resolveInput selects the single source layered over defaults.
// First match wins: test override, explicit values, environment.
func (s *Schema) resolveInput(o LoadOptions) (source, map[string]any, error) {
	if values, ok := lookupOverride(s.Type); ok {
		return sourceOverride, s.canonicalize(values), nil
	}
	if o.Values != nil {
		return sourceValues, s.canonicalize(o.Values), nil
	}

	env, err := environment(o)
	if err != nil {
		return "", nil, err
	}
	return sourceEnv, s.fromEnv(env), nil
}

// canonicalize keeps declared keys only, normalized to field keys
func (s *Schema) canonicalize(values map[string]any) map[string]any {
	result := make(map[string]any, len(values))
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if key, ok := s.canonical(k); ok {
			result[key] = values[k]
		}
	}
	return result
}

// fromEnv extracts prefixed variables, then applies alias variables on top
func (s *Schema) fromEnv(env map[string]string) map[string]any {
	names := make([]string, 0, len(env))
	for name := range env {
		if strings.HasPrefix(name, s.Prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result := make(map[string]any)
	for _, name := range names {
		if key, ok := s.canonical(camelCase(strings.TrimPrefix(name, s.Prefix))); ok {
			result[key] = env[name]
		}
	}

	for _, b := range s.Fields {
		if b.Meta.Alias == "" {
			continue
		}
		if value, ok := env[b.Meta.Alias]; ok {
			result[b.Key] = value
		}
	}
	return result
}

// environment snapshots the variable source and amends it with the dotenv
// file. Variables already present are never overwritten by the file.
func environment(o LoadOptions) (map[string]string, error) {
	env := make(map[string]string)
	if o.Env != nil {
		for k, v := range o.Env {
			env[k] = v
		}
	} else {
		for _, kv := range os.Environ() {
			if name, value, ok := strings.Cut(kv, "="); ok && name != "" {
				env[name] = value
			}
		}
	}

	if o.SkipDotenv {
		return env, nil
	}

	path := o.DotenvPath
	if path == "" {
		path = DotenvPath()
	}
	fileVars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return env, nil
		}
		return nil, fmt.Errorf("settings: reading dotenv %s: %w", path, err)
	}
	for name, value := range fileVars {
		if _, exists := env[name]; !exists {
			env[name] = value
		}
	}
	return env, nil
}

// assign writes validated values onto the instance
func (s *Schema) assign(instance reflect.Value, values map[string]reflect.Value) {
	for _, b := range s.Fields {
		v, ok := values[b.Key]
		if !ok {
			continue
		}
		instance.FieldByIndex(b.index).Set(v)
	}
}

// pushToEnv writes flagged fields into the process environment
func (s *Schema) pushToEnv(instance reflect.Value) error {
	for _, b := range s.Fields {
		if !b.Meta.PushToEnv {
			continue
		}
		str, ok := stringify(instance.FieldByIndex(b.index))
		if !ok || str == "" {
			continue
		}
		if err := os.Setenv(b.Variable(), str); err != nil {
			return fmt.Errorf("settings: pushing %s to environment: %w", b.Variable(), err)
		}
	}
	return nil
}

// FormatValue renders v as an environment variable value. It reports false
// for nil values, which have no textual form.
func FormatValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	return stringify(reflect.ValueOf(v))
}

// stringify renders a field value the way it is written to the environment
func stringify(v reflect.Value) (string, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}

	switch val := v.Interface().(type) {
	case string:
		return val, true
	case time.Time:
		return val.Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return val.String(), true
	}
	if v.CanAddr() {
		if s, ok := v.Addr().Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.IsNil() {
			return "", false
		}
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return "", false
		}
		return string(data), true
	}
	return fmt.Sprint(v.Interface()), true
}
