// FILE: lixenwraith/settings/validate.go
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Issue codes
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidString = "invalid_string"
	CodeInvalidEnum   = "invalid_enum_value"
	CodeInvalidDate   = "invalid_date"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeCustom        = "custom"
)

var (
	engineOnce sync.Once
	engine     *validator.Validate
)

// constraints returns the shared validator instance
func constraints() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New(validator.WithRequiredStructEnabled())
		engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return lowerCamel(fld.Name)
			}
			return name
		})
	})
	return engine
}

// issueSet accumulates issues together with the engine errors behind them
type issueSet struct {
	class  string
	issues []Issue
	causes []error
}

func (s *issueSet) add(path []string, code, message string, meta map[string]any, cause error) {
	s.issues = append(s.issues, Issue{
		Path:    path,
		Message: fmt.Sprintf("%s.%s: %s", s.class, strings.Join(path, "."), message),
		Code:    code,
		Meta:    meta,
	})
	if cause == nil {
		cause = errors.New(strings.Join(path, ".") + ": " + message)
	}
	s.causes = append(s.causes, cause)
}

func (s *issueSet) err() error {
	if len(s.issues) == 0 {
		return nil
	}
	return &ValidationError{Class: s.class, Issues: s.issues, cause: errors.Join(s.causes...)}
}

// validate coerces and checks the merged input, returning the final value of
// every field that is set after validation.
func (s *Schema) validate(input map[string]any) (map[string]reflect.Value, error) {
	values := make(map[string]reflect.Value, len(s.Fields))
	set := &issueSet{class: s.Class}

	for _, b := range s.Fields {
		path := []string{b.Key}

		raw, present := input[b.Key]
		if !present && b.HasDefault {
			raw, present = b.Default, true
		}
		if !present {
			if b.Required() {
				set.add(path, CodeInvalidType, "Required",
					map[string]any{"expected": string(b.Kind), "received": "undefined"}, nil)
			}
			continue
		}

		if isNil(raw) {
			if b.nullable() {
				values[b.Key] = reflect.Zero(b.Type)
				continue
			}
			set.add(path, CodeInvalidType, fmt.Sprintf("Expected %s, received null", b.Kind),
				map[string]any{"expected": string(b.Kind), "received": "null"}, nil)
			continue
		}

		v, err := decodeValue(raw, b.Type)
		if err != nil {
			s.decodeIssue(set, b, raw, err)
			continue
		}

		if b.pattern != nil && !b.pattern.MatchString(patternSubject(v)) {
			set.add(path, CodeInvalidString, "Invalid",
				map[string]any{"validation": "regex"}, nil)
			continue
		}

		if isNil(v.Interface()) {
			if !b.nullable() {
				set.add(path, CodeInvalidType, fmt.Sprintf("Expected %s, received null", b.Kind),
					map[string]any{"expected": string(b.Kind), "received": "null"}, nil)
				continue
			}
			values[b.Key] = v
			continue
		}

		if b.rules != "" {
			if err := constraints().Var(v.Interface(), b.rules); err != nil {
				translateEngineError(set, path, err, true)
				continue
			}
		}

		if isNestedStruct(b.Type) {
			if err := constraints().Struct(v.Interface()); err != nil {
				translateEngineError(set, path, err, false)
				continue
			}
		}

		values[b.Key] = v
	}

	if len(set.issues) == 0 && len(s.refinements) > 0 {
		checked := make(map[string]any, len(values))
		for key, v := range values {
			checked[key] = v.Interface()
		}
		for _, r := range s.refinements {
			if !r.fn(checked) {
				set.add(r.path, CodeCustom, r.message, nil, nil)
			}
		}
	}

	if err := set.err(); err != nil {
		return nil, err
	}
	return values, nil
}

// nullable reports whether an explicit nil is accepted: the field is declared
// nullable, or it is a pointer, which is never required.
func (b *Binding) nullable() bool {
	return b.Nullable || b.Type.Kind() == reflect.Ptr
}

func (s *Schema) decodeIssue(set *issueSet, b *Binding, raw any, err error) {
	path := []string{b.Key}
	received := receivedType(raw)

	switch {
	case b.Kind == KindDate && received == "string":
		set.add(path, CodeInvalidDate, "Invalid date", nil, err)
	case b.Kind == KindURL && received == "string":
		set.add(path, CodeInvalidString, "Invalid url", map[string]any{"validation": "url"}, err)
	default:
		set.add(path, CodeInvalidType, fmt.Sprintf("Expected %s, received %s", b.Kind, received),
			map[string]any{"expected": string(b.Kind), "received": received}, err)
	}
}

// translateEngineError maps validator field errors onto issues. Errors from a
// single-value check carry no namespace and are reported at the field path.
func translateEngineError(set *issueSet, base []string, err error, single bool) {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		set.add(base, CodeCustom, err.Error(), nil, err)
		return
	}

	for _, fe := range fieldErrors {
		path := base
		if !single {
			path = append(append([]string{}, base...), namespacePath(fe.Namespace())...)
		}
		code, message, meta := describeFieldError(fe)
		set.add(path, code, message, meta, fe)
	}
}

// namespacePath turns "Pool.hosts[0].port" into [hosts 0 port]
func namespacePath(ns string) []string {
	segments := strings.Split(ns, ".")
	if len(segments) > 0 {
		segments = segments[1:]
	}

	var path []string
	for _, seg := range segments {
		for seg != "" {
			open := strings.IndexByte(seg, '[')
			if open < 0 {
				path = append(path, seg)
				break
			}
			if open > 0 {
				path = append(path, seg[:open])
			}
			end := strings.IndexByte(seg[open:], ']')
			if end < 0 {
				path = append(path, seg[open:])
				break
			}
			path = append(path, seg[open+1:open+end])
			seg = seg[open+end+1:]
		}
	}
	return path
}

func describeFieldError(fe validator.FieldError) (code, message string, meta map[string]any) {
	subject := subjectOf(fe.Kind())
	bound := numericParam(fe.Param())

	switch fe.Tag() {
	case "required":
		return CodeInvalidType, "Required", map[string]any{"received": "undefined"}

	case "min", "gte":
		return CodeTooSmall, lowerBoundMessage(subject, fe.Param(), true),
			map[string]any{"minimum": bound, "inclusive": true, "type": subject}
	case "gt":
		return CodeTooSmall, lowerBoundMessage(subject, fe.Param(), false),
			map[string]any{"minimum": bound, "inclusive": false, "type": subject}
	case "max", "lte":
		return CodeTooBig, upperBoundMessage(subject, fe.Param(), true),
			map[string]any{"maximum": bound, "inclusive": true, "type": subject}
	case "lt":
		return CodeTooBig, upperBoundMessage(subject, fe.Param(), false),
			map[string]any{"maximum": bound, "inclusive": false, "type": subject}

	case "len", "eq":
		if subject == "number" {
			return CodeCustom, fmt.Sprintf("Number must be exactly %s", fe.Param()), nil
		}
		if isShorter(fe) {
			return CodeTooSmall, exactMessage(subject, fe.Param()),
				map[string]any{"minimum": bound, "inclusive": true, "type": subject}
		}
		return CodeTooBig, exactMessage(subject, fe.Param()),
			map[string]any{"maximum": bound, "inclusive": true, "type": subject}

	case "oneof":
		options := strings.Fields(fe.Param())
		quoted := make([]string, len(options))
		for i, o := range options {
			quoted[i] = "'" + o + "'"
		}
		return CodeInvalidEnum,
			fmt.Sprintf("Invalid enum value. Expected %s, received '%v'", strings.Join(quoted, " | "), fe.Value()),
			map[string]any{"received": fmt.Sprint(fe.Value())}

	case "email":
		return CodeInvalidString, "Invalid email", map[string]any{"validation": "email"}
	case "url", "http_url", "uri":
		return CodeInvalidString, "Invalid url", map[string]any{"validation": "url"}
	case "uuid", "uuid4", "ip", "ipv4", "ipv6", "cidr", "hostname", "hostname_rfc1123", "fqdn", "datetime", "alpha", "alphanum", "numeric":
		return CodeInvalidString, "Invalid " + fe.Tag(), map[string]any{"validation": fe.Tag()}
	}

	return CodeCustom, fmt.Sprintf("Failed on the '%s' rule", fe.Tag()), nil
}

func subjectOf(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "array"
	}
	return "number"
}

func lowerBoundMessage(subject, param string, inclusive bool) string {
	switch subject {
	case "string":
		if inclusive {
			return fmt.Sprintf("String must contain at least %s character(s)", param)
		}
		return fmt.Sprintf("String must contain more than %s character(s)", param)
	case "array":
		if inclusive {
			return fmt.Sprintf("Array must contain at least %s element(s)", param)
		}
		return fmt.Sprintf("Array must contain more than %s element(s)", param)
	}
	if inclusive {
		return fmt.Sprintf("Number must be greater than or equal to %s", param)
	}
	return fmt.Sprintf("Number must be greater than %s", param)
}

func upperBoundMessage(subject, param string, inclusive bool) string {
	switch subject {
	case "string":
		if inclusive {
			return fmt.Sprintf("String must contain at most %s character(s)", param)
		}
		return fmt.Sprintf("String must contain fewer than %s character(s)", param)
	case "array":
		if inclusive {
			return fmt.Sprintf("Array must contain at most %s element(s)", param)
		}
		return fmt.Sprintf("Array must contain fewer than %s element(s)", param)
	}
	if inclusive {
		return fmt.Sprintf("Number must be less than or equal to %s", param)
	}
	return fmt.Sprintf("Number must be less than %s", param)
}

func exactMessage(subject, param string) string {
	if subject == "string" {
		return fmt.Sprintf("String must contain exactly %s character(s)", param)
	}
	return fmt.Sprintf("Array must contain exactly %s element(s)", param)
}

// isShorter reports whether a length mismatch is below the expected length
func isShorter(fe validator.FieldError) bool {
	want, err := strconv.Atoi(fe.Param())
	if err != nil {
		return false
	}
	rv := reflect.ValueOf(fe.Value())
	switch rv.Kind() {
	case reflect.String:
		return len([]rune(rv.String())) < want
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() < want
	}
	return false
}

func numericParam(param string) any {
	if n, err := strconv.ParseFloat(param, 64); err == nil {
		return n
	}
	return param
}

// patternSubject renders a decoded value as the text a pattern is matched against
func patternSubject(v reflect.Value) string {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	if u, ok := v.Interface().(url.URL); ok {
		return u.String()
	}
	return fmt.Sprint(v.Interface())
}

// isNestedStruct reports whether field values are structs checked with Struct
func isNestedStruct(t reflect.Type) bool {
	t = baseType(t)
	if t.Kind() != reflect.Struct {
		return false
	}
	switch t {
	case timeType, urlType, ipNetType:
		return false
	}
	return true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
