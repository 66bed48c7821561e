// FILE: lixenwraith/settings/decode.go
package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// dateLayouts are tried in order when coercing strings into time.Time
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// decodeValue coerces a raw source value into a value of type t.
// Values already assignable to t are used as-is.
func decodeValue(raw any, t reflect.Type) (reflect.Value, error) {
	if raw != nil {
		if rv := reflect.ValueOf(raw); rv.Type().AssignableTo(t) {
			return rv, nil
		}
	}

	out := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		TagName:          "json",
		WeaklyTypedInput: false,
		DecodeHook:       decodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return reflect.Value{}, fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return reflect.Value{}, err
	}
	return out.Elem(), nil
}

// decodeHook returns the composite decode hook for all type conversions
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		// Scalars
		stringToBoolHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		stringToNumberHookFunc(),
		floatToIntegerHookFunc(),
		stringToDateHookFunc(),

		// Network types
		stringToNetIPHookFunc(),
		stringToNetIPNetHookFunc(),
		stringToURLHookFunc(),

		// Structured values arrive JSON-encoded from the environment
		jsonStringHookFunc(),
	)
}

// stringToBoolHookFunc accepts "true" and "false" in any case
func stringToBoolHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || baseType(t).Kind() != reflect.Bool {
			return data, nil
		}

		str := strings.TrimSpace(reflect.ValueOf(data).String())
		switch {
		case strings.EqualFold(str, "true"):
			return true, nil
		case strings.EqualFold(str, "false"):
			return false, nil
		}
		// Unconvertible strings fall through to a type mismatch
		return data, nil
	}
}

// stringToNumberHookFunc converts numeric-looking strings for numeric targets
func stringToNumberHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		target := baseType(t)
		if target == durationType {
			return data, nil
		}

		str := strings.TrimSpace(reflect.ValueOf(data).String())
		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if i, err := strconv.ParseInt(str, 10, target.Bits()); err == nil {
				return i, nil
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if u, err := strconv.ParseUint(str, 10, target.Bits()); err == nil {
				return u, nil
			}
		case reflect.Float32, reflect.Float64:
			if n, err := strconv.ParseFloat(str, target.Bits()); err == nil {
				return n, nil
			}
		}
		return data, nil
	}
}

// floatToIntegerHookFunc narrows floats, as produced by JSON decoding, into
// integer targets. Fractional and out-of-range values are rejected.
func floatToIntegerHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
			return data, nil
		}
		target := baseType(t)
		n := reflect.ValueOf(data).Float()

		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			limit := math.Ldexp(1, target.Bits()-1)
			if n != math.Trunc(n) || n < -limit || n >= limit {
				return nil, fmt.Errorf("%v is not a valid %s", n, target.Kind())
			}
			return int64(n), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			limit := math.Ldexp(1, target.Bits())
			if n != math.Trunc(n) || n < 0 || n >= limit {
				return nil, fmt.Errorf("%v is not a valid %s", n, target.Kind())
			}
			return uint64(n), nil
		}
		return data, nil
	}
}

// stringToDateHookFunc parses ISO-like date strings into time.Time
func stringToDateHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || baseType(t) != timeType {
			return data, nil
		}

		str := strings.TrimSpace(reflect.ValueOf(data).String())
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, str); err == nil {
				return parsed, nil
			}
		}
		return nil, fmt.Errorf("invalid date: %q", str)
	}
}

// stringToNetIPHookFunc handles net.IP conversion
func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != ipType {
			return data, nil
		}

		str := reflect.ValueOf(data).String()
		if len(str) > 45 { // Max IPv6 length
			return nil, fmt.Errorf("invalid IP length: %d", len(str))
		}

		ip := net.ParseIP(str)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", str)
		}
		return ip, nil
	}
}

// stringToNetIPNetHookFunc handles net.IPNet conversion
func stringToNetIPNetHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || baseType(t) != ipNetType {
			return data, nil
		}

		str := reflect.ValueOf(data).String()
		if len(str) > 49 { // Max IPv6 CIDR length
			return nil, fmt.Errorf("invalid CIDR length: %d", len(str))
		}
		_, ipnet, err := net.ParseCIDR(str)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		if t.Kind() == reflect.Ptr {
			return ipnet, nil
		}
		return *ipnet, nil
	}
}

// stringToURLHookFunc handles url.URL conversion
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || baseType(t) != urlType {
			return data, nil
		}

		str := reflect.ValueOf(data).String()
		if len(str) > 2048 {
			return nil, fmt.Errorf("URL too long: %d bytes", len(str))
		}
		u, err := url.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if t.Kind() == reflect.Ptr {
			return u, nil
		}
		return *u, nil
	}
}

// jsonStringHookFunc decodes JSON text destined for slices, arrays, maps and
// structs. Text that is not valid JSON is passed through unchanged so the
// decoder reports a type mismatch.
func jsonStringHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}

		target := baseType(t)
		switch target {
		case timeType, urlType, ipType, ipNetType:
			return data, nil
		}
		switch target.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		default:
			return data, nil
		}

		var parsed any
		if err := json.Unmarshal([]byte(reflect.ValueOf(data).String()), &parsed); err != nil {
			return data, nil
		}
		return parsed, nil
	}
}

// receivedType names the shape of a raw value for diagnostics
func receivedType(raw any) string {
	if raw == nil {
		return "null"
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}
	if rv.Type() == timeType {
		return "date"
	}

	switch rv.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return rv.Kind().String()
}
