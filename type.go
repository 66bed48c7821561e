// File: lixenwraith/settings/type.go
package settings

import (
	"context"
	"fmt"
	"reflect"
)

// Lookup retrieves the settings instance for key as a *T.
// Values stored as T are returned as a pointer to a copy.
func Lookup[T any](ctx context.Context, r *Registry, key string) (*T, error) {
	v, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case *T:
		return val, nil
	case T:
		return &val, nil
	}
	return nil, fmt.Errorf("settings: key %q holds %T, not %s", key, v, reflect.TypeFor[T]())
}

// MustLookup is like Lookup but panics on error
func MustLookup[T any](r *Registry, key string) *T {
	v, err := Lookup[T](context.Background(), r, key)
	if err != nil {
		panic(fmt.Sprintf("settings lookup failed: %v", err))
	}
	return v
}
