// FILE: lixenwraith/settings/override.go
package settings

import (
	"reflect"
	"sync"
)

// overrides holds per-type test input. Overrides are process-wide, so tests
// sharing a settings type must not run in parallel with different values.
var overrides = struct {
	mu     sync.RWMutex
	values map[reflect.Type]map[string]any
}{
	values: make(map[reflect.Type]map[string]any),
}

// OverrideForTest makes subsequent loads of T use values in place of the
// environment. Declared defaults still apply underneath.
func OverrideForTest[T any](values map[string]any) {
	OverrideType(reflect.TypeFor[T](), values)
}

// ClearOverride reverts loads of T to environment resolution.
func ClearOverride[T any]() {
	ClearOverrideType(reflect.TypeFor[T]())
}

// OverrideType is the reflect.Type form of OverrideForTest.
func OverrideType(t reflect.Type, values map[string]any) {
	stored := make(map[string]any, len(values))
	for k, v := range values {
		stored[k] = v
	}

	overrides.mu.Lock()
	defer overrides.mu.Unlock()
	overrides.values[baseType(t)] = stored
}

// ClearOverrideType is the reflect.Type form of ClearOverride.
func ClearOverrideType(t reflect.Type) {
	overrides.mu.Lock()
	defer overrides.mu.Unlock()
	delete(overrides.values, baseType(t))
}

func lookupOverride(t reflect.Type) (map[string]any, bool) {
	overrides.mu.RLock()
	defer overrides.mu.RUnlock()
	values, ok := overrides.values[t]
	return values, ok
}
