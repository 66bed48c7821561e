// FILE: lixenwraith/settings/errors.go
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFields means a settings type declares no fields at all
	ErrNoFields = errors.New("no fields registered")

	// ErrInvalidTarget means a load target is not a non-nil pointer to a struct
	ErrInvalidTarget = errors.New("target must be a non-nil pointer to a settings struct")

	// ErrBeforeInit means a registry key was accessed with no loader before Initialize
	ErrBeforeInit = errors.New("accessed before initialization")

	// ErrNotInitialized means an initialized registry has neither a value nor a loader for a key
	ErrNotInitialized = errors.New("accessed but not initialized")

	// ErrUnresolved means serialization met an async loader that has not been resolved
	ErrUnresolved = errors.New("unresolved asynchronous setting")
)

// DeclarationError reports a programmer error in a settings type declaration.
type DeclarationError struct {
	Class string
	Field string
	Err   error
}

func (e *DeclarationError) Error() string {
	if errors.Is(e.Err, ErrNoFields) {
		return fmt.Sprintf("settings: %s: %v; did you forget the `setting` struct tags?", e.Class, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("settings: %s.%s: %v", e.Class, e.Field, e.Err)
	}
	return fmt.Sprintf("settings: %s: %v", e.Class, e.Err)
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// Issue describes one failing field of a validation
type Issue struct {
	Path    []string       `json:"path"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ValidationError carries one issue per failing field. The engine errors
// that produced the issues are kept as the cause and are not serialized.
type ValidationError struct {
	Class  string
	Issues []Issue

	cause error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "Validation failed"
	}
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = issue.Message
	}
	return strings.Join(lines, "\n")
}

// Unwrap returns the underlying engine error
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// MarshalJSON omits the cause
func (e *ValidationError) MarshalJSON() ([]byte, error) {
	issues := e.Issues
	if issues == nil {
		issues = []Issue{}
	}
	return json.Marshal(struct {
		Name    string  `json:"name"`
		Message string  `json:"message"`
		Issues  []Issue `json:"issues"`
	}{
		Name:    "ValidationError",
		Message: e.Error(),
		Issues:  issues,
	})
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AccessError reports a registry key that cannot be served.
type AccessError struct {
	Key string
	Err error
}

func (e *AccessError) Error() string {
	if errors.Is(e.Err, ErrBeforeInit) {
		return fmt.Sprintf("settings: key %q %v; call Registry.Initialize (or register a loader for it) first", e.Key, e.Err)
	}
	return fmt.Sprintf("settings: key %q %v; it was never registered with a loader", e.Key, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

func unresolvedError(key string) error {
	return fmt.Errorf("settings: %w: key %q; call Registry.Initialize before serializing", ErrUnresolved, key)
}
