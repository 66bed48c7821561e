// File: lixenwraith/settings/builder.go
package settings

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ValidatorFunc defines the signature for a function that can validate a Registry.
// It receives the built, and possibly initialized, registry.
type ValidatorFunc func(r *Registry) error

// Builder provides a fluent interface for building registries
type Builder struct {
	local      map[string]Loader
	eager      map[string]Loader
	opts       []RegistryOption
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new registry builder
func NewBuilder() *Builder {
	return &Builder{
		local:      make(map[string]Loader),
		eager:      make(map[string]Loader),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithLoader adds a local loader, called on every access until a later
// Initialize resolves the key
func (b *Builder) WithLoader(key string, loader Loader) *Builder {
	if b.checkKey(key) {
		b.local[key] = loader
	}
	return b
}

// WithInitializer adds a loader resolved once when the registry is built
func (b *Builder) WithInitializer(key string, loader Loader) *Builder {
	if b.checkKey(key) {
		b.eager[key] = loader
	}
	return b
}

// WithLogger sets the registry logger
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.opts = append(b.opts, WithLogger(logger))
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

func (b *Builder) checkKey(key string) bool {
	if b.err != nil {
		return false
	}
	if !isValidKeySegment(key) {
		b.err = fmt.Errorf("invalid registry key %q", key)
		return false
	}
	return true
}

// Build creates the Registry, initializing the eager loaders when present
func (b *Builder) Build() (*Registry, error) {
	return b.BuildAndInitialize(context.Background())
}

// BuildAndInitialize is like Build but bounds initialization by ctx
func (b *Builder) BuildAndInitialize(ctx context.Context) (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}

	r := NewRegistry(b.local, b.opts...)
	if len(b.eager) > 0 {
		if err := r.Initialize(ctx, b.eager); err != nil {
			return nil, err
		}
	}

	for _, validator := range b.validators {
		if err := validator(r); err != nil {
			return nil, fmt.Errorf("registry validation failed: %w", err)
		}
	}
	return r, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("settings registry build failed: %v", err))
	}
	return r
}
