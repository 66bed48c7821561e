// FILE: lixenwraith/settings/envspec/spec_test.go
package envspec

import (
	"reflect"
	"testing"

	"github.com/lixenwraith/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtract tests the introspection model
func TestExtract(t *testing.T) {
	t.Run("GroupsInTypeOrder", func(t *testing.T) {
		spec := smtpAndPubsub(t)
		require.Len(t, spec.Groups, 2)

		smtp := spec.Groups[0]
		assert.Equal(t, "SmtpSettings", smtp.Class)
		assert.Equal(t, "SMTP", smtp.Prefix)
		assert.Equal(t, "smtp", smtp.Section())
		assert.Equal(t, "Outgoing mail.", smtp.Description)
		assert.True(t, smtp.HasSecrets())
		assert.False(t, smtp.HasAlias())

		names := make([]string, len(smtp.Vars))
		for i, v := range smtp.Vars {
			names[i] = v.Name
		}
		assert.Equal(t, []string{"SMTP_HOST", "SMTP_PORT", "SMTP_FROM_EMAIL", "SMTP_PASSWORD", "SMTP_DEBUG"}, names)

		pubsub := spec.Groups[1]
		assert.True(t, pubsub.HasAlias())
		assert.False(t, pubsub.HasSecrets())
		assert.Equal(t, "PUBSUB_PROJECT_ID", pubsub.Vars[0].Name)
		assert.Equal(t, "GCP_PROJECT", pubsub.Vars[0].Alias)
	})

	t.Run("DefaultsAndRequired", func(t *testing.T) {
		smtp := smtpAndPubsub(t).Groups[0]
		byName := make(map[string]Var)
		for _, v := range smtp.Vars {
			byName[v.Name] = v
		}

		require.NotNil(t, byName["SMTP_HOST"].Default)
		assert.Equal(t, "localhost", *byName["SMTP_HOST"].Default)

		require.NotNil(t, byName["SMTP_PORT"].Default)
		assert.Equal(t, "25", *byName["SMTP_PORT"].Default)
		assert.False(t, byName["SMTP_PORT"].Required)

		assert.Nil(t, byName["SMTP_FROM_EMAIL"].Default)
		assert.True(t, byName["SMTP_FROM_EMAIL"].Required)
		assert.Equal(t, "Sender address", byName["SMTP_FROM_EMAIL"].Description)

		assert.False(t, byName["SMTP_PASSWORD"].Required)
		assert.True(t, byName["SMTP_PASSWORD"].Secret)
		assert.True(t, byName["SMTP_DEBUG"].DevOnly)
		assert.Equal(t, settings.KindBoolean, byName["SMTP_DEBUG"].Kind)
	})

	t.Run("Types", func(t *testing.T) {
		spec := extract(t, Options{}, reflect.TypeFor[SmtpSettings](), reflect.TypeFor[LogSettings]())

		assert.Equal(t, "int >= 1 <= 65535", spec.Groups[0].Vars[1].Type)
		assert.Equal(t, "email", spec.Groups[0].Vars[2].Type)
		assert.Equal(t, "enum [debug, info]", spec.Groups[1].Vars[0].Type)
		assert.Equal(t, "int > 0 <= 64", spec.Groups[1].Vars[1].Type)
	})

	t.Run("SkipDevOnly", func(t *testing.T) {
		spec := extract(t, Options{SkipDevOnly: true},
			reflect.TypeFor[SmtpSettings](), reflect.TypeFor[DevToolsSettings]())

		require.Len(t, spec.Groups, 1)
		for _, v := range spec.Groups[0].Vars {
			assert.NotEqual(t, "SMTP_DEBUG", v.Name)
		}
	})

	t.Run("PointerTypes", func(t *testing.T) {
		spec := extract(t, Options{}, reflect.TypeFor[*PubsubSettings]())
		assert.Equal(t, "PubsubSettings", spec.Groups[0].Class)
	})

	t.Run("DeclarationErrors", func(t *testing.T) {
		_, err := Extract(Options{}, reflect.TypeFor[int]())
		assert.ErrorIs(t, err, settings.ErrInvalidTarget)

		type bare struct{ Name string }
		_, err = Extract(Options{}, reflect.TypeFor[bare]())
		assert.ErrorIs(t, err, settings.ErrNoFields)
	})
}

// TestFormatType tests type annotations
func TestFormatType(t *testing.T) {
	tests := []struct {
		name string
		v    Var
		want string
	}{
		{"Plain", Var{Type: "string"}, "string"},
		{"Optional", Var{Type: "string", Optional: true}, "string [optional]"},
		{"DevOnly", Var{Type: "boolean", DevOnly: true}, "boolean [devOnly]"},
		{"All", Var{Type: "string", Pattern: "^a$", Optional: true, DevOnly: true}, "string [pattern, optional, devOnly]"},
		{"Whitespace", Var{Type: " int   >= 1 "}, "int >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatType(tt.v))
		})
	}
}
