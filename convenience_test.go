// FILE: lixenwraith/settings/convenience_test.go
package settings

import (
	"bytes"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDumpTOML tests TOML rendering of a registry
func TestDumpTOML(t *testing.T) {
	r := NewRegistry(map[string]Loader{
		"smtp": From[SmtpSettings](
			WithValues(map[string]any{"fromEmail": "ops@example.com", "password": "secret"}),
			WithoutDotenv(),
		),
		"coercion": From[CoercionSettings](WithValues(map[string]any{"ratio": 0.5}), WithoutDotenv()),
	})

	var buf bytes.Buffer
	require.NoError(t, DumpTOML(&buf, r))

	var decoded map[string]map[string]any
	_, err := toml.Decode(buf.String(), &decoded)
	require.NoError(t, err)

	assert.Equal(t, int64(25), decoded["smtp"]["port"])
	assert.Equal(t, Mask, decoded["smtp"]["password"])
	assert.Equal(t, "5s", decoded["smtp"]["timeout"])
	assert.Equal(t, 0.5, decoded["coercion"]["ratio"])
	assert.NotContains(t, decoded["coercion"], "endpoint")
	assert.NotContains(t, buf.String(), "secret")
}
