// FILE: lixenwraith/settings/redact_test.go
package settings

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type maskedSettings struct {
	User  string `setting:"string"`
	Token string `setting:"string" secret:"true"`
}

func (s maskedSettings) MarshalJSON() ([]byte, error) { return MarshalRedacted(s) }

// TestRedact tests secret masking in serialized output
func TestRedact(t *testing.T) {
	t.Run("SecretFieldsMasked", func(t *testing.T) {
		smtp := &SmtpSettings{Host: "h", Port: 25, FromEmail: "a@b.c", Password: "p", Timeout: 2 * time.Second}

		out, err := Redact(smtp)
		require.NoError(t, err)
		assert.Equal(t, Mask, out["password"])
		assert.Equal(t, "h", out["host"])
		assert.Equal(t, "2s", out["timeout"])
	})

	t.Run("EmptySecretStillMasked", func(t *testing.T) {
		out, err := Redact(SmtpSettings{})
		require.NoError(t, err)
		assert.Equal(t, Mask, out["password"])
	})

	t.Run("InheritedSecret", func(t *testing.T) {
		w := WorkerSettings{BaseServiceSettings: BaseServiceSettings{Name: "w", APIKey: "k"}, Concurrency: 2}

		out, err := Redact(&w)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"concurrency": 2, "name": "w", "apiKey": Mask}, out)
	})

	t.Run("NilPointerFields", func(t *testing.T) {
		out, err := Redact(CoercionSettings{})
		require.NoError(t, err)
		assert.Nil(t, out["endpoint"])
	})

	t.Run("MarshalerDelegation", func(t *testing.T) {
		data, err := json.Marshal(maskedSettings{User: "u", Token: "t"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"user":"u","token":"****"}`, string(data))
	})

	t.Run("InvalidInput", func(t *testing.T) {
		var nilSmtp *SmtpSettings
		_, err := Redact(nilSmtp)
		assert.ErrorIs(t, err, ErrInvalidTarget)

		_, err = Redact(42)
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})
}
