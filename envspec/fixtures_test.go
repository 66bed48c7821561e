// FILE: lixenwraith/settings/envspec/fixtures_test.go
package envspec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type SmtpSettings struct {
	Host      string `setting:"string" default:"localhost"`
	Port      int    `setting:"int" validate:"gte=1,lte=65535"`
	FromEmail string `setting:"email" desc:"Sender address"`
	Password  string `setting:"string,optional" secret:"true"`
	Debug     bool   `setting:"boolean" default:"false" devonly:"true"`
}

func (s *SmtpSettings) Defaults() { s.Port = 25 }

func (s *SmtpSettings) Description() string { return "Outgoing mail." }

type PubsubSettings struct {
	ProjectID string `setting:"string" alias:"GCP_PROJECT"`
	Topic     string `setting:"string" pattern:"^[a-z-]+$" default:"events"`
}

type LogSettings struct {
	Level   string   `setting:"enum" validate:"oneof=debug info" default:"info"`
	Workers int      `setting:"int" validate:"gt=0,max=64" default:"4"`
	Ratio   float64  `setting:"number" default:"0.5"`
	Tags    []string `setting:"array" default:"[\"a\",\"b\"]"`
}

type DevToolsSettings struct {
	Profiler bool `setting:"boolean" default:"false" devonly:"true"`
}

func extract(t *testing.T, opts Options, types ...reflect.Type) *Spec {
	t.Helper()
	spec, err := Extract(opts, types...)
	require.NoError(t, err)
	return spec
}

func smtpAndPubsub(t *testing.T) *Spec {
	return extract(t, Options{}, reflect.TypeFor[SmtpSettings](), reflect.TypeFor[PubsubSettings]())
}
