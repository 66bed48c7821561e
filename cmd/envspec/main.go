// FILE: lixenwraith/settings/cmd/envspec/main.go
package main

import (
	"os"
	"reflect"
	"time"

	"github.com/lixenwraith/settings"
	"github.com/lixenwraith/settings/cli"
)

// SmtpSettings configures outgoing mail
type SmtpSettings struct {
	Host      string        `setting:"string" default:"localhost"`
	Port      int           `setting:"int" validate:"gte=1,lte=65535"`
	FromEmail string        `setting:"email" desc:"Address used in the From header"`
	Password  string        `setting:"string,optional" secret:"true"`
	Timeout   time.Duration `setting:"duration" default:"10s"`
}

func (s *SmtpSettings) Defaults() { s.Port = 587 }

func (s *SmtpSettings) Description() string { return "Outgoing mail delivery." }

// PubsubSettings configures event publishing
type PubsubSettings struct {
	ProjectID string `setting:"string" alias:"GCP_PROJECT" pushenv:"true"`
	Topic     string `setting:"string" pattern:"^[a-z][a-z0-9-]*$" default:"events" desc:"Topic receiving domain events"`
	Emulator  bool   `setting:"boolean" default:"false" devonly:"true"`
}

// DatabaseSettings configures the primary database
type DatabaseSettings struct {
	URL      string   `setting:"url"`
	MaxConns int      `setting:"int" validate:"gt=0,max=500" default:"20"`
	Replicas []string `setting:"array,optional"`
	Password string   `setting:"string" secret:"true"`
}

func main() {
	// Registration runs once at startup, like package-level declarations
	settings.Define[SmtpSettings]()
	settings.Define[PubsubSettings]()
	settings.Define[DatabaseSettings]()

	root := cli.New("envspec", cli.WithTypes(
		reflect.TypeFor[SmtpSettings](),
		reflect.TypeFor[PubsubSettings](),
		reflect.TypeFor[DatabaseSettings](),
	))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
