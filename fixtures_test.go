// FILE: lixenwraith/settings/fixtures_test.go
package settings

import (
	"errors"
	"net/url"
	"time"
)

type ApiSettings struct {
	Host string `setting:"string"`
}

func (s *ApiSettings) Defaults() { s.Host = "nope" }

type PubsubSettings struct {
	ProjectID string `setting:"string" alias:"GCP_PROJECT" pushenv:"true"`
}

type RequiredSettings struct {
	Token string `setting:"string"`
}

type SmtpSettings struct {
	Host      string        `setting:"string" default:"localhost"`
	Port      int           `setting:"int" validate:"gte=1,lte=65535"`
	FromEmail string        `setting:"email" desc:"Sender address"`
	Password  string        `setting:"string,optional" secret:"true"`
	Timeout   time.Duration `setting:"duration" default:"5s"`
	Debug     bool          `setting:"boolean" default:"false" devonly:"true"`
}

func (s *SmtpSettings) Defaults() { s.Port = 25 }

type CoercionSettings struct {
	Count    int            `setting:"int,optional"`
	Ratio    float64        `setting:"number,optional"`
	Enabled  bool           `setting:"boolean,optional"`
	Start    time.Time      `setting:"date,optional"`
	Tags     []string       `setting:"array,optional"`
	Limits   map[string]int `setting:"object,optional"`
	Level    string         `setting:"enum,optional" validate:"omitempty,oneof=debug info warn"`
	Endpoint *url.URL       `setting:"url,optional"`
}

type BaseServiceSettings struct {
	Name   string `setting:"string" default:"svc"`
	APIKey string `setting:"string,optional" secret:"true" alias:"SERVICE_API_KEY"`
}

type WorkerSettings struct {
	BaseServiceSettings
	Concurrency int `setting:"int" default:"4"`
}

type ShadowSettings struct {
	BaseServiceSettings
	Region string `setting:"string" default:"eu"`
}

type EmptySettings struct {
	Note string
}

type PoolConfig struct {
	Size  int      `json:"size" validate:"gte=1"`
	Hosts []string `json:"hosts" validate:"min=1"`
}

type CacheSettings struct {
	Pool   PoolConfig `setting:"object"`
	Bucket string     `setting:"string" pattern:"^[a-z]+$" default:"abc"`
}

type CredentialSettings struct {
	Username string `setting:"string,optional"`
	Password string `setting:"string,optional" secret:"true"`
	MinPool  int    `setting:"int" default:"1"`
	MaxPool  int    `setting:"int" default:"10"`
}

func (s *CredentialSettings) RefineSchema(schema *Schema) {
	schema.Refine(func(v map[string]any) bool {
		return v["minPool"].(int) <= v["maxPool"].(int)
	}, "minPool must not exceed maxPool", "minPool")
}

func (s *CredentialSettings) Validate() error {
	if (s.Username == "") != (s.Password == "") {
		return errors.New("username and password must be set together")
	}
	return nil
}

type NullableSettings struct {
	Label   *string `setting:"string"`
	Comment string  `setting:"string,nullable"`
	Strict  string  `setting:"string,optional"`
}

type ListSettings struct {
	Tags    []string          `setting:"array" validate:"min=1"`
	Hosts   []string          `setting:"array,optional"`
	Labels  map[string]string `setting:"object,optional,nullable"`
}

type FlagSettings struct {
	Debug   bool `setting:"boolean"`
	Verbose bool `setting:"boolean" default:"false"`
	Retries int  `setting:"int" default:"0"`
}

func (s *FlagSettings) Defaults() { s.Debug = false }

type MismatchSettings struct {
	Port string `setting:"int"`
}
