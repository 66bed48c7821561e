// File: lixenwraith/settings/doc.go

// Package settings provides declarative, typed application settings resolved
// from environment variables, a dotenv file, explicit values and test
// overrides, validated against per-field schemas declared with struct tags.
//
// Features:
//   - Field schemas declared with `setting`, `validate`, `pattern` and `default` tags
//   - Inheritable metadata: secret, dev-only, alias and push-to-environment
//   - Environment names derived from the type name (SmtpSettings.FromEmail -> SMTP_FROM_EMAIL)
//   - Coercion of strings into numbers, booleans, dates, durations and JSON values
//   - Structured validation errors with one issue per failing field
//   - A lazily or asynchronously initialized Registry of named settings instances
//   - Redacted serialization of secret fields
//
// Quick Start:
//
//	type SmtpSettings struct {
//	    Host      string `setting:"string" default:"localhost"`
//	    Port      int    `setting:"int" validate:"gte=1,lte=65535"`
//	    FromEmail string `setting:"email"`
//	    Password  string `setting:"string,optional" secret:"true"`
//	}
//
//	func (s *SmtpSettings) Defaults() { s.Port = 25 }
//
//	smtp, err := settings.Load[SmtpSettings]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Precedence (lowest to highest):
//  1. Declared defaults (Defaults method, then `default` tags for absent fields)
//  2. Exactly one of, first available wins:
//     a. Values registered with OverrideForTest
//     b. Values passed with WithValues
//     c. Environment variables, amended by the dotenv file without overwriting
//
// Registry:
//
//	reg := settings.NewRegistry(map[string]settings.Loader{
//	    "smtp": settings.From[SmtpSettings](),
//	})
//	err := reg.Initialize(ctx, map[string]settings.Loader{
//	    "db": settings.Async(fetchDatabaseSettings),
//	})
//	db, err := settings.Lookup[DatabaseSettings](ctx, reg, "db")
//
// Thread Safety:
// The field schema registry, the test override map and every Registry are
// guarded by mutexes. Test overrides are process-wide: tests that override the
// same settings type must not run in parallel.
package settings
