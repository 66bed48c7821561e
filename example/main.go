// FILE: lixenwraith/settings/example/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lixenwraith/settings"
	"go.uber.org/zap"
)

// SmtpSettings is resolved from the environment and the dotenv file.
type SmtpSettings struct {
	Host      string        `setting:"string" default:"localhost"`
	Port      int           `setting:"int" validate:"gte=1,lte=65535"`
	FromEmail string        `setting:"email"`
	Password  string        `setting:"string,optional" secret:"true"`
	Timeout   time.Duration `setting:"duration" default:"10s"`
}

func (s *SmtpSettings) Defaults() { s.Port = 587 }

// DatabaseSettings is fetched from a slow secret store.
type DatabaseSettings struct {
	URL      string `setting:"url"`
	Password string `setting:"string" secret:"true"`
	MaxConns int    `setting:"int" validate:"gt=0" default:"20"`
}

const dotenvPath = "example.env"

func main() {
	// =========================================================================
	// PART 1: INITIAL SETUP
	// Write a dotenv file for the SMTP settings to read.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 1: Creating dotenv file...")

	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.Remove(dotenvPath)
	}()

	if err := writeDotenv("ops@example.com", "2525"); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", dotenvPath, err)
	}
	log.Printf("✅ Wrote %s.", dotenvPath)

	// =========================================================================
	// PART 2: REGISTRY WITH THE BUILDER
	// smtp is loaded on every access; db needs Initialize.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 2: Building the registry...")

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	smtpLoader := settings.From[SmtpSettings](settings.WithDotenv(dotenvPath))
	registry, err := settings.NewBuilder().
		WithLogger(logger).
		WithLoader("smtp", smtpLoader).
		Build()
	if err != nil {
		log.Fatalf("❌ Builder failed: %v", err)
	}

	smtp, err := settings.Lookup[SmtpSettings](context.Background(), registry, "smtp")
	if err != nil {
		log.Fatalf("❌ Loading smtp failed: %v", err)
	}
	log.Printf("✅ smtp loaded lazily: %s:%d from %s", smtp.Host, smtp.Port, smtp.FromEmail)

	_, err = registry.Get(context.Background(), "db")
	if errors.Is(err, settings.ErrBeforeInit) {
		log.Printf("✅ db before Initialize: %v", err)
	}

	// =========================================================================
	// PART 3: ASYNCHRONOUS INITIALIZATION
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 3: Initializing asynchronous settings...")

	registry.OnReady(func() { log.Println("   (OnReady: registry is initialized)") })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = registry.Initialize(ctx, map[string]settings.Loader{
		"smtp": smtpLoader,
		"db":   settings.Async(fetchDatabaseSettings),
	})
	if err != nil {
		var ve *settings.ValidationError
		if errors.As(err, &ve) {
			for _, issue := range ve.Issues {
				log.Printf("   issue: %s", issue.Message)
			}
		}
		log.Fatalf("❌ Initialize failed: %v", err)
	}

	db := settings.MustLookup[DatabaseSettings](registry, "db")
	log.Printf("✅ db resolved: %s (max_conns=%d)", db.URL, db.MaxConns)

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		log.Fatalf("❌ Serialization failed: %v", err)
	}
	fmt.Println(string(data))

	// =========================================================================
	// PART 4: RELOADING ON DOTENV CHANGES
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 4: Watching the dotenv file...")

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()

	events := registry.WatchDotenv(watchCtx, dotenvPath,
		map[string]settings.Loader{"smtp": smtpLoader},
		settings.WatchOptions{PollInterval: 250 * time.Millisecond, Debounce: 100 * time.Millisecond})

	go func() {
		time.Sleep(time.Second)
		if err := writeDotenv("alerts@example.com", "465"); err != nil {
			log.Printf("❌ Rewriting %s failed: %v", dotenvPath, err)
		}
	}()

	select {
	case err := <-events:
		if err != nil {
			log.Fatalf("❌ Reload failed: %v", err)
		}
		smtp := settings.MustLookup[SmtpSettings](registry, "smtp")
		log.Printf("✅ smtp reloaded: port=%d from=%s", smtp.Port, smtp.FromEmail)
	case <-time.After(5 * time.Second):
		log.Fatalf("❌ Timed out waiting for reload.")
	}

	if err := settings.DumpTOML(os.Stdout, registry); err != nil {
		log.Fatalf("❌ TOML dump failed: %v", err)
	}
}

// fetchDatabaseSettings simulates a secret store round trip
func fetchDatabaseSettings(ctx context.Context) (any, error) {
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return settings.Load[DatabaseSettings](settings.WithValues(map[string]any{
		"url":      "postgres://db.internal:5432/app",
		"password": "s3cr3t",
	}))
}

func writeDotenv(from, port string) error {
	content := fmt.Sprintf("SMTP_FROM_EMAIL=%s\nSMTP_PORT=%s\nSMTP_PASSWORD=hunter2\n", from, port)
	return os.WriteFile(dotenvPath, []byte(content), 0644)
}
