package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds service configuration loaded from environment variables.
type Config struct {
	FirebaseCredentials string `envconfig:"FIREBASE_CREDENTIALS_PATH" default:"./serviceAccountKey.json"`

	// Reconciliation loop.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"20s"`
	QuietStart   string        `envconfig:"QUIET_START" default:"02:00"`
	QuietEnd     string        `envconfig:"QUIET_END" default:"06:30"`

	// Term resolution: SEASON_OVERRIDE wins over the season file.
	SeasonFile     string `envconfig:"SEASON_FILE" default:"./season.txt"`
	SeasonOverride string `envconfig:"SEASON_OVERRIDE" default:""`

	// SOC catalog parameters.
	SOCBaseURL string `envconfig:"SOC_BASE_URL" default:"https://sis.rutgers.edu"`
	Campus     string `envconfig:"CAMPUS" default:"NB"`
	Level      string `envconfig:"LEVEL" default:"U"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	// Missing .env is fine; system environment still applies.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}
	return cfg, nil
}
