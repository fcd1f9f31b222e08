package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// APIBaseURL is the single network-boundary setting; the default
	// matches the backend's local development address.
	APIBaseURL string `env:"RENTALS_API_URL,   default=http://localhost:8080"`
	StatePath  string `env:"RENTALS_STATE_PATH"`
	LogLevel   string `env:"LOG_LEVEL,         default=info"`
	LogPretty  bool   `env:"LOG_PRETTY,        default=true"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	if cfg.StatePath == "" {
		cfg.StatePath = defaultStatePath()
	}
	return &cfg
}

// defaultStatePath places the credential database under the user's
// config directory, falling back to the working directory when the
// home cannot be resolved.
func defaultStatePath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "rentals-session.db"
	}
	return filepath.Join(base, "rentals", "session.db")
}
