package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store kinds accepted by MOUNTAIN_GOATS_STORE
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreBolt   = "bolt"
)

// Settings holds process configuration read from the environment
type Settings struct {
	Host       string        `env:"MOUNTAIN_GOATS_HOST" envDefault:"localhost"`
	Port       int           `env:"MOUNTAIN_GOATS_PORT" envDefault:"8080"`
	ConfigDir  string        `env:"MOUNTAIN_GOATS_CONFIG_DIR" envDefault:"configs"`
	Store      string        `env:"MOUNTAIN_GOATS_STORE" envDefault:"file"`
	DataDir    string        `env:"MOUNTAIN_GOATS_DATA_DIR" envDefault:"sessions"`
	LogLevel   string        `env:"MOUNTAIN_GOATS_LOG_LEVEL" envDefault:"info"`
	SessionTTL time.Duration `env:"MOUNTAIN_GOATS_SESSION_TTL" envDefault:"0s"`

	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSettings reads and validates Settings
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the values env parsing cannot
func (s *Settings) Validate() error {
	switch s.Store {
	case StoreMemory, StoreFile, StoreSQLite, StoreBolt:
	default:
		return fmt.Errorf("settings: unknown store %q (want memory, file, sqlite or bolt)", s.Store)
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("settings: port %d out of range", s.Port)
	}
	if s.SessionTTL < 0 {
		return fmt.Errorf("settings: session ttl must not be negative")
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
