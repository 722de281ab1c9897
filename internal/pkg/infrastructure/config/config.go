package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

type Config struct {
	ListenAddress     string `env:"LISTEN_ADDRESS" envDefault:"0.0.0.0"`
	ServicePort       string `env:"SERVICE_PORT" envDefault:"8080"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing     bool   `env:"ENABLE_TRACING" envDefault:"true"`
	Locale            string `env:"LOCALE" envDefault:"en-US"`
	Timezone          string `env:"TIMEZONE" envDefault:"Local"`
	CountdownSeconds  int    `env:"COUNTDOWN_SECONDS" envDefault:"3"`
	MockSeed          uint64 `env:"MOCK_SEED" envDefault:"0"`
	NotificationsFile string `env:"NOTIFICATIONS_FILE"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return c.ListenAddress + ":" + c.ServicePort
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Seed returns the configured mock data seed, or one derived from fallback
// when none is set.
func (c *Config) Seed(fallback time.Time) uint64 {
	if c.MockSeed != 0 {
		return c.MockSeed
	}
	return uint64(fallback.UnixNano())
}
