package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/davoseaworthui/referral-builder-next/pkg/config"
)

// Config holds all configuration for the referral builder UI.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Referral API
	APIURL      string        `env:"REFERRAL_API_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"BUILDER_HTTP_TIMEOUT" envDefault:"10s"`

	// The terminal belongs to the UI, so logs go to a file.
	LogFile string `env:"BUILDER_LOG_FILE" envDefault:"builder.log"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load builder config: %w", err)
	}
	return cfg, nil
}

// Validate checks the API URL, timeout and log file.
func (c *Config) Validate() error {
	u, err := url.ParseRequestURI(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid REFERRAL_API_URL %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid REFERRAL_API_URL %q: scheme must be http or https", c.APIURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("BUILDER_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.LogFile == "" {
		return fmt.Errorf("BUILDER_LOG_FILE is required")
	}
	return nil
}
