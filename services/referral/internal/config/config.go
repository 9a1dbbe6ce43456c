package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	pkgconfig "github.com/davoseaworthui/referral-builder-next/pkg/config"
	"github.com/davoseaworthui/referral-builder-next/pkg/tracing"
)

// Config holds all configuration for the referral service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP      HTTPConfig      `envPrefix:"REFERRAL_HTTP_"`
	CORS      CORSConfig      `envPrefix:"CORS_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Tracing   tracing.Config  `envPrefix:"OTEL_"`
	Pprof     PprofConfig     `envPrefix:"PPROF_"`
}

type HTTPConfig struct {
	Port int `env:"PORT" envDefault:"8080"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// RateLimitConfig is applied per client IP on /api routes.
type RateLimitConfig struct {
	RPS   int `env:"RPS" envDefault:"50"`
	Burst int `env:"BURST" envDefault:"100"`
}

// KafkaConfig controls event publishing. Disabled, events are dropped.
type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

// PprofConfig exposes /debug/pprof to clients in AllowedCIDRs.
type PprofConfig struct {
	Enabled      bool     `env:"ENABLED" envDefault:"false"`
	AllowedCIDRs []string `env:"ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load referral config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port))
	}
	if c.RateLimit.RPS < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.RateLimit.RPS))
	}
	if c.RateLimit.Burst < c.RateLimit.RPS {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST (%d) must be at least RATE_LIMIT_RPS (%d)", c.RateLimit.Burst, c.RateLimit.RPS))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}
	if c.Pprof.Enabled {
		for _, cidr := range c.Pprof.AllowedCIDRs {
			if !validPrefixOrAddr(cidr) {
				errs = append(errs, fmt.Errorf("PPROF_ALLOWED_CIDRS: invalid entry %q", cidr))
			}
		}
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validPrefixOrAddr(s string) bool {
	s = strings.TrimSpace(s)
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
