package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by config structs that check their own
// invariants. Load calls Validate after parsing.
type Validator interface {
	Validate() error
}

// Option customises how Load reads the environment.
type Option func(*env.Options)

// WithPrefix only reads variables starting with prefix, e.g. "BUILDER_".
func WithPrefix(prefix string) Option {
	return func(o *env.Options) {
		o.Prefix = prefix
	}
}

// WithEnvironment reads from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) {
		o.Environment = vars
	}
}

// Load fills cfg from `env` tags. Nested structs can scope their variables
// with an `envPrefix` tag:
//
//	type Config struct {
//	    Kafka   KafkaConfig    `envPrefix:"KAFKA_"`
//	    Tracing tracing.Config `envPrefix:"OTEL_"`
//	}
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}

	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}
