package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if TOUCHLINE_CONFIG is set
//  3. env (prefix TOUCHLINE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TOUCHLINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TOUCHLINE_ADDR, TOUCHLINE_MAX_SESSIONS, ...
	// Map env keys like TOUCHLINE_MAX_SESSIONS -> max_sessions (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TOUCHLINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "touchline_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxSessions < 1:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.IdleTTLSeconds < 1:
		return fmt.Errorf("%w: idle_ttl_seconds must be positive", ErrInvalidConfig)
	case c.SweepIntervalSeconds < 1:
		return fmt.Errorf("%w: sweep_interval_seconds must be positive", ErrInvalidConfig)
	case c.DispatchQueueSize < 1:
		return fmt.Errorf("%w: dispatch_queue_size must be positive", ErrInvalidConfig)
	case c.DispatchWorkers < 1:
		return fmt.Errorf("%w: dispatch_workers must be positive", ErrInvalidConfig)
	case c.QueryTimeoutMS < 1:
		return fmt.Errorf("%w: query_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
