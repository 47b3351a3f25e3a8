// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxSessions caps the number of non-terminal coaching sessions.
	MaxSessions int `koanf:"max_sessions"`

	// IdleTTLSeconds is how long a paused session may sit before the
	// sweeper force-ends it.
	IdleTTLSeconds int `koanf:"idle_ttl_seconds"`

	// SweepIntervalSeconds sets how often the idle sweeper runs.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// DispatchQueueSize bounds the outbound insight dispatch queue.
	DispatchQueueSize int `koanf:"dispatch_queue_size"`

	// DispatchWorkers sets the number of dispatch workers.
	DispatchWorkers int `koanf:"dispatch_workers"`

	// DedupeSize sets the size of the event idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultLanguage is the BCP-47 tag used when a coach profile omits one.
	DefaultLanguage string `koanf:"default_language"`

	// QueryTimeoutMS bounds one coaching-query round trip to the responder.
	QueryTimeoutMS int `koanf:"query_timeout_ms"`
}

// New creates a Config with service defaults.
func New() *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		MaxSessions:          1_000,
		IdleTTLSeconds:       1_800,
		SweepIntervalSeconds: 60,
		DispatchQueueSize:    10_000,
		DispatchWorkers:      runtime.NumCPU() * 2,
		DedupeSize:           500_000,
		DefaultLanguage:      "en",
		QueryTimeoutMS:       5_000,
	}
	return c
}
