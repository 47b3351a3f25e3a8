// Package worker defines the dispatch workers that fan committed
// insights out to matching subscribers.
package worker

import (
	"sync/atomic"

	"github.com/okian/touchline/pkg/logger"
)

// Option applies a configuration option to the DispatchWorker.
type Option func(*DispatchWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *DispatchWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *DispatchWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithProcessedCounter shares a throughput counter with the worker. The
// pool installs one counter across all its workers to derive the
// notifications-per-second gauge.
func WithProcessedCounter(counter *atomic.Int64) Option {
	return func(w *DispatchWorker) {
		if counter != nil {
			w.processed = counter
		}
	}
}
