// Package worker defines the dispatch workers that fan committed
// insights out to matching subscribers.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/touchline/internal/adapters/mq/queue"
	model "github.com/okian/touchline/internal/domain/model"
	subscription "github.com/okian/touchline/internal/domain/subscription"
	"github.com/okian/touchline/pkg/logger"
	"github.com/okian/touchline/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
	maxParallelDeliveries   = 8 // per-notification fan-out bound
)

// Notification abstracts what workers read off the queue.
type Notification = queue.Notification

// Subscriptions resolves the descriptors registered for a session.
type Subscriptions interface {
	ForSession(sessionID string) []subscription.Descriptor
}

// Sink delivers one insight to one subscriber. Mirrors the delivery
// package's port so the worker depends only on what it calls.
type Sink interface {
	Deliver(ctx context.Context, clientID string, ins model.CoachingInsight, language string) error
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notification
}

// Worker processes notifications and fans them out to subscribers.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining notifications before stopping.
	Shutdown(ctx context.Context) error
}

// DispatchWorker implements Worker for fanning out notifications.
type DispatchWorker struct {
	queue Queue
	subs  Subscriptions
	sink  Sink
	name  string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Shared throughput counter, owned by the pool when set
	processed *atomic.Int64

	// Logging
	logger logger.Logger
}

// NewDispatchWorker creates a new worker with configuration options.
func NewDispatchWorker(q Queue, subs Subscriptions, sink Sink, opts ...Option) *DispatchWorker {
	w := &DispatchWorker{
		queue:    q,
		subs:     subs,
		sink:     sink,
		name:     "dispatcher", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("dispatcher"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "dispatcher" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *DispatchWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	noteChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-noteChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Fan out the notification
			if err := w.dispatch(ctx, n); err != nil {
				w.logger.Error(ctx, "error dispatching notification", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *DispatchWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// dispatch matches one committed insight against the session's
// subscriptions and delivers to each match. Deliveries run in parallel
// under a bound; a failed delivery is logged and counted but never
// affects the other subscribers.
func (w *DispatchWorker) dispatch(ctx context.Context, n Notification) error {
	// Track overall fan-out latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	if w.processed != nil {
		w.processed.Add(1)
	}

	descriptors := w.subs.ForSession(n.SessionID)
	if len(descriptors) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeliveries)

	for _, d := range descriptors {
		d := d
		if !d.Matches(n.Insight) {
			continue
		}
		g.Go(func() error {
			deliverStart := time.Now()
			err := w.sink.Deliver(gctx, d.ClientID, n.Insight, d.Language)
			metrics.RecordDeliveryLatency(float64(time.Since(deliverStart).Milliseconds()))

			if err != nil {
				// Delivery failures are non-fatal and never retried.
				metrics.RecordDeliveryError()
				metrics.RecordErrorByComponent("dispatcher", "delivery_error")
				w.logger.Warn(gctx, "delivery failed",
					logger.String("sessionID", n.SessionID),
					logger.String("clientID", d.ClientID),
					logger.String("insightID", n.Insight.ID),
					logger.Error(err),
				)
				return nil
			}

			metrics.RecordDelivery()
			w.logger.Debug(gctx, "insight delivered",
				logger.String("sessionID", n.SessionID),
				logger.String("clientID", d.ClientID),
				logger.String("insightID", n.Insight.ID),
			)
			return nil
		})
	}

	// Group members swallow their own errors; Wait only bounds the fan-out.
	if err := g.Wait(); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("dispatch for session %s: %w", n.SessionID, err)
	}
	return nil
}

// Pool manages multiple dispatch workers.
type Pool struct {
	workers []*DispatchWorker
	queue   Queue
	subs    Subscriptions
	sink    Sink

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Metrics tracking
	processedCount    atomic.Int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new dispatch worker pool.
func NewPool(workerCount int, q Queue, subs Subscriptions, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*DispatchWorker, workerCount),
		queue:             q,
		subs:              subs,
		sink:              sink,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("dispatch-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewDispatchWorker(
			q,
			subs,
			sink,
			WithName("dispatcher-"+strconv.Itoa(i)),
			WithProcessedCounter(&pool.processedCount),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval) // Update metrics every 5 seconds
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	// Calculate notifications per second over the elapsed window
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	processed := p.processedCount.Swap(0)
	if timeDiff > 0 {
		messagesPerSecond := float64(processed) / timeDiff
		metrics.UpdateWorkerMessagesPerSecond(messagesPerSecond)
	}

	p.lastProcessedTime = now
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, w := range p.workers {
		select {
		case <-w.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new notifications
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
