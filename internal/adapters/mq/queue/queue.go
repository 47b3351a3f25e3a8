// Package queue defines the contract for enqueuing and consuming
// outbound insight notifications.
//
// The engine commits an insight to its session before anything lands
// here, so the queue is purely a hand-off to the dispatch workers: a
// full queue drops the notification instead of blocking ingestion.
package queue

import (
	"context"
	"sync"
	"time"

	model "github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/pkg/metrics"
)

// defaultQueueCapacity bounds the queue when no option overrides it.
const defaultQueueCapacity = 10000

// Notification carries one committed insight to the dispatch workers.
type Notification struct {
	SessionID string
	Insight   model.CoachingInsight
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notification to the queue.
	// Returns false if the queue is full and the notification was dropped.
	Enqueue(ctx context.Context, n Notification) bool

	// Dequeue returns a channel that will receive notifications as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Notification

	// Len returns the current number of queued notifications.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new notifications can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	notifications chan Notification
	capacity      int
	mu            sync.RWMutex
	closed        bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.notifications = make(chan Notification, q.capacity)

	// Initialize metrics
	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a notification to the queue without ever blocking the
// caller; a full or closed queue drops it.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notification) bool {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordQueueProcessingLatency(float64(latency))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("dispatch_queue", "closed")
		return false
	}

	select {
	case q.notifications <- n:
		metrics.RecordQueueEnqueue()
		// Update queue size and utilization
		currentSize := len(q.notifications)
		metrics.UpdateQueueSize(currentSize)
		utilization := float64(currentSize) / float64(q.capacity)
		metrics.UpdateQueueUtilization(utilization)
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("dispatch_queue", "context_cancelled")
		return false // context cancelled
	default:
		metrics.RecordQueueDrop()
		metrics.RecordErrorByComponent("dispatch_queue", "queue_full")
		return false // queue is full, notification dropped
	}
}

// Dequeue returns a channel that will receive notifications as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notification {
	// Wrap the channel to track dequeue metrics
	dequeueChan := make(chan Notification)
	go func() {
		defer close(dequeueChan)
		for n := range q.notifications {
			select {
			case dequeueChan <- n:
				metrics.RecordQueueDequeue()
				// Update queue size and utilization after dequeue
				currentSize := len(q.notifications)
				metrics.UpdateQueueSize(currentSize)
				utilization := float64(currentSize) / float64(q.capacity)
				metrics.UpdateQueueUtilization(utilization)
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued notifications.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.notifications)
	metrics.UpdateQueueSize(size)
	utilization := float64(size) / float64(q.capacity)
	metrics.UpdateQueueUtilization(utilization)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	// Close the notifications channel to signal consumers to stop
	close(q.notifications)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
