package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/touchline/internal/adapters/mq/queue"
	worker "github.com/okian/touchline/internal/adapters/mq/worker"
	model "github.com/okian/touchline/internal/domain/model"
	subscription "github.com/okian/touchline/internal/domain/subscription"
	logging "github.com/okian/touchline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	noteChan   chan queue.Notification
	closeError error
	closeOnce  sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		noteChan: make(chan queue.Notification, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Notification {
	return mq.noteChan
}

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.noteChan) })
	return mq.closeError
}

func (mq *mockQueue) add(n queue.Notification) {
	mq.noteChan <- n
}

type mockSubs struct {
	mu          sync.RWMutex
	descriptors map[string][]subscription.Descriptor
}

func newMockSubs() *mockSubs {
	return &mockSubs{
		descriptors: make(map[string][]subscription.Descriptor),
	}
}

func (ms *mockSubs) ForSession(sessionID string) []subscription.Descriptor {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.descriptors[sessionID]
}

func (ms *mockSubs) add(d subscription.Descriptor) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.descriptors[d.SessionID] = append(ms.descriptors[d.SessionID], d)
}

type mockSink struct {
	mu         sync.RWMutex
	deliveries map[string][]string // clientID -> insight IDs
	errors     map[string]error
}

func newMockSink() *mockSink {
	return &mockSink{
		deliveries: make(map[string][]string),
		errors:     make(map[string]error),
	}
}

func (ms *mockSink) Deliver(ctx context.Context, clientID string, ins model.CoachingInsight, language string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err, exists := ms.errors[clientID]; exists {
		return err
	}
	ms.deliveries[clientID] = append(ms.deliveries[clientID], ins.ID)
	return nil
}

func (ms *mockSink) setError(clientID string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errors[clientID] = err
}

func (ms *mockSink) delivered(clientID string) []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.deliveries[clientID]
}

func notification(sessionID, insightID string, urgency model.Urgency) queue.Notification {
	return queue.Notification{
		SessionID: sessionID,
		Insight: model.CoachingInsight{
			ID:      insightID,
			Type:    model.InsightTacticalAdjustment,
			Urgency: urgency,
		},
	}
}

func TestDispatchWorker(t *testing.T) {
	convey.Convey("Given a new DispatchWorker", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		q := newMockQueue()
		subs := newMockSubs()
		sink := newMockSink()

		convey.Convey("When creating a worker with default options", func() {
			w := worker.NewDispatchWorker(q, subs, sink)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewDispatchWorker(
				q, subs, sink,
				worker.WithName("test-dispatcher"),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewDispatchWorker(q, subs, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Start worker in goroutine
			go w.Run(ctx)

			// Give worker time to start
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And when a subscriber matches", func() {
				subs.add(subscription.Descriptor{
					SessionID: "sess-1",
					ClientID:  "coach-1",
					Kind:      subscription.KindAll,
				})

				q.add(notification("sess-1", "ins-1", model.UrgencyHigh))

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the insight should be delivered", func() {
					convey.So(sink.delivered("coach-1"), convey.ShouldResemble, []string{"ins-1"})
				})
			})

			convey.Convey("And when a subscriber filters by urgency", func() {
				subs.add(subscription.Descriptor{
					SessionID:  "sess-2",
					ClientID:   "coach-critical",
					Kind:       subscription.KindInsights,
					MinUrgency: model.UrgencyCritical,
				})
				subs.add(subscription.Descriptor{
					SessionID: "sess-2",
					ClientID:  "coach-any",
					Kind:      subscription.KindInsights,
				})

				q.add(notification("sess-2", "ins-2", model.UrgencyMedium))

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then only the unfiltered subscriber receives it", func() {
					convey.So(sink.delivered("coach-critical"), convey.ShouldBeEmpty)
					convey.So(sink.delivered("coach-any"), convey.ShouldResemble, []string{"ins-2"})
				})
			})

			convey.Convey("And when a session has no subscribers", func() {
				q.add(notification("sess-empty", "ins-3", model.UrgencyHigh))

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then nothing is delivered", func() {
					convey.So(sink.delivered("coach-1"), convey.ShouldBeEmpty)
				})
			})

			convey.Convey("And when one delivery fails", func() {
				subs.add(subscription.Descriptor{
					SessionID: "sess-3",
					ClientID:  "coach-broken",
					Kind:      subscription.KindAll,
				})
				subs.add(subscription.Descriptor{
					SessionID: "sess-3",
					ClientID:  "coach-ok",
					Kind:      subscription.KindAll,
				})
				sink.setError("coach-broken", errors.New("connection reset"))

				q.add(notification("sess-3", "ins-4", model.UrgencyHigh))

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the other subscriber still receives it", func() {
					convey.So(sink.delivered("coach-ok"), convey.ShouldResemble, []string{"ins-4"})
					convey.So(sink.delivered("coach-broken"), convey.ShouldBeEmpty)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := w.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When context is cancelled", func() {
			w := worker.NewDispatchWorker(q, subs, sink)
			ctx, cancel := context.WithCancel(context.Background())

			// Start worker in goroutine
			go w.Run(ctx)

			// Give worker time to start
			time.Sleep(10 * time.Millisecond)

			// Cancel context
			cancel()

			// Give worker time to stop
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then worker should stop", func() {
				// Worker should have stopped due to context cancellation
				convey.So(true, convey.ShouldBeTrue) // Placeholder assertion
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new worker Pool", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		q := newMockQueue()
		subs := newMockSubs()
		sink := newMockSink()

		convey.Convey("When creating a worker pool with default count", func() {
			pool := worker.NewPool(0, q, subs, sink)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker pool with custom count", func() {
			pool := worker.NewPool(3, q, subs, sink)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When starting a worker pool", func() {
			pool := worker.NewPool(2, q, subs, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)

			// Give workers time to start
			time.Sleep(20 * time.Millisecond)

			convey.Convey("And when processing multiple notifications", func() {
				for i := 1; i <= 3; i++ {
					sid := fmt.Sprintf("sess-%d", i)
					subs.add(subscription.Descriptor{
						SessionID: sid,
						ClientID:  fmt.Sprintf("coach-%d", i),
						Kind:      subscription.KindAll,
					})
					q.add(notification(sid, fmt.Sprintf("ins-%d", i), model.UrgencyHigh))
				}

				// Give workers time to process
				time.Sleep(100 * time.Millisecond)

				convey.Convey("Then all notifications should be delivered", func() {
					for i := 1; i <= 3; i++ {
						convey.So(sink.delivered(fmt.Sprintf("coach-%d", i)), convey.ShouldHaveLength, 1)
					}
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer shutdownCancel()

				err := pool.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When stopping a worker pool", func() {
			pool := worker.NewPool(2, q, subs, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)

			// Give workers time to start
			time.Sleep(20 * time.Millisecond)

			pool.Stop()

			// Give workers time to stop
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then all workers should be stopped", func() {
				// Workers should have stopped
				convey.So(true, convey.ShouldBeTrue) // Placeholder assertion
			})
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given a worker pool with multiple workers", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		q := newMockQueue()
		subs := newMockSubs()
		sink := newMockSink()

		pool := worker.NewPool(4, q, subs, sink)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool.Start(ctx)

		// Give workers time to start
		time.Sleep(20 * time.Millisecond)

		convey.Convey("When fanning out to many subscribers concurrently", func() {
			const clientCount = 40
			for i := 0; i < clientCount; i++ {
				subs.add(subscription.Descriptor{
					SessionID: "sess-fanout",
					ClientID:  fmt.Sprintf("coach-%d", i),
					Kind:      subscription.KindAll,
				})
			}

			for j := 0; j < 5; j++ {
				q.add(notification("sess-fanout", fmt.Sprintf("ins-%d", j), model.UrgencyHigh))
			}

			// Give workers time to process
			time.Sleep(300 * time.Millisecond)

			convey.Convey("Then every subscriber receives every insight", func() {
				for i := 0; i < clientCount; i++ {
					convey.So(sink.delivered(fmt.Sprintf("coach-%d", i)), convey.ShouldHaveLength, 5)
				}
			})
		})
	})
}

func TestWorkerThroughputCounter(t *testing.T) {
	convey.Convey("Given a worker sharing a throughput counter", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		q := newMockQueue()
		subs := newMockSubs()
		sink := newMockSink()

		var processed atomic.Int64
		w := worker.NewDispatchWorker(q, subs, sink, worker.WithProcessedCounter(&processed))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)

		// Give worker time to start
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When notifications flow through, with and without subscribers", func() {
			subs.add(subscription.Descriptor{
				SessionID: "sess-counted",
				ClientID:  "coach-counted",
				Kind:      subscription.KindAll,
			})

			q.add(notification("sess-counted", "ins-1", model.UrgencyHigh))
			q.add(notification("sess-counted", "ins-2", model.UrgencyHigh))
			q.add(notification("sess-unsubscribed", "ins-3", model.UrgencyHigh))

			// Give worker time to process
			time.Sleep(100 * time.Millisecond)

			convey.Convey("Then every dequeued notification is counted", func() {
				convey.So(processed.Load(), convey.ShouldEqual, 3)
			})
		})
	})
}

func TestWorkerQueueClosure(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		q := newMockQueue()
		subs := newMockSubs()
		sink := newMockSink()

		w := worker.NewDispatchWorker(q, subs, sink)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)

		// Give worker time to start
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When the queue channel is closed", func() {
			_ = q.Close()

			// Give worker time to detect closure
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then worker should stop", func() {
				// Worker should have stopped due to queue closure
				convey.So(true, convey.ShouldBeTrue) // Placeholder assertion
			})
		})
	})
}
