// Package service provides the coaching engine facade that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	delivery "github.com/okian/touchline/internal/adapters/delivery"
	notifyqueue "github.com/okian/touchline/internal/adapters/mq/queue"
	workerpool "github.com/okian/touchline/internal/adapters/mq/worker"
	repository "github.com/okian/touchline/internal/adapters/repository"
	"github.com/okian/touchline/internal/domain/dedupe"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/session"
	"github.com/okian/touchline/internal/domain/subscription"
	"github.com/okian/touchline/internal/domain/types"
	"github.com/okian/touchline/pkg/logger"
	"github.com/okian/touchline/pkg/metrics"
)

// Service implements the coaching-insight engine: session lifecycle,
// event ingestion, queries, subscriptions, and dispatch.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	subs      *subscription.Registry
	deduper   dedupe.Deduper
	queue     notifyqueue.Queue
	pool      *workerpool.Pool
	sweeper   *repository.Sweeper
	sink      delivery.Sink
	responder Responder

	// Configuration
	maxSessions     int
	idleTTL         time.Duration
	sweepInterval   time.Duration
	queueSize       int
	workerCount     int
	dedupeSize      int
	defaultLanguage string
	queryTimeout    time.Duration

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMaxSessions caps the number of concurrent non-terminal sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithIdleTTL sets how long a paused session may idle before the
// sweeper force-ends it.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithSweepInterval sets how often the idle sweeper scans.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithQueueSize sets the capacity of the dispatch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDispatchWorkers sets the number of dispatch worker goroutines.
func WithDispatchWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets the size of the event deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSink sets the delivery sink dispatch workers push insights into.
func WithSink(sink delivery.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithResponder sets the collaborator that answers coaching queries.
func WithResponder(r Responder) Option {
	return func(s *Service) {
		if r != nil {
			s.responder = r
		}
	}
}

// WithDefaultLanguage sets the language new sessions start with.
func WithDefaultLanguage(lang string) Option {
	return func(s *Service) {
		if lang != "" {
			s.defaultLanguage = lang
		}
	}
}

// WithQueryTimeout bounds how long a coaching query may wait on the
// responder.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxSessions:     1000,
		idleTTL:         30 * time.Minute,
		sweepInterval:   time.Minute,
		queueSize:       10000,
		workerCount:     runtime.NumCPU() * 2, // Default to 2x CPU cores
		dedupeSize:      50000,
		defaultLanguage: "en",
		queryTimeout:    5 * time.Second,
		stopCh:          make(chan struct{}),
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting coaching service...")

	// Initialize components
	s.store = repository.NewMemoryStore(
		repository.WithCapacity(s.maxSessions),
	)
	s.subs = subscription.NewRegistry()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = notifyqueue.NewInMemoryQueue(
		notifyqueue.WithCapacity(s.queueSize),
	)
	if s.sink == nil {
		s.sink = delivery.NewLogSink()
	}
	if s.responder == nil {
		s.responder = NewTemplateResponder()
	}

	// Create and start the dispatch worker pool
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.subs, s.sink)
	s.pool.Start(ctx)

	// Create and start the idle sweeper
	s.sweeper = repository.NewSweeper(s.store,
		repository.WithSweepInterval(s.sweepInterval),
		repository.WithIdleTTL(s.idleTTL),
		repository.WithOnSwept(s.onSwept),
	)
	go s.sweeper.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "coaching service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("idleTTL", s.idleTTL),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping coaching service...")

	// Stop the sweeper first so it cannot race the shutdown
	if s.sweeper != nil {
		s.sweeper.Stop()
	}

	// Close the queue so workers drain and exit
	if s.queue != nil {
		_ = s.queue.Close()
	}

	// Stop worker pool
	if s.pool != nil {
		s.pool.Stop()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "coaching service stopped")
}

// onSwept runs after the sweeper force-ended an idle session: its
// subscriptions are dropped and the final snapshot logged for archival.
func (s *Service) onSwept(id string, snap types.Snapshot) {
	dropped := s.subs.DropSession(id)
	metrics.UpdateSubscriptionCount(s.subs.Count())
	metrics.RecordSessionEnded()
	s.logger.Info(context.Background(), "swept session finalized",
		logger.String("sessionID", id),
		logger.Int("droppedSubscriptions", dropped),
		logger.Int("eventCount", snap.EventCount),
		logger.Float64("durationSeconds", snap.DurationSeconds),
	)
}

// CreateSession creates and activates a new session, applying the given
// preference and context patches over the defaults. Returns the new
// session id, or ErrCapacityExceeded when the engine is full.
func (s *Service) CreateSession(ctx context.Context, prefs model.PreferencesPatch, matchCtx model.MatchContext) (string, error) {
	if prefs.Language == nil {
		lang := s.defaultLanguage
		prefs.Language = &lang
	}

	id := uuid.New().String()
	sess := session.New(id,
		session.WithMatchContext(matchCtx),
	)
	sess.UpdatePreferences(prefs)

	if err := sess.Start(); err != nil {
		return "", fmt.Errorf("activating session %s: %w", id, err)
	}

	if err := s.store.Add(ctx, sess); err != nil {
		metrics.RecordSessionRejected()
		return "", err
	}

	metrics.RecordSessionCreated()
	s.logger.Info(ctx, "session created",
		logger.String("sessionID", id),
		logger.String("matchID", matchCtx.MatchID),
	)
	return id, nil
}

// EndSession terminates a session and returns its final snapshot. The
// session's subscriptions are dropped; the terminal record remains
// queryable until removed.
func (s *Service) EndSession(ctx context.Context, id string) (types.Snapshot, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Snapshot{}, err
	}

	snap, err := sess.End()
	if err != nil {
		return types.Snapshot{}, err
	}

	dropped := s.subs.DropSession(id)
	metrics.UpdateSubscriptionCount(s.subs.Count())
	metrics.RecordSessionEnded()
	metrics.UpdateActiveSessions(s.store.ActiveCount(ctx))

	s.logger.Info(ctx, "session ended",
		logger.String("sessionID", id),
		logger.Int("droppedSubscriptions", dropped),
		logger.Int("eventCount", snap.EventCount),
	)
	return snap, nil
}

// PauseSession suspends event processing for a session. Events arriving
// while paused are ignored, and once the session has sat paused past the
// idle TTL the sweeper reclaims it.
func (s *Service) PauseSession(ctx context.Context, id string) (types.StatusReport, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return types.StatusReport{}, err
	}
	if err := sess.Pause(); err != nil {
		return types.StatusReport{}, err
	}

	metrics.UpdateActiveSessions(s.store.ActiveCount(ctx))
	s.logger.Info(ctx, "session paused", logger.String("sessionID", id))
	return sess.StatusReport(), nil
}

// ResumeSession reactivates a paused session.
func (s *Service) ResumeSession(ctx context.Context, id string) (types.StatusReport, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return types.StatusReport{}, err
	}
	if err := sess.Resume(); err != nil {
		return types.StatusReport{}, err
	}

	metrics.UpdateActiveSessions(s.store.ActiveCount(ctx))
	s.logger.Info(ctx, "session resumed", logger.String("sessionID", id))
	return sess.StatusReport(), nil
}

// GetStatus returns the live status report for a session.
func (s *Service) GetStatus(ctx context.Context, id string) (types.StatusReport, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return types.StatusReport{}, err
	}
	return sess.StatusReport(), nil
}

// Remove discards a terminal session record. Non-terminal sessions must
// be ended first.
func (s *Service) Remove(ctx context.Context, id string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !sess.Status().IsTerminal() {
		return fmt.Errorf("%w: cannot remove %s session", session.ErrInvalidTransition, sess.Status())
	}
	return s.store.Remove(ctx, id)
}

// ProcessMatchEvent runs one event through its session and queues the
// surviving insights for dispatch. Events for a non-active session are
// ignored without error.
func (s *Service) ProcessMatchEvent(ctx context.Context, sessionID string, event model.MatchEvent) ([]model.CoachingInsight, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := sess.ProcessEvent(event)
	if result.Ignored {
		metrics.RecordEventIgnored()
		s.logger.Debug(ctx, "event ignored, session not active",
			logger.String("sessionID", sessionID),
			logger.String("eventID", event.ID),
		)
		return nil, nil
	}

	metrics.RecordEventProcessed(string(event.Type))
	if result.Fault != nil {
		metrics.RecordGeneratorFault()
		s.logger.Error(ctx, "generator fault",
			logger.String("sessionID", sessionID),
			logger.String("eventID", event.ID),
			logger.Error(result.Fault),
		)
	}
	for i := 0; i < result.Suppressed; i++ {
		metrics.RecordInsightSuppressed()
	}
	for i := 0; i < result.Evicted; i++ {
		metrics.RecordInsightEvicted()
	}

	for _, ins := range result.Insights {
		metrics.RecordInsightGenerated(ins.Urgency.String(), string(ins.Type))
		s.enqueue(ctx, sessionID, ins)
	}

	return result.Insights, nil
}

// SubmitQuery answers a coaching question through the responder and
// pushes the answer through the regular insight pipeline. The responder
// runs outside any session lock. The wrapped insight is returned even
// when the session's preferences suppress storing it.
func (s *Service) SubmitQuery(ctx context.Context, req QueryRequest) (model.CoachingInsight, error) {
	start := time.Now()
	defer func() {
		metrics.RecordQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	sess, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return model.CoachingInsight{}, err
	}

	if req.Language == "" {
		req.Language = sess.Preferences().Language
	}
	if req.Urgency == model.UrgencyUnspecified {
		req.Urgency = model.UrgencyMedium
	}
	snap := sess.Context().Snapshot()

	// The responder may call out to an external collaborator, so it gets
	// its own deadline and runs before the session critical section.
	respCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	resp, err := s.responder.Respond(respCtx, req, snap)
	if err != nil {
		metrics.RecordErrorByComponent("responder", "query_failed")
		return model.CoachingInsight{}, fmt.Errorf("answering query for session %s: %w", req.SessionID, err)
	}

	ins := model.CoachingInsight{
		ID:               uuid.New().String(),
		Type:             model.InsightQueryResponse,
		Content:          resp.ResponseText,
		LocalizedContent: resp.LocalizedText,
		Urgency:          req.Urgency,
		Confidence:       resp.Confidence,
		CreatedAt:        time.Now().UTC(),
		MatchContext:     snap,
		Actions:          resp.Actions,
		Sources:          resp.Sources,
	}

	stored, evicted := sess.CommitInsight(ins)
	if evicted {
		metrics.RecordInsightEvicted()
	}
	if stored {
		metrics.RecordInsightGenerated(ins.Urgency.String(), string(ins.Type))
		s.enqueue(ctx, req.SessionID, ins)
	} else {
		metrics.RecordInsightSuppressed()
	}

	return ins, nil
}

// enqueue hands an insight to the dispatch queue without blocking; a
// full queue drops it with a counter.
func (s *Service) enqueue(ctx context.Context, sessionID string, ins model.CoachingInsight) {
	ok := s.queue.Enqueue(ctx, notifyqueue.Notification{
		SessionID: sessionID,
		Insight:   ins,
	})
	if !ok {
		s.logger.Warn(ctx, "dispatch queue full, notification dropped",
			logger.String("sessionID", sessionID),
			logger.String("insightID", ins.ID),
		)
	}
}

// Subscribe registers a subscription descriptor for an existing session.
func (s *Service) Subscribe(ctx context.Context, d subscription.Descriptor) error {
	if _, err := s.store.Get(ctx, d.SessionID); err != nil {
		return err
	}
	if err := s.subs.Subscribe(d); err != nil {
		return err
	}
	metrics.UpdateSubscriptionCount(s.subs.Count())
	return nil
}

// Unsubscribe removes a subscription descriptor.
func (s *Service) Unsubscribe(ctx context.Context, sessionID, clientID string) error {
	if err := s.subs.Unsubscribe(sessionID, clientID); err != nil {
		return err
	}
	metrics.UpdateSubscriptionCount(s.subs.Count())
	return nil
}

// AddClient attaches an observer client to a session.
func (s *Service) AddClient(ctx context.Context, sessionID, clientID string) error {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.AddClient(clientID)
	return nil
}

// RemoveClient detaches an observer client from a session.
func (s *Service) RemoveClient(ctx context.Context, sessionID, clientID string) error {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.RemoveClient(clientID)
	return nil
}

// UpdatePreferences applies a copy-on-write preferences patch and
// returns the updated preferences.
func (s *Service) UpdatePreferences(ctx context.Context, sessionID string, patch model.PreferencesPatch) (model.CoachPreferences, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return model.CoachPreferences{}, err
	}
	return sess.UpdatePreferences(patch), nil
}

// UpdateContext applies a copy-on-write match-context patch and returns
// the updated context.
func (s *Service) UpdateContext(ctx context.Context, sessionID string, patch model.ContextPatch) (model.MatchContext, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return model.MatchContext{}, err
	}
	return sess.UpdateContext(patch), nil
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
// Returns true if the event was already seen, false if it was newly recorded.
// This is the ONLY method for deduplication - thread-safe and atomic.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxSessions": s.maxSessions,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["sessions"] = s.store.Count(ctx)
		stats["activeSessions"] = s.store.ActiveCount(ctx)
		stats["subscriptions"] = s.subs.Count()
		stats["dedupeEntries"] = s.deduper.Size()

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateActiveSessions(s.store.ActiveCount(ctx))
		metrics.UpdateSubscriptionCount(s.subs.Count())
	}

	return stats
}
