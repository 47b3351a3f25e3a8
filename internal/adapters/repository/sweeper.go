package repository

import (
	"context"
	"errors"
	"time"

	session "github.com/okian/touchline/internal/domain/session"
	types "github.com/okian/touchline/internal/domain/types"
	"github.com/okian/touchline/pkg/logger"
	"github.com/okian/touchline/pkg/metrics"
)

// Default sweeper configuration constants.
const (
	defaultSweepInterval = time.Minute
	defaultIdleTTL       = 30 * time.Minute
)

// Sweeper periodically force-ends sessions that have sat paused past
// their idle TTL. It goes through the same state-checked End transition
// an explicit end uses, so racing an explicit end is harmless: the loser
// observes an invalid transition and walks away. Active sessions are
// never touched.
type Sweeper struct {
	store    Store
	interval time.Duration
	ttl      time.Duration
	onSwept  func(id string, snap types.Snapshot)

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// SweeperOption applies a configuration option to the Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepInterval sets how often the sweeper scans.
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithIdleTTL sets how long a paused session may idle before eviction.
func WithIdleTTL(ttl time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithOnSwept installs a hook invoked with the final snapshot of every
// swept session, after its end transition committed. The service uses it
// to drop subscriptions and hand the snapshot to archival.
func WithOnSwept(fn func(id string, snap types.Snapshot)) SweeperOption {
	return func(s *Sweeper) {
		if fn != nil {
			s.onSwept = fn
		}
	}
}

// WithSweeperLogger sets a custom logger for the sweeper.
func WithSweeperLogger(l logger.Logger) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store Store, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: defaultSweepInterval,
		ttl:      defaultIdleTTL,
		onSwept:  func(string, types.Snapshot) {},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("sweeper"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run scans on the configured interval until ctx is canceled or Stop is
// called.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// Stop signals the sweep loop to exit and waits for it.
func (s *Sweeper) Stop() {
	select {
	case <-s.shutdown:
		// already stopped
	default:
		close(s.shutdown)
	}
	<-s.done
}

// SweepOnce scans every session and force-ends the idle paused ones. A
// failure on one session is logged and never aborts the rest of the scan.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	swept := 0
	for _, sess := range s.store.All(ctx) {
		if !sess.IdlePaused(s.ttl) {
			continue
		}
		if s.sweepSession(ctx, sess) {
			swept++
		}
	}
	if swept > 0 {
		metrics.UpdateActiveSessions(s.store.ActiveCount(ctx))
	}
	return swept
}

// sweepSession ends one idle session, containing any panic so a corrupt
// session cannot take down the sweep loop.
func (s *Sweeper) sweepSession(ctx context.Context, sess *session.Session) (swept bool) {
	defer func() {
		if rec := recover(); rec != nil {
			swept = false
			metrics.RecordErrorByComponent("sweeper", "panic")
			s.logger.Error(ctx, "panic sweeping session",
				logger.String("sessionID", sess.ID()),
				logger.Any("panic", rec),
			)
		}
	}()

	snap, err := sess.End()
	if err != nil {
		// Losing the race against an explicit end or a resume is expected.
		if !errors.Is(err, session.ErrInvalidTransition) {
			metrics.RecordErrorByComponent("sweeper", "end_failed")
			s.logger.Error(ctx, "failed to end idle session",
				logger.String("sessionID", sess.ID()),
				logger.Error(err),
			)
		}
		return false
	}

	metrics.RecordSessionSwept()
	s.logger.Info(ctx, "idle session swept",
		logger.String("sessionID", sess.ID()),
		logger.Duration("ttl", s.ttl),
	)
	s.onSwept(sess.ID(), snap)
	return true
}
