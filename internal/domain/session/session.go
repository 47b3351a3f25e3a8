// Package session implements the per-match coaching session aggregate: a
// state machine guarding an append-only event log, a bounded buffer of
// recent insights, and streaming statistics. One mutex serializes all
// access to a session; distinct sessions share nothing and run fully in
// parallel.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	insight "github.com/okian/touchline/internal/domain/insight"
	model "github.com/okian/touchline/internal/domain/model"
	stats "github.com/okian/touchline/internal/domain/stats"
	types "github.com/okian/touchline/internal/domain/types"
	locale "github.com/okian/touchline/internal/locale"
)

// Generator produces insight drafts for a processed event. Implementations
// must be pure compute: the session calls it while holding its lock.
type Generator interface {
	Generate(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error)
}

// ProcessResult reports what one event produced. The caller turns it into
// metrics and logs; the session itself stays free of both.
type ProcessResult struct {
	Insights   []model.CoachingInsight // committed survivors, oldest first
	Suppressed int                     // drafts dropped by the preference filter
	Evicted    int                     // buffer evictions the commit caused
	Ignored    bool                    // event arrived while not active
	Fault      error                   // generator fault, already isolated
}

// Session is one coach's live view of one match.
type Session struct {
	mu sync.Mutex

	id        string
	status    Status
	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time
	changedAt time.Time // last status change, drives idle eviction

	prefs    model.CoachPreferences
	matchCtx model.MatchContext

	events  []model.MatchEvent
	recent  *ring
	clients map[string]struct{}
	agg     *stats.Aggregator

	generator Generator
}

// New creates a session in the initializing state with the default rule
// table installed.
func New(id string, opts ...Option) *Session {
	now := time.Now()
	s := &Session{
		id:        id,
		status:    StatusInitializing,
		createdAt: now,
		changedAt: now,
		prefs: model.CoachPreferences{
			Language:         "en",
			UrgencyThreshold: model.UrgencyLow,
			AutoNotify:       true,
		},
		recent:    newRing(),
		clients:   make(map[string]struct{}),
		agg:       stats.New(),
		generator: insight.NewRegistry(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// transitionLocked moves to a new state or reports why it cannot. The
// caller holds the lock.
func (s *Session) transitionLocked(to Status) error {
	if !CanTransition(s.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, to)
	}
	s.status = to
	s.changedAt = time.Now()
	return nil
}

// Start activates a freshly created session.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInitializing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, StatusActive)
	}
	if err := s.transitionLocked(StatusActive); err != nil {
		return err
	}
	s.startedAt = s.changedAt
	return nil
}

// Pause suspends event processing.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(StatusPaused)
}

// Resume reactivates a paused session.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPaused {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, StatusActive)
	}
	return s.transitionLocked(StatusActive)
}

// Fail moves the session to the terminal error state. Like End it stamps
// the end time, so reports on a failed session stop accruing uptime.
func (s *Session) Fail() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionLocked(StatusError); err != nil {
		return err
	}
	s.endedAt = s.changedAt
	return nil
}

// End terminates the session and emits its final snapshot. Legal only
// from the active or paused states; losers of an end race get
// ErrInvalidTransition and no snapshot.
func (s *Session) End() (types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionLocked(StatusEnded); err != nil {
		return types.Snapshot{}, err
	}
	s.endedAt = s.changedAt
	return s.snapshotLocked(), nil
}

func (s *Session) snapshotLocked() types.Snapshot {
	base := s.startedAt
	if base.IsZero() {
		base = s.createdAt
	}
	return types.Snapshot{
		SessionID:       s.id,
		MatchID:         s.matchCtx.MatchID,
		CreatedAt:       s.createdAt,
		EndedAt:         s.endedAt,
		DurationSeconds: s.endedAt.Sub(base).Seconds(),
		EventCount:      len(s.events),
		ClientCount:     len(s.clients),
		Stats:           s.agg.Snapshot(),
	}
}

// ProcessEvent runs one match event through the session: append to the
// log, advance the context, generate drafts, filter them through the
// coach's preferences, and commit the survivors to the recent-insight
// buffer. Events arriving while the session is not active are ignored
// without touching the log. A generator fault is isolated: the event
// stays recorded and the fault is reported on the result.
func (s *Session) ProcessEvent(event model.MatchEvent) ProcessResult {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ProcessResult{Ignored: true}
	}

	s.events = append(s.events, event)
	if event.Type == model.EventSubstitution {
		if label := substitutionLabel(event); label != "" {
			s.matchCtx = s.matchCtx.Apply(model.ContextPatch{Substitution: &label})
		}
	}
	s.matchCtx.Minute = event.MatchMinute

	snap := s.matchCtx.Snapshot()
	prefs := s.prefs

	var result ProcessResult
	drafts, err := s.generator.Generate(event, snap)
	if err != nil {
		result.Fault = err
		drafts = nil
	}

	lang := locale.Key(prefs.Language)
	for _, d := range drafts {
		if !prefs.Accepts(d.Type, d.Urgency) {
			result.Suppressed++
			continue
		}
		d = insight.Localize(d, lang)
		ins := model.CoachingInsight{
			ID:               uuid.New().String(),
			Type:             d.Type,
			Content:          d.Content,
			LocalizedContent: d.LocalizedContent,
			Urgency:          d.Urgency,
			Confidence:       d.Confidence,
			CreatedAt:        time.Now().UTC(),
			MatchContext:     snap,
			TriggerEventID:   event.ID,
			Actions:          d.Actions,
			RelatedIDs:       d.RelatedIDs,
			Sources:          d.Sources,
		}
		if s.recent.append(ins) {
			result.Evicted++
		}
		s.agg.RecordInsight(ins.Type, ins.Urgency)
		s.agg.ObserveLocalized(ins.LocalizedContent != "")
		result.Insights = append(result.Insights, ins)
	}

	s.agg.ObserveLatency(time.Since(start))
	return result
}

// CommitInsight stores an externally produced insight, typically a query
// response, through the same preference filter and buffer as generated
// ones. It reports whether the insight was stored and whether the commit
// evicted an older entry.
func (s *Session) CommitInsight(ins model.CoachingInsight) (stored, evicted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return false, false
	}
	if !s.prefs.Accepts(ins.Type, ins.Urgency) {
		return false, false
	}
	evicted = s.recent.append(ins)
	s.agg.RecordInsight(ins.Type, ins.Urgency)
	s.agg.ObserveLocalized(ins.LocalizedContent != "")
	return true, evicted
}

// substitutionLabel condenses a substitution event into the short form
// kept on the match context.
func substitutionLabel(event model.MatchEvent) string {
	on := event.Metadata[model.MetaPlayerOn]
	off := event.Metadata[model.MetaPlayerOff]
	switch {
	case on != "" && off != "":
		return on + " on for " + off
	case on != "":
		return on
	case event.PlayerID != "":
		return event.PlayerID
	default:
		return event.Description
	}
}

// AddClient attaches an observer client id. Attaching twice is a no-op.
func (s *Session) AddClient(clientID string) {
	if clientID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[clientID] = struct{}{}
}

// RemoveClient detaches an observer client id. Unknown ids are a no-op.
func (s *Session) RemoveClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, clientID)
}

// ClientCount returns how many observer clients are attached.
func (s *Session) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Preferences returns a copy of the current coach preferences.
func (s *Session) Preferences() model.CoachPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Apply(model.PreferencesPatch{})
}

// UpdatePreferences applies a patch copy-on-write and returns the new
// preferences. Snapshots taken before the update are unaffected.
func (s *Session) UpdatePreferences(patch model.PreferencesPatch) model.CoachPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = s.prefs.Apply(patch)
	return s.prefs.Apply(model.PreferencesPatch{})
}

// Context returns a copy of the current match context.
func (s *Session) Context() model.MatchContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchCtx.Apply(model.ContextPatch{})
}

// UpdateContext applies a patch copy-on-write and returns the new context.
func (s *Session) UpdateContext(patch model.ContextPatch) model.MatchContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchCtx = s.matchCtx.Apply(patch)
	return s.matchCtx.Apply(model.ContextPatch{})
}

// Phase returns the match phase at the context's current minute.
func (s *Session) Phase() model.MatchPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.PhaseForMinute(s.matchCtx.Minute)
}

// EventCount returns how many events the log holds.
func (s *Session) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// IdlePaused reports whether the session has sat paused longer than ttl.
// The idle sweeper uses this to pick eviction candidates.
func (s *Session) IdlePaused(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusPaused && time.Since(s.changedAt) > ttl
}

// StatusReport assembles the live status view served to observers.
func (s *Session) StatusReport() types.StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := time.Now()
	if !s.endedAt.IsZero() {
		ref = s.endedAt
	}
	base := s.startedAt
	if base.IsZero() {
		base = s.createdAt
	}

	return types.StatusReport{
		SessionID:      s.id,
		Status:         s.status.String(),
		Phase:          model.PhaseForMinute(s.matchCtx.Minute),
		UptimeSeconds:  ref.Sub(base).Seconds(),
		ClientCount:    len(s.clients),
		EventCount:     len(s.events),
		RecentInsights: s.recent.items(),
		Stats:          s.agg.Snapshot(),
	}
}
