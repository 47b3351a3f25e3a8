package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/okian/touchline/internal/adapters/repository"
	service "github.com/okian/touchline/internal/app"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/session"
	"github.com/okian/touchline/internal/domain/subscription"
	"github.com/okian/touchline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testMatchContext() model.MatchContext {
	return model.MatchContext{
		MatchID:   "match-1",
		HomeTeam:  "Rovers",
		AwayTeam:  "United",
		Formation: "4-4-2",
	}
}

func startedService(opts ...service.Option) (*service.Service, context.CancelFunc) {
	svc := service.New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	_ = svc.Start(ctx)
	return svc, cancel
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(
			service.WithDispatchWorkers(2),
			service.WithQueueSize(100),
			service.WithDedupeSize(100),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)
			defer svc.Stop()

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping before starting", func() {
			Convey("Then it should not panic", func() {
				So(svc.Stop, ShouldNotPanic)
			})
		})
	})
}

func TestServiceSessions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, cancel := startedService(
			service.WithDispatchWorkers(1),
			service.WithMaxSessions(2),
		)
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When creating a session", func() {
			id, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())

			Convey("Then it is created and immediately active", func() {
				So(err, ShouldBeNil)
				So(id, ShouldNotBeEmpty)

				report, err := svc.GetStatus(ctx, id)
				So(err, ShouldBeNil)
				So(report.Status, ShouldEqual, "active")
				So(report.EventCount, ShouldEqual, 0)
			})

			Convey("And ending it returns the final snapshot", func() {
				snap, err := svc.EndSession(ctx, id)
				So(err, ShouldBeNil)
				So(snap.SessionID, ShouldEqual, id)
				So(snap.MatchID, ShouldEqual, "match-1")

				Convey("And ending twice fails with an invalid transition", func() {
					_, err := svc.EndSession(ctx, id)
					So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)
				})

				Convey("And the terminal record can be removed", func() {
					So(svc.Remove(ctx, id), ShouldBeNil)
					_, err := svc.GetStatus(ctx, id)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("And removing it while active is rejected", func() {
				err := svc.Remove(ctx, id)
				So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When the session capacity is exhausted", func() {
			_, err1 := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
			_, err2 := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)

			_, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())

			Convey("Then creation fails with capacity exceeded", func() {
				So(errors.Is(err, repository.ErrCapacityExceeded), ShouldBeTrue)
			})
		})

		Convey("When asking for an unknown session", func() {
			_, err := svc.GetStatus(ctx, "missing")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServicePauseResume(t *testing.T) {
	Convey("Given a started service with a session", t, func() {
		svc, cancel := startedService(service.WithDispatchWorkers(1))
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		id, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
		So(err, ShouldBeNil)

		Convey("When pausing the session", func() {
			report, err := svc.PauseSession(ctx, id)

			Convey("Then it reports paused", func() {
				So(err, ShouldBeNil)
				So(report.Status, ShouldEqual, "paused")
			})

			Convey("And events are ignored while paused", func() {
				insights, err := svc.ProcessMatchEvent(ctx, id, model.MatchEvent{
					ID:          "ev-paused",
					Type:        model.EventGoal,
					MatchMinute: 12,
				})
				So(err, ShouldBeNil)
				So(insights, ShouldBeEmpty)
			})

			Convey("And pausing again is an invalid transition", func() {
				_, err := svc.PauseSession(ctx, id)
				So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)
			})

			Convey("And resuming reactivates it", func() {
				report, err := svc.ResumeSession(ctx, id)
				So(err, ShouldBeNil)
				So(report.Status, ShouldEqual, "active")

				insights, err := svc.ProcessMatchEvent(ctx, id, model.MatchEvent{
					ID:          "ev-resumed",
					Type:        model.EventGoal,
					MatchMinute: 13,
					Metadata: map[string]string{
						model.MetaScoringTeam:   "United",
						model.MetaConcedingTeam: "Rovers",
					},
				})
				So(err, ShouldBeNil)
				So(insights, ShouldNotBeEmpty)
			})
		})

		Convey("When pausing an ended session", func() {
			_, err := svc.EndSession(ctx, id)
			So(err, ShouldBeNil)

			_, err = svc.PauseSession(ctx, id)

			Convey("Then it fails with an invalid transition", func() {
				So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When pausing an unknown session", func() {
			_, err := svc.PauseSession(ctx, "missing")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When resuming a session that is not paused", func() {
			_, err := svc.ResumeSession(ctx, id)

			Convey("Then it fails with an invalid transition", func() {
				So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)
			})
		})
	})
}

func TestServiceProcessMatchEvent(t *testing.T) {
	Convey("Given a started service with a session", t, func() {
		svc, cancel := startedService(service.WithDispatchWorkers(1))
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		id, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
		So(err, ShouldBeNil)

		Convey("When processing a goal event", func() {
			insights, err := svc.ProcessMatchEvent(ctx, id, model.MatchEvent{
				ID:          "ev-1",
				Type:        model.EventGoal,
				MatchMinute: 30,
				Metadata: map[string]string{
					model.MetaScoringTeam:   "United",
					model.MetaConcedingTeam: "Rovers",
				},
			})

			Convey("Then insights come back committed", func() {
				So(err, ShouldBeNil)
				So(insights, ShouldNotBeEmpty)
				So(insights[0].TriggerEventID, ShouldEqual, "ev-1")

				report, err := svc.GetStatus(ctx, id)
				So(err, ShouldBeNil)
				So(report.EventCount, ShouldEqual, 1)
				So(report.RecentInsights, ShouldNotBeEmpty)
			})
		})

		Convey("When processing an unknown event tag", func() {
			insights, err := svc.ProcessMatchEvent(ctx, id, model.MatchEvent{
				ID:          "ev-unknown",
				Type:        model.EventType("weather_report"),
				MatchMinute: 31,
			})

			Convey("Then no insights are produced but the event is recorded", func() {
				So(err, ShouldBeNil)
				So(insights, ShouldBeEmpty)

				report, err := svc.GetStatus(ctx, id)
				So(err, ShouldBeNil)
				So(report.EventCount, ShouldEqual, 1)
			})
		})

		Convey("When processing for an unknown session", func() {
			_, err := svc.ProcessMatchEvent(ctx, "missing", model.MatchEvent{
				ID:   "ev-2",
				Type: model.EventGoal,
			})

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When processing after the session ended", func() {
			_, err := svc.EndSession(ctx, id)
			So(err, ShouldBeNil)

			insights, err := svc.ProcessMatchEvent(ctx, id, model.MatchEvent{
				ID:          "ev-3",
				Type:        model.EventGoal,
				MatchMinute: 50,
			})

			Convey("Then the event is ignored without error", func() {
				So(err, ShouldBeNil)
				So(insights, ShouldBeEmpty)
			})
		})
	})
}

// respondFunc adapts a function to the Responder interface for tests.
type respondFunc func(context.Context, service.QueryRequest, model.ContextSnapshot) (service.QueryResponse, error)

func (f respondFunc) Respond(ctx context.Context, req service.QueryRequest, snap model.ContextSnapshot) (service.QueryResponse, error) {
	return f(ctx, req, snap)
}

func TestServiceSubmitQuery(t *testing.T) {
	Convey("Given a started service with a session", t, func() {
		svc, cancel := startedService(service.WithDispatchWorkers(1))
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		id, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
		So(err, ShouldBeNil)

		Convey("When submitting a query", func() {
			ins, err := svc.SubmitQuery(ctx, service.QueryRequest{
				SessionID: id,
				Query:     "should we press higher?",
			})

			Convey("Then the answer is wrapped into a query_response insight", func() {
				So(err, ShouldBeNil)
				So(ins.Type, ShouldEqual, model.InsightQueryResponse)
				So(ins.Content, ShouldNotBeEmpty)
				So(ins.Urgency, ShouldEqual, model.UrgencyMedium)
				So(ins.MatchContext.MatchID, ShouldEqual, "match-1")

				report, err := svc.GetStatus(ctx, id)
				So(err, ShouldBeNil)
				So(report.RecentInsights, ShouldNotBeEmpty)
			})
		})

		Convey("When the session's threshold suppresses the answer", func() {
			threshold := model.UrgencyCritical
			_, err := svc.UpdatePreferences(ctx, id, model.PreferencesPatch{
				UrgencyThreshold: &threshold,
			})
			So(err, ShouldBeNil)

			ins, err := svc.SubmitQuery(ctx, service.QueryRequest{
				SessionID: id,
				Query:     "anything to tweak?",
				Urgency:   model.UrgencyLow,
			})

			Convey("Then the insight still returns to the caller", func() {
				So(err, ShouldBeNil)
				So(ins.Content, ShouldNotBeEmpty)

				report, err := svc.GetStatus(ctx, id)
				So(err, ShouldBeNil)
				So(report.RecentInsights, ShouldBeEmpty)
			})
		})

		Convey("When the responder fails", func() {
			failing := respondFunc(func(context.Context, service.QueryRequest, model.ContextSnapshot) (service.QueryResponse, error) {
				return service.QueryResponse{}, errors.New("collaborator down")
			})
			svc2, cancel2 := startedService(
				service.WithDispatchWorkers(1),
				service.WithResponder(failing),
			)
			defer cancel2()
			defer svc2.Stop()

			id2, err := svc2.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
			So(err, ShouldBeNil)

			_, err = svc2.SubmitQuery(ctx, service.QueryRequest{SessionID: id2, Query: "hello"})

			Convey("Then the query fails synchronously", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When querying an unknown session", func() {
			_, err := svc.SubmitQuery(ctx, service.QueryRequest{SessionID: "missing", Query: "hi"})

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceSubscriptions(t *testing.T) {
	Convey("Given a started service with a session", t, func() {
		svc, cancel := startedService(service.WithDispatchWorkers(1))
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		id, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
		So(err, ShouldBeNil)

		Convey("When subscribing a client", func() {
			err := svc.Subscribe(ctx, subscription.Descriptor{
				SessionID: id,
				ClientID:  "coach-1",
				Kind:      subscription.KindAll,
			})

			Convey("Then the subscription registers", func() {
				So(err, ShouldBeNil)
			})

			Convey("And unsubscribing removes it", func() {
				So(svc.Unsubscribe(ctx, id, "coach-1"), ShouldBeNil)

				err := svc.Unsubscribe(ctx, id, "coach-1")
				So(errors.Is(err, subscription.ErrNotFound), ShouldBeTrue)
			})

			Convey("And ending the session drops it", func() {
				_, err := svc.EndSession(ctx, id)
				So(err, ShouldBeNil)

				err = svc.Unsubscribe(ctx, id, "coach-1")
				So(errors.Is(err, subscription.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When subscribing to an unknown session", func() {
			err := svc.Subscribe(ctx, subscription.Descriptor{
				SessionID: "missing",
				ClientID:  "coach-1",
			})

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When attaching observer clients", func() {
			So(svc.AddClient(ctx, id, "viewer-1"), ShouldBeNil)
			So(svc.AddClient(ctx, id, "viewer-1"), ShouldBeNil) // idempotent
			So(svc.AddClient(ctx, id, "viewer-2"), ShouldBeNil)

			report, err := svc.GetStatus(ctx, id)
			So(err, ShouldBeNil)
			So(report.ClientCount, ShouldEqual, 2)

			Convey("And detaching one", func() {
				So(svc.RemoveClient(ctx, id, "viewer-1"), ShouldBeNil)

				report, err := svc.GetStatus(ctx, id)
				So(err, ShouldBeNil)
				So(report.ClientCount, ShouldEqual, 1)
			})
		})
	})
}

func TestServicePreferencesAndContext(t *testing.T) {
	Convey("Given a started service with a session", t, func() {
		svc, cancel := startedService(
			service.WithDispatchWorkers(1),
			service.WithDefaultLanguage("es"),
		)
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		id, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
		So(err, ShouldBeNil)

		Convey("When updating preferences", func() {
			auto := false
			prefs, err := svc.UpdatePreferences(ctx, id, model.PreferencesPatch{
				AutoNotify: &auto,
			})

			Convey("Then the patch applies over the configured defaults", func() {
				So(err, ShouldBeNil)
				So(prefs.AutoNotify, ShouldBeFalse)
				So(prefs.Language, ShouldEqual, "es")
			})
		})

		Convey("When updating the match context", func() {
			formation := "3-5-2"
			mctx, err := svc.UpdateContext(ctx, id, model.ContextPatch{
				Formation: &formation,
			})

			Convey("Then the change is visible", func() {
				So(err, ShouldBeNil)
				So(mctx.Formation, ShouldEqual, "3-5-2")
				So(mctx.MatchID, ShouldEqual, "match-1")
			})
		})
	})
}

func TestServiceDedupe(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, cancel := startedService(
			service.WithDispatchWorkers(1),
			service.WithDedupeSize(10),
		)
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When recording an event id", func() {
			first := svc.SeenAndRecord(ctx, "ev-1")
			second := svc.SeenAndRecord(ctx, "ev-1")

			Convey("Then only the retry is reported as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})

			Convey("And unrecording allows a retry", func() {
				svc.Unrecord(ctx, "ev-1")
				So(svc.SeenAndRecord(ctx, "ev-1"), ShouldBeFalse)
			})
		})
	})
}

func TestServiceStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, cancel := startedService(service.WithDispatchWorkers(1))
		defer cancel()
		defer svc.Stop()
		ctx := context.Background()

		_, err := svc.CreateSession(ctx, model.PreferencesPatch{}, testMatchContext())
		So(err, ShouldBeNil)

		Convey("When fetching stats", func() {
			// Give background components a moment to settle
			time.Sleep(10 * time.Millisecond)
			stats := svc.GetStats()

			Convey("Then the counters reflect the state", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["sessions"], ShouldEqual, 1)
				So(stats["activeSessions"], ShouldEqual, 1)
			})
		})
	})
}
