package repository_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/okian/touchline/internal/adapters/repository"
	session "github.com/okian/touchline/internal/domain/session"
	types "github.com/okian/touchline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSweeperSweepOnce(t *testing.T) {
	Convey("Given a store with idle and busy sessions", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithCapacity(10))

		idle := activeSession("sess-idle")
		So(idle.Pause(), ShouldBeNil)

		active := activeSession("sess-active")

		freshPause := activeSession("sess-fresh")
		So(freshPause.Pause(), ShouldBeNil)

		So(store.Add(ctx, idle), ShouldBeNil)
		So(store.Add(ctx, active), ShouldBeNil)
		So(store.Add(ctx, freshPause), ShouldBeNil)

		Convey("When sweeping with a zero-ish TTL after a short wait", func() {
			var sweptIDs []string
			var snaps []types.Snapshot
			sweeper := repository.NewSweeper(store,
				repository.WithIdleTTL(10*time.Millisecond),
				repository.WithOnSwept(func(id string, snap types.Snapshot) {
					sweptIDs = append(sweptIDs, id)
					snaps = append(snaps, snap)
				}),
			)

			// Wait for both paused sessions to cross the TTL.
			time.Sleep(25 * time.Millisecond)
			n := sweeper.SweepOnce(ctx)

			Convey("Then only paused sessions past the TTL are ended", func() {
				So(n, ShouldEqual, 2)
				So(idle.Status(), ShouldEqual, session.StatusEnded)
				So(freshPause.Status(), ShouldEqual, session.StatusEnded)
				So(active.Status(), ShouldEqual, session.StatusActive)
			})

			Convey("Then the hook receives each final snapshot", func() {
				So(len(sweptIDs), ShouldEqual, 2)
				So(sweptIDs, ShouldContain, "sess-idle")
				So(sweptIDs, ShouldContain, "sess-fresh")
				So(snaps[0].EndedAt.IsZero(), ShouldBeFalse)
			})

			Convey("Then a second sweep finds nothing to do", func() {
				So(sweeper.SweepOnce(ctx), ShouldEqual, 0)
			})
		})

		Convey("When sweeping with a long TTL", func() {
			sweeper := repository.NewSweeper(store,
				repository.WithIdleTTL(time.Hour),
			)

			Convey("Then nothing is ended", func() {
				So(sweeper.SweepOnce(ctx), ShouldEqual, 0)
				So(idle.Status(), ShouldEqual, session.StatusPaused)
			})
		})
	})
}

func TestSweeperRaceWithExplicitEnd(t *testing.T) {
	Convey("Given a paused session already ended explicitly", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithCapacity(10))

		s := activeSession("sess-raced")
		So(s.Pause(), ShouldBeNil)
		So(store.Add(ctx, s), ShouldBeNil)

		_, err := s.End()
		So(err, ShouldBeNil)

		Convey("When the sweeper scans", func() {
			called := 0
			sweeper := repository.NewSweeper(store,
				repository.WithIdleTTL(time.Nanosecond),
				repository.WithOnSwept(func(string, types.Snapshot) { called++ }),
			)

			Convey("Then it observes the terminal state and does nothing", func() {
				So(sweeper.SweepOnce(ctx), ShouldEqual, 0)
				So(called, ShouldEqual, 0)
				So(s.Status(), ShouldEqual, session.StatusEnded)
			})
		})
	})
}

func TestSweeperRunLoop(t *testing.T) {
	Convey("Given a running sweeper", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithCapacity(10))

		s := activeSession("sess-loop")
		So(s.Pause(), ShouldBeNil)
		So(store.Add(ctx, s), ShouldBeNil)

		sweeper := repository.NewSweeper(store,
			repository.WithSweepInterval(10*time.Millisecond),
			repository.WithIdleTTL(10*time.Millisecond),
		)
		go sweeper.Run(ctx)

		Convey("When enough intervals pass", func() {
			time.Sleep(60 * time.Millisecond)
			sweeper.Stop()

			Convey("Then the idle session has been ended", func() {
				So(s.Status(), ShouldEqual, session.StatusEnded)
			})
		})
	})
}
