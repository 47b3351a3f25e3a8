package model_test

import (
	"testing"
	"time"

	model "github.com/okian/touchline/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMatchEvent(t *testing.T) {
	convey.Convey("Given a MatchEvent struct", t, func() {
		convey.Convey("When creating a new event", func() {
			ts := time.Now()
			event := model.MatchEvent{
				ID:          "event-123",
				Type:        model.EventGoal,
				Timestamp:   ts,
				MatchMinute: 67,
				Description: "Goal for the home side",
				TeamID:      "team-home",
				PlayerID:    "player-9",
				Metadata: map[string]string{
					model.MetaScoringTeam:   "home",
					model.MetaConcedingTeam: "away",
				},
			}

			convey.Convey("Then it should have the correct values", func() {
				convey.So(event.ID, convey.ShouldEqual, "event-123")
				convey.So(event.Type, convey.ShouldEqual, model.EventGoal)
				convey.So(event.Timestamp, convey.ShouldEqual, ts)
				convey.So(event.MatchMinute, convey.ShouldEqual, 67)
				convey.So(event.Metadata[model.MetaConcedingTeam], convey.ShouldEqual, "away")
			})
		})

		convey.Convey("When creating an event with zero values", func() {
			event := model.MatchEvent{}

			convey.Convey("Then it should have default values", func() {
				convey.So(event.ID, convey.ShouldEqual, "")
				convey.So(event.Type, convey.ShouldEqual, model.EventType(""))
				convey.So(event.MatchMinute, convey.ShouldEqual, 0)
				convey.So(event.Metadata, convey.ShouldBeNil)
			})
		})

		convey.Convey("When creating an event with an unknown tag", func() {
			event := model.MatchEvent{
				ID:   "event-odd",
				Type: model.EventType("weather_delay"),
			}

			convey.Convey("Then the tag should be carried as-is", func() {
				convey.So(string(event.Type), convey.ShouldEqual, "weather_delay")
			})
		})

		convey.Convey("When creating an event without optional fields", func() {
			event := model.MatchEvent{
				ID:          "event-min",
				Type:        model.EventMomentumShift,
				MatchMinute: 30,
			}

			convey.Convey("Then team, player and metadata stay empty", func() {
				convey.So(event.TeamID, convey.ShouldEqual, "")
				convey.So(event.PlayerID, convey.ShouldEqual, "")
				convey.So(event.Metadata, convey.ShouldBeNil)
			})
		})
	})
}
