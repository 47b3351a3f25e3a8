package insight_test

import (
	"errors"
	"testing"

	insight "github.com/okian/touchline/internal/domain/insight"
	model "github.com/okian/touchline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func snap(minute int) model.ContextSnapshot {
	return model.MatchContext{
		MatchID:  "match-1",
		HomeTeam: "Rovers",
		AwayTeam: "United",
		Minute:   minute,
	}.Snapshot()
}

func TestGenerateGoal(t *testing.T) {
	Convey("Given the default rule table", t, func() {
		registry := insight.NewRegistry()

		Convey("When the home side concedes late in the match", func() {
			event := model.MatchEvent{
				ID:          "evt-1",
				Type:        model.EventGoal,
				MatchMinute: 85,
				Metadata:    map[string]string{model.MetaConcedingTeam: "home"},
			}
			drafts, err := registry.Generate(event, snap(85))

			Convey("Then one critical seek-equalizer draft should come back", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldHaveLength, 1)
				So(drafts[0].Type, ShouldEqual, model.InsightTacticalAdjustment)
				So(drafts[0].Urgency, ShouldEqual, model.UrgencyCritical)
				So(drafts[0].Content, ShouldContainSubstring, "equalizer")
				So(drafts[0].Actions, ShouldNotBeEmpty)
			})

			Convey("Then the draft should carry rule provenance", func() {
				So(drafts[0].Sources, ShouldHaveLength, 1)
				So(drafts[0].Sources[0].Kind, ShouldEqual, model.SourceRule)
				So(drafts[0].Sources[0].SourceID, ShouldEqual, "goal.seek_equalizer")
			})
		})

		Convey("When the home side concedes early", func() {
			event := model.MatchEvent{
				ID:          "evt-2",
				Type:        model.EventGoal,
				MatchMinute: 30,
				Metadata:    map[string]string{model.MetaConcedingTeam: "Rovers"},
			}
			drafts, err := registry.Generate(event, snap(30))

			Convey("Then the urgency should be high, not critical", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldHaveLength, 1)
				So(drafts[0].Urgency, ShouldEqual, model.UrgencyHigh)
				So(drafts[0].Content, ShouldContainSubstring, "equalizer")
			})
		})

		Convey("When the home side scores", func() {
			event := model.MatchEvent{
				ID:          "evt-3",
				Type:        model.EventGoal,
				MatchMinute: 81,
				Metadata:    map[string]string{model.MetaScoringTeam: "home"},
			}
			drafts, err := registry.Generate(event, snap(81))

			Convey("Then the draft should defend the momentum", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldHaveLength, 1)
				So(drafts[0].Urgency, ShouldEqual, model.UrgencyCritical)
				So(drafts[0].Content, ShouldContainSubstring, "Protect the lead")
			})
		})

		Convey("When the away side is named as scorer by team name", func() {
			event := model.MatchEvent{
				ID:          "evt-4",
				Type:        model.EventGoal,
				MatchMinute: 60,
				Metadata:    map[string]string{model.MetaScoringTeam: "United"},
			}
			drafts, err := registry.Generate(event, snap(60))

			Convey("Then the home side is treated as conceding", func() {
				So(err, ShouldBeNil)
				So(drafts[0].Content, ShouldContainSubstring, "equalizer")
			})
		})

		Convey("When the minute sits exactly on the late-goal boundary", func() {
			event := model.MatchEvent{
				ID:          "evt-5",
				Type:        model.EventGoal,
				MatchMinute: 80,
				Metadata:    map[string]string{model.MetaConcedingTeam: "home"},
			}
			drafts, err := registry.Generate(event, snap(80))

			Convey("Then minute 80 should still be high", func() {
				So(err, ShouldBeNil)
				So(drafts[0].Urgency, ShouldEqual, model.UrgencyHigh)
			})
		})
	})
}

func TestGenerateOtherRules(t *testing.T) {
	Convey("Given the default rule table", t, func() {
		registry := insight.NewRegistry()

		Convey("When a yellow card event arrives", func() {
			event := model.MatchEvent{
				ID:       "evt-card-y",
				Type:     model.EventCard,
				PlayerID: "player-4",
				Metadata: map[string]string{model.MetaCardColor: "yellow"},
			}
			drafts, err := registry.Generate(event, snap(40))

			So(err, ShouldBeNil)
			So(drafts, ShouldHaveLength, 1)
			So(drafts[0].Type, ShouldEqual, model.InsightDisciplineWarning)
			So(drafts[0].Urgency, ShouldEqual, model.UrgencyMedium)
			So(drafts[0].Content, ShouldContainSubstring, "player-4")
		})

		Convey("When a red card event arrives", func() {
			event := model.MatchEvent{
				ID:       "evt-card-r",
				Type:     model.EventCard,
				PlayerID: "player-5",
				Metadata: map[string]string{model.MetaCardColor: "red"},
			}
			drafts, err := registry.Generate(event, snap(55))

			So(err, ShouldBeNil)
			So(drafts, ShouldHaveLength, 1)
			So(drafts[0].Type, ShouldEqual, model.InsightTacticalAdjustment)
			So(drafts[0].Urgency, ShouldEqual, model.UrgencyHigh)
		})

		Convey("When a serious injury event arrives", func() {
			event := model.MatchEvent{
				ID:       "evt-inj",
				Type:     model.EventInjury,
				PlayerID: "player-10",
				Metadata: map[string]string{model.MetaSeverity: "serious"},
			}
			drafts, err := registry.Generate(event, snap(65))

			Convey("Then response and substitution drafts should both come back", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldHaveLength, 2)
				So(drafts[0].Type, ShouldEqual, model.InsightInjuryResponse)
				So(drafts[0].Urgency, ShouldEqual, model.UrgencyHigh)
				So(drafts[1].Type, ShouldEqual, model.InsightSubstitutionSuggestion)
			})
		})

		Convey("When a minor injury event arrives", func() {
			event := model.MatchEvent{
				ID:       "evt-inj-minor",
				Type:     model.EventInjury,
				PlayerID: "player-11",
			}
			drafts, err := registry.Generate(event, snap(65))

			So(err, ShouldBeNil)
			So(drafts, ShouldHaveLength, 1)
			So(drafts[0].Urgency, ShouldEqual, model.UrgencyMedium)
		})

		Convey("When momentum shifts against the side late on", func() {
			event := model.MatchEvent{
				ID:          "evt-mom",
				Type:        model.EventMomentumShift,
				MatchMinute: 78,
				Metadata:    map[string]string{model.MetaDirection: "against"},
			}
			drafts, err := registry.Generate(event, snap(78))

			Convey("Then a warning and a fresh-legs suggestion should come back", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldHaveLength, 2)
				So(drafts[0].Type, ShouldEqual, model.InsightMomentumWarning)
				So(drafts[0].Urgency, ShouldEqual, model.UrgencyHigh)
				So(drafts[1].Type, ShouldEqual, model.InsightSubstitutionSuggestion)
			})
		})

		Convey("When momentum shifts toward the side", func() {
			event := model.MatchEvent{
				ID:          "evt-mom-for",
				Type:        model.EventMomentumShift,
				MatchMinute: 30,
				Metadata:    map[string]string{model.MetaDirection: "toward"},
			}
			drafts, err := registry.Generate(event, snap(30))

			So(err, ShouldBeNil)
			So(drafts, ShouldHaveLength, 1)
			So(drafts[0].Type, ShouldEqual, model.InsightSetPieceOpportunity)
		})

		Convey("When a formation change names the new shape", func() {
			event := model.MatchEvent{
				ID:       "evt-form",
				Type:     model.EventFormationChange,
				Metadata: map[string]string{model.MetaNewFormation: "3-5-2"},
			}
			drafts, err := registry.Generate(event, snap(50))

			So(err, ShouldBeNil)
			So(drafts, ShouldHaveLength, 1)
			So(drafts[0].Type, ShouldEqual, model.InsightFormationChange)
			So(drafts[0].Content, ShouldContainSubstring, "3-5-2")
		})

		Convey("When every known tag is exercised", func() {
			tags := []model.EventType{
				model.EventGoal,
				model.EventSubstitution,
				model.EventCard,
				model.EventTacticalChange,
				model.EventInjury,
				model.EventFormationChange,
				model.EventMomentumShift,
			}

			Convey("Then each tag should produce at least one draft", func() {
				for _, tag := range tags {
					drafts, err := registry.Generate(model.MatchEvent{ID: "evt", Type: tag, MatchMinute: 10}, snap(10))
					So(err, ShouldBeNil)
					So(len(drafts), ShouldBeGreaterThanOrEqualTo, 1)
				}
			})
		})
	})
}

func TestGenerateUnknownTag(t *testing.T) {
	Convey("Given the default rule table", t, func() {
		registry := insight.NewRegistry()

		Convey("When an unknown tag arrives", func() {
			drafts, err := registry.Generate(model.MatchEvent{
				ID:   "evt-unknown",
				Type: model.EventType("weather_delay"),
			}, snap(10))

			Convey("Then no drafts and no error should come back", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldBeNil)
			})
		})
	})
}

func TestGenerateFaultIsolation(t *testing.T) {
	Convey("Given a registry with a faulty rule installed", t, func() {
		Convey("When the rule panics", func() {
			registry := insight.NewRegistry(
				insight.WithRule(model.EventGoal, func(model.MatchEvent, model.ContextSnapshot) ([]model.InsightDraft, error) {
					panic("boom")
				}),
			)
			drafts, err := registry.Generate(model.MatchEvent{ID: "evt", Type: model.EventGoal}, snap(10))

			Convey("Then the panic should surface as a generator fault", func() {
				So(drafts, ShouldBeNil)
				So(errors.Is(err, insight.ErrGeneratorFault), ShouldBeTrue)
			})
		})

		Convey("When the rule returns an error", func() {
			registry := insight.NewRegistry(
				insight.WithRule(model.EventCard, func(model.MatchEvent, model.ContextSnapshot) ([]model.InsightDraft, error) {
					return nil, errors.New("bad lookup")
				}),
			)
			drafts, err := registry.Generate(model.MatchEvent{ID: "evt", Type: model.EventCard}, snap(10))

			Convey("Then the error should surface as a generator fault", func() {
				So(drafts, ShouldBeNil)
				So(errors.Is(err, insight.ErrGeneratorFault), ShouldBeTrue)
			})
		})

		Convey("When another tag fires afterwards", func() {
			registry := insight.NewRegistry(
				insight.WithRule(model.EventGoal, func(model.MatchEvent, model.ContextSnapshot) ([]model.InsightDraft, error) {
					panic("boom")
				}),
			)
			_, _ = registry.Generate(model.MatchEvent{ID: "evt", Type: model.EventGoal}, snap(10))
			drafts, err := registry.Generate(model.MatchEvent{ID: "evt2", Type: model.EventInjury}, snap(10))

			Convey("Then the healthy rule should be unaffected", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldNotBeEmpty)
			})
		})
	})
}

func TestLocalize(t *testing.T) {
	Convey("Given a goal draft", t, func() {
		registry := insight.NewRegistry()
		event := model.MatchEvent{
			ID:          "evt-loc",
			Type:        model.EventGoal,
			MatchMinute: 88,
			Metadata:    map[string]string{model.MetaConcedingTeam: "home"},
		}
		drafts, err := registry.Generate(event, snap(88))
		So(err, ShouldBeNil)
		So(drafts, ShouldHaveLength, 1)

		Convey("When localizing to Spanish", func() {
			localized := insight.Localize(drafts[0], "es")

			Convey("Then the content should be rendered with the same arguments", func() {
				So(localized.LocalizedContent, ShouldContainSubstring, "minuto 88")
				So(localized.LocalizedContent, ShouldContainSubstring, "empate")
			})

			Convey("Then the actions should be translated", func() {
				So(localized.Actions[0].LocalizedAction, ShouldNotBeEmpty)
			})

			Convey("Then the original draft should keep its English content", func() {
				So(drafts[0].LocalizedContent, ShouldBeEmpty)
				So(drafts[0].Actions[0].LocalizedAction, ShouldBeEmpty)
			})
		})

		Convey("When localizing to English", func() {
			localized := insight.Localize(drafts[0], "en")
			So(localized.LocalizedContent, ShouldBeEmpty)
		})

		Convey("When localizing to an uncatalogued language", func() {
			localized := insight.Localize(drafts[0], "pt")
			So(localized.LocalizedContent, ShouldBeEmpty)
		})
	})
}

func TestWithRuleOverride(t *testing.T) {
	Convey("Given a registry with an overridden rule", t, func() {
		custom := func(event model.MatchEvent, _ model.ContextSnapshot) ([]model.InsightDraft, error) {
			return []model.InsightDraft{{
				Type:    model.InsightSetPieceOpportunity,
				Content: "custom",
				Urgency: model.UrgencyLow,
			}}, nil
		}
		registry := insight.NewRegistry(insight.WithRule(model.EventSubstitution, custom))

		Convey("When the overridden tag fires", func() {
			drafts, err := registry.Generate(model.MatchEvent{ID: "evt", Type: model.EventSubstitution}, snap(10))

			Convey("Then the custom rule should run instead of the default", func() {
				So(err, ShouldBeNil)
				So(drafts, ShouldHaveLength, 1)
				So(drafts[0].Content, ShouldEqual, "custom")
			})
		})
	})
}
