package matchsim

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/touchline/pkg/logger"
)

// Match clock boundaries for generated events.
const (
	firstHalfStart   = 1
	secondHalfStart  = 46
	fullTimeMinute   = 90
	stoppageMaxExtra = 5
)

// Per-timeline event mix weights, in percent. The remainder is filled with
// momentum shifts.
const (
	goalWeight         = 15
	cardWeight         = 25
	substitutionWeight = 15
	tacticalWeight     = 15
	injuryWeight       = 10
	formationWeight    = 10
)

var teamPool = []string{
	"Rio Verde", "Porto Norte", "Atlético Lumen", "Cedar Rovers",
	"Harbor City", "Monte Claro", "Vale United", "Northgate FC",
	"Salt River", "Alta Vista", "Kestrel Town", "Old Docks",
}

var formationPool = []string{"4-4-2", "4-3-3", "3-5-2", "4-2-3-1", "5-3-2"}

var cardColors = []string{"yellow", "yellow", "yellow", "red"}

var tacticalFocuses = []string{"high press", "counter attack", "possession", "park the bus", "wing play"}

var injurySeverities = []string{"minor", "moderate", "severe"}

var momentumDirections = []string{"home", "away"}

// getRandomInt returns a uniform random int in [0, n) using crypto/rand.
func getRandomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateTimelines builds one scripted match timeline per session.
func generateTimelines(ctx context.Context, config *Config, stats *Stats) ([]*Timeline, error) {
	logger.Get().Info(ctx, "generating match timelines",
		logger.Int("sessions", config.NumSessions),
		logger.Int("eventsPerSession", config.NumEvents))

	timelines := make([]*Timeline, config.NumSessions)
	for i := 0; i < config.NumSessions; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during timeline generation: %w", ctx.Err())
		default:
		}
		timelines[i] = generateTimeline(i, config.NumEvents)
		stats.EventsGenerated += len(timelines[i].Events)
	}

	logger.Get().Info(ctx, "generated timelines successfully",
		logger.Int("timelines", len(timelines)),
		logger.Int("events", stats.EventsGenerated))
	return timelines, nil
}

// generateTimeline builds a single match: a fixture between two distinct
// teams and an event stream ordered by match minute.
func generateTimeline(index, numEvents int) *Timeline {
	home := teamPool[getRandomInt(len(teamPool))]
	away := teamPool[getRandomInt(len(teamPool))]
	for away == home {
		away = teamPool[getRandomInt(len(teamPool))]
	}

	tl := &Timeline{
		MatchID:   "match_" + strconv.Itoa(index) + "_" + uuid.New().String()[:8],
		HomeTeam:  home,
		AwayTeam:  away,
		Formation: formationPool[getRandomInt(len(formationPool))],
		Events:    make([]Event, 0, numEvents),
	}

	for i := 0; i < numEvents; i++ {
		tl.Events = append(tl.Events, generateMatchEvent(tl, index, i))
	}

	// Feed clients report events in clock order
	sort.SliceStable(tl.Events, func(a, b int) bool {
		return tl.Events[a].MatchMinute < tl.Events[b].MatchMinute
	})
	return tl
}

// generateMatchEvent rolls the event mix and fills in tag-specific metadata.
func generateMatchEvent(tl *Timeline, session, seq int) Event {
	minute := firstHalfStart + getRandomInt(fullTimeMinute+stoppageMaxExtra)
	team := tl.HomeTeam
	opponent := tl.AwayTeam
	if getRandomInt(2) == 1 {
		team = tl.AwayTeam
		opponent = tl.HomeTeam
	}
	player := "player_" + strconv.Itoa(1+getRandomInt(23))

	ev := Event{
		EventID:     "evt_" + strconv.Itoa(session) + "_" + strconv.Itoa(seq) + "_" + uuid.New().String()[:8],
		MatchMinute: minute,
		TeamID:      team,
		PlayerID:    player,
		TS:          time.Now().UTC().Format(time.RFC3339),
		Metadata:    map[string]string{},
	}

	roll := getRandomInt(PercentageMultiplier)
	switch {
	case roll < goalWeight:
		ev.Type = "goal"
		ev.Description = team + " score"
		ev.Metadata["scoring_team"] = team
		ev.Metadata["conceding_team"] = opponent
	case roll < goalWeight+cardWeight:
		ev.Type = "card"
		color := cardColors[getRandomInt(len(cardColors))]
		ev.Description = color + " card for " + player
		ev.Metadata["card_color"] = color
	case roll < goalWeight+cardWeight+substitutionWeight:
		ev.Type = "substitution"
		on := "player_" + strconv.Itoa(24+getRandomInt(12))
		if ev.MatchMinute < secondHalfStart {
			ev.MatchMinute = secondHalfStart + getRandomInt(fullTimeMinute-secondHalfStart)
		}
		ev.Description = on + " on for " + player
		ev.Metadata["player_on"] = on
		ev.Metadata["player_off"] = player
	case roll < goalWeight+cardWeight+substitutionWeight+tacticalWeight:
		ev.Type = "tactical_change"
		ev.Description = team + " switch approach"
		ev.Metadata["direction"] = tacticalFocuses[getRandomInt(len(tacticalFocuses))]
	case roll < goalWeight+cardWeight+substitutionWeight+tacticalWeight+injuryWeight:
		ev.Type = "injury"
		ev.Description = player + " down injured"
		ev.Metadata["severity"] = injurySeverities[getRandomInt(len(injurySeverities))]
	case roll < goalWeight+cardWeight+substitutionWeight+tacticalWeight+injuryWeight+formationWeight:
		ev.Type = "formation_change"
		formation := formationPool[getRandomInt(len(formationPool))]
		ev.Description = team + " move to " + formation
		ev.Metadata["new_formation"] = formation
	default:
		ev.Type = "momentum_shift"
		direction := momentumDirections[getRandomInt(len(momentumDirections))]
		ev.Description = "momentum shifting " + direction
		ev.Metadata["direction"] = direction
	}
	return ev
}
