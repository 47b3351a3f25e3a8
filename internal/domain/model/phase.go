package model

// MatchPhase identifies the segment of the match a minute falls in.
type MatchPhase string

// Match phases in chronological order.
const (
	PhasePreMatch        MatchPhase = "pre_match"
	PhaseFirstHalf       MatchPhase = "first_half"
	PhaseHalfTime        MatchPhase = "half_time"
	PhaseSecondHalf      MatchPhase = "second_half"
	PhaseExtraTime       MatchPhase = "extra_time"
	PhasePenaltyShootout MatchPhase = "penalty_shootout"
	PhasePostMatch       MatchPhase = "post_match"
)

// PhaseForMinute maps a match-clock minute to its phase. Minutes 46 and 47
// report half_time; live feeds hold the clock there during the break.
// Negative minutes report post_match.
func PhaseForMinute(minute int) MatchPhase {
	switch {
	case minute == 0:
		return PhasePreMatch
	case minute > 0 && minute <= 45:
		return PhaseFirstHalf
	case minute > 45 && minute <= 47:
		return PhaseHalfTime
	case minute > 47 && minute <= 90:
		return PhaseSecondHalf
	case minute > 90 && minute <= 120:
		return PhaseExtraTime
	case minute > 120:
		return PhasePenaltyShootout
	default:
		return PhasePostMatch
	}
}
