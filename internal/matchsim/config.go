package matchsim

import "time"

// Config holds configuration for the match simulation.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumSessions int           // Number of coaching sessions to drive
	NumEvents   int           // Number of match events per session
	TopN        int           // Number of busiest sessions to display
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated timelines
	LogFile     string        // Log file for simulation output
	Verbose     bool          // Enable verbose logging
}

// Event is the wire form of a match event submission.
type Event struct {
	EventID     string            `json:"event_id"`
	Type        string            `json:"type"`
	MatchMinute int               `json:"match_minute"`
	Description string            `json:"description,omitempty"`
	TeamID      string            `json:"team_id,omitempty"`
	PlayerID    string            `json:"player_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	TS          string            `json:"ts,omitempty"`
}

// Timeline is one session's scripted match: the fixture plus its ordered
// event stream.
type Timeline struct {
	MatchID   string  `json:"match_id"`
	HomeTeam  string  `json:"home_team"`
	AwayTeam  string  `json:"away_team"`
	Formation string  `json:"formation"`
	Events    []Event `json:"events"`
}

// AckResponse is the response from event submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Insights  []struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Urgency string `json:"urgency"`
	} `json:"insights,omitempty"`
}

// StatusReport is the subset of the session status payload the simulator
// verifies against.
type StatusReport struct {
	SessionID   string `json:"session_id"`
	Status      string `json:"status"`
	Phase       string `json:"phase"`
	ClientCount int    `json:"client_count"`
	EventCount  int    `json:"event_count"`
	Stats       struct {
		TotalInsights  int            `json:"total_insights"`
		ByUrgency      map[string]int `json:"by_urgency"`
		ByType         map[string]int `json:"by_type"`
		LocalizedRatio float64        `json:"localized_ratio"`
	} `json:"stats"`
}

// Snapshot is the subset of the end-of-session payload the simulator
// verifies against.
type Snapshot struct {
	SessionID       string  `json:"session_id"`
	MatchID         string  `json:"match_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	EventCount      int     `json:"event_count"`
}

// SessionRun tracks per-session submission results.
type SessionRun struct {
	SessionID string
	Timeline  *Timeline
	Accepted  int
	Duplicate int
	Failed    int
	Insights  int
}

// Stats holds simulation statistics.
type Stats struct {
	SessionsCreated  int
	EventsGenerated  int
	EventsSubmitted  int
	EventsAccepted   int
	EventsDuplicate  int
	EventsFailed     int
	InsightsReturned int
	QueriesAnswered  int
	SessionsEnded    int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
