// Package stats maintains streaming statistics for a session's insight
// production. Everything is O(1) per update and holds no per-insight
// history, so a long match costs the same memory as a short one.
package stats

import (
	"time"

	model "github.com/okian/touchline/internal/domain/model"
)

// Aggregator accumulates insight counts, a running latency mean, and the
// ratio of localized content. It is not safe for concurrent use; the
// owning session serializes access.
type Aggregator struct {
	total     int
	byUrgency map[model.Urgency]int
	byType    map[model.InsightType]int

	latencySamples int
	latencyMeanMS  float64

	localizedSamples int
	localizedRatio   float64
}

// Summary is a copied-out view of an aggregator's state.
type Summary struct {
	TotalInsights  int                       `json:"total_insights"`
	ByUrgency      map[model.Urgency]int     `json:"by_urgency,omitempty"`
	ByType         map[model.InsightType]int `json:"by_type,omitempty"`
	AvgLatencyMS   float64                   `json:"avg_latency_ms"`
	LocalizedRatio float64                   `json:"localized_ratio"`
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{
		byUrgency: make(map[model.Urgency]int),
		byType:    make(map[model.InsightType]int),
	}
}

// RecordInsight counts one produced insight under its type and urgency.
func (a *Aggregator) RecordInsight(t model.InsightType, u model.Urgency) {
	a.total++
	a.byUrgency[u]++
	a.byType[t]++
}

// ObserveLatency folds one processing-latency sample into the running
// mean using Welford's update, which stays numerically stable over long
// sessions.
func (a *Aggregator) ObserveLatency(d time.Duration) {
	a.latencySamples++
	sample := float64(d) / float64(time.Millisecond)
	a.latencyMeanMS += (sample - a.latencyMeanMS) / float64(a.latencySamples)
}

// ObserveLocalized folds one localized-content flag into the running
// ratio without keeping the individual observations.
func (a *Aggregator) ObserveLocalized(localized bool) {
	var x float64
	if localized {
		x = 1
	}
	n := float64(a.localizedSamples)
	a.localizedRatio = (a.localizedRatio*n + x) / (n + 1)
	a.localizedSamples++
}

// Snapshot returns a copy of the current state. The maps are cloned so
// callers can hold the summary without racing future updates.
func (a *Aggregator) Snapshot() Summary {
	s := Summary{
		TotalInsights:  a.total,
		AvgLatencyMS:   a.latencyMeanMS,
		LocalizedRatio: a.localizedRatio,
	}
	if len(a.byUrgency) > 0 {
		s.ByUrgency = make(map[model.Urgency]int, len(a.byUrgency))
		for k, v := range a.byUrgency {
			s.ByUrgency[k] = v
		}
	}
	if len(a.byType) > 0 {
		s.ByType = make(map[model.InsightType]int, len(a.byType))
		for k, v := range a.byType {
			s.ByType[k] = v
		}
	}
	return s
}
