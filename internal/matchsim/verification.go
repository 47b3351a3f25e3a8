package matchsim

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// verifyResults cross-checks the service's status reports against what the
// simulator actually submitted.
func verifyResults(ctx context.Context, config *Config, runs []*SessionRun, reports map[string]*StatusReport, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(reports) == 0 {
		return fmt.Errorf("no status reports to verify")
	}

	mismatches := 0
	for _, run := range runs {
		report, ok := reports[run.SessionID]
		if !ok {
			log.Printf("⚠️  No status report for session %s", run.SessionID)
			mismatches++
			continue
		}

		if report.Status != "active" {
			log.Printf("⚠️  Session %s is %s, expected active", run.SessionID, report.Status)
			mismatches++
		}

		// Every accepted event must be reflected in the session's count;
		// duplicates and failures must not be.
		if report.EventCount != run.Accepted {
			log.Printf("⚠️  Event count mismatch for %s: reported=%d accepted=%d",
				run.SessionID, report.EventCount, run.Accepted)
			mismatches++
		}

		// The session keeps generating after the ring is full, so the total
		// can only be at least what the acks carried (plus one query answer).
		if report.Stats.TotalInsights < run.Insights {
			log.Printf("⚠️  Insight count too low for %s: reported=%d acked=%d",
				run.SessionID, report.Stats.TotalInsights, run.Insights)
			mismatches++
		}

		if report.ClientCount < 1 {
			log.Printf("⚠️  Session %s lost its observer", run.SessionID)
			mismatches++
		}
	}

	if mismatches > 0 {
		return fmt.Errorf("verification found %d mismatches across %d sessions", mismatches, len(runs))
	}

	displayBusiestSessions(runs, reports, config.TopN, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// displayBusiestSessions shows the sessions that produced the most insights.
func displayBusiestSessions(runs []*SessionRun, reports map[string]*StatusReport, topN int, verbose bool) {
	sorted := make([]*SessionRun, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool {
		return reports[sorted[i].SessionID].Stats.TotalInsights > reports[sorted[j].SessionID].Stats.TotalInsights
	})

	if topN > len(sorted) {
		topN = len(sorted)
	}

	log.Printf("🏆 Top %d busiest sessions:", topN)
	for i := 0; i < topN; i++ {
		run := sorted[i]
		report := reports[run.SessionID]
		log.Printf("   %d. %s vs %s - insights: %d, events: %d, phase: %s",
			i+1, run.Timeline.HomeTeam, run.Timeline.AwayTeam,
			report.Stats.TotalInsights, report.EventCount, report.Phase)
	}

	if verbose {
		totalByUrgency := map[string]int{}
		totalByType := map[string]int{}
		for _, report := range reports {
			for urgency, n := range report.Stats.ByUrgency {
				totalByUrgency[urgency] += n
			}
			for insightType, n := range report.Stats.ByType {
				totalByType[insightType] += n
			}
		}
		log.Printf("📊 Insights by urgency: %v", totalByUrgency)
		log.Printf("📊 Insights by type: %v", totalByType)
	}
}
