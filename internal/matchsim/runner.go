package matchsim

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/touchline/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete match simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting touchline match simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.NumSessions),
		logger.Int("eventsPerSession", config.NumEvents),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate timelines
	timelines, err := generateTimelines(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("timeline generation failed: %w", err)
	}

	// Step 3: Create a session per timeline and attach an observer
	runs, err := createSessions(ctx, config, timelines, stats)
	if err != nil {
		return fmt.Errorf("session creation failed: %w", err)
	}

	// Step 4: Submit events concurrently
	if err := submitTimelines(ctx, config, runs, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	// Step 5: Let the dispatch queue drain
	logger.Get().Info(ctx, "waiting for dispatch to drain")
	time.Sleep(DispatchDrainDelay)

	// Step 6: Ask each session a coaching question
	if err := submitQueries(ctx, config, runs, stats); err != nil {
		return fmt.Errorf("query submission failed: %w", err)
	}

	// Step 7: Fetch status reports and verify them against submissions
	reports, err := fetchReports(ctx, config, runs)
	if err != nil {
		return fmt.Errorf("status retrieval failed: %w", err)
	}
	if err := verifyResults(ctx, config, runs, reports, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: End every session and check the final snapshots
	if err := endSessions(ctx, config, runs, stats); err != nil {
		return fmt.Errorf("session teardown failed: %w", err)
	}

	// Step 9: Save timelines to file
	if err := saveTimelinesToFile(ctx, config, timelines); err != nil {
		logger.Get().Warn(ctx, "failed to save timelines to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// createSessions opens one coaching session per timeline and subscribes a
// simulated coach so the dispatch path is exercised.
func createSessions(ctx context.Context, config *Config, timelines []*Timeline, stats *Stats) ([]*SessionRun, error) {
	log.Printf("🎫 Creating %d sessions...", len(timelines))

	client := newHTTPClient(config.Timeout)
	runs := make([]*SessionRun, 0, len(timelines))

	for i, tl := range timelines {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during session creation: %w", ctx.Err())
		default:
		}

		body := map[string]interface{}{
			"match_id":  tl.MatchID,
			"home_team": tl.HomeTeam,
			"away_team": tl.AwayTeam,
			"formation": tl.Formation,
		}
		resp, err := client.Post(ctx, config.BaseURL+"/sessions", body)
		if err != nil {
			return nil, fmt.Errorf("failed to create session %d: %w", i, err)
		}
		data, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read session response %d: %w", i, err)
		}
		if resp.StatusCode != StatusCreated {
			return nil, fmt.Errorf("session creation %d returned status %d: %s", i, resp.StatusCode, string(data))
		}

		var created struct {
			SessionID string `json:"session_id"`
		}
		if err := unmarshalJSON(data, &created); err != nil {
			return nil, fmt.Errorf("failed to parse session response %d: %w", i, err)
		}

		// Attach one observer per session; all insights, any urgency
		subURL := config.BaseURL + "/sessions/" + created.SessionID + "/subscribers/coach_" + created.SessionID[:8]
		subResp, err := client.Put(ctx, subURL, map[string]string{"min_urgency": "low"})
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe observer for session %d: %w", i, err)
		}
		if _, err := readResponseBody(subResp); err != nil {
			return nil, fmt.Errorf("failed to read subscribe response %d: %w", i, err)
		}
		if subResp.StatusCode != StatusNoContent {
			return nil, fmt.Errorf("observer subscription %d returned status %d", i, subResp.StatusCode)
		}

		runs = append(runs, &SessionRun{SessionID: created.SessionID, Timeline: tl})
	}

	stats.SessionsCreated = len(runs)
	log.Printf("✅ Created %d sessions with observers", len(runs))
	return runs, nil
}

// submitQueries sends one coaching question per session and counts the
// answers that come back.
func submitQueries(ctx context.Context, config *Config, runs []*SessionRun, stats *Stats) error {
	log.Printf("❓ Submitting one query per session...")

	client := newHTTPClient(config.Timeout)
	answered := 0

	for _, run := range runs {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during query submission: %w", ctx.Err())
		default:
		}

		url := config.BaseURL + "/sessions/" + run.SessionID + "/query"
		resp, err := client.Post(ctx, url, map[string]string{"query": "what should we adjust?"})
		if err != nil {
			log.Printf("⚠️  Query failed for session %s: %v", run.SessionID, err)
			continue
		}
		if _, err := readResponseBody(resp); err != nil {
			continue
		}
		if resp.StatusCode == StatusOK {
			answered++
		}
	}

	stats.QueriesAnswered = answered
	log.Printf("✅ Queries answered: %d/%d", answered, len(runs))
	return nil
}

// fetchReports retrieves the status report for every session.
func fetchReports(ctx context.Context, config *Config, runs []*SessionRun) (map[string]*StatusReport, error) {
	log.Printf("📥 Fetching %d status reports...", len(runs))

	client := newHTTPClient(config.Timeout)
	reports := make(map[string]*StatusReport, len(runs))

	for _, run := range runs {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during status retrieval: %w", ctx.Err())
		default:
		}

		resp, err := client.Get(ctx, config.BaseURL+"/sessions/"+run.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch status for %s: %w", run.SessionID, err)
		}
		data, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to read status for %s: %w", run.SessionID, err)
		}
		if resp.StatusCode != StatusOK {
			return nil, fmt.Errorf("status for %s returned %d", run.SessionID, resp.StatusCode)
		}

		var report StatusReport
		if err := unmarshalJSON(data, &report); err != nil {
			return nil, fmt.Errorf("failed to parse status for %s: %w", run.SessionID, err)
		}
		reports[run.SessionID] = &report
	}

	return reports, nil
}

// endSessions closes every session and sanity-checks the final snapshots.
func endSessions(ctx context.Context, config *Config, runs []*SessionRun, stats *Stats) error {
	log.Printf("🏁 Ending %d sessions...", len(runs))

	client := newHTTPClient(config.Timeout)
	ended := 0

	for _, run := range runs {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during teardown: %w", ctx.Err())
		default:
		}

		resp, err := client.Delete(ctx, config.BaseURL+"/sessions/"+run.SessionID)
		if err != nil {
			log.Printf("⚠️  Failed to end session %s: %v", run.SessionID, err)
			continue
		}
		data, err := readResponseBody(resp)
		if err != nil || resp.StatusCode != StatusOK {
			log.Printf("⚠️  Ending session %s returned status %d", run.SessionID, resp.StatusCode)
			continue
		}

		var snap Snapshot
		if err := unmarshalJSON(data, &snap); err == nil {
			if snap.EventCount != run.Accepted {
				log.Printf("⚠️  Snapshot event count mismatch for %s: snapshot=%d accepted=%d",
					run.SessionID, snap.EventCount, run.Accepted)
			}
		}
		ended++
	}

	stats.SessionsEnded = ended
	log.Printf("✅ Ended %d/%d sessions", ended, len(runs))
	return nil
}

// saveTimelinesToFile saves the generated timelines to a JSON file.
func saveTimelinesToFile(ctx context.Context, config *Config, timelines []*Timeline) error {
	if len(timelines) == 0 {
		return fmt.Errorf("no timelines to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "timelines_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write timelines to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, tl := range timelines {
		jsonData, err := marshalJSON(tl)
		if err != nil {
			return fmt.Errorf("failed to marshal timeline %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write timeline %d: %w", i, err)
		}

		// Add comma except for last timeline
		if i < len(timelines)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "timelines saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, eventsPerSecond float64

	if stats.EventsSubmitted > 0 {
		successRate = float64(stats.EventsAccepted+stats.EventsDuplicate) / float64(stats.EventsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("sessionsEnded", stats.SessionsEnded),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("insightsReturned", stats.InsightsReturned),
		logger.Int("queriesAnswered", stats.QueriesAnswered),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
