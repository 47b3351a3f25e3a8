package matchsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

// Put performs a PUT request with an optional JSON body.
func (c *HTTPClient) Put(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, url, body)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, url, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := marshalJSON(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// marshalJSON marshals a struct to JSON.
func marshalJSON(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return data, nil
}

// unmarshalJSON unmarshals JSON to a struct.
func unmarshalJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// submitTimelines plays each session's timeline against the service.
// Sessions run in parallel across the worker pool; events within one
// session go out sequentially in clock order. Every Nth event is replayed
// immediately to exercise idempotent acknowledgement.
func submitTimelines(ctx context.Context, config *Config, runs []*SessionRun, stats *Stats) error {
	total := 0
	for _, run := range runs {
		total += len(run.Timeline.Events)
	}
	log.Printf("📤 Submitting %d events across %d sessions with %d workers...", total, len(runs), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		submitted int64
		accepted  int64
		duplicate int64
		failed    int64
		insights  int64
	)

	runChan := make(chan *SessionRun, len(runs))
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for run := range runChan {
				playSession(ctx, client, config, run)
				atomic.AddInt64(&submitted, int64(run.Accepted+run.Duplicate+run.Failed))
				atomic.AddInt64(&accepted, int64(run.Accepted))
				atomic.AddInt64(&duplicate, int64(run.Duplicate))
				atomic.AddInt64(&failed, int64(run.Failed))
				atomic.AddInt64(&insights, int64(run.Insights))

				if config.Verbose {
					log.Printf("📊 Session %s: accepted=%d duplicate=%d failed=%d insights=%d",
						run.SessionID, run.Accepted, run.Duplicate, run.Failed, run.Insights)
				} else {
					fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, duplicate: %d, failed: %d)",
						atomic.LoadInt64(&submitted), total+total/duplicateResubmitEvery,
						atomic.LoadInt64(&accepted), atomic.LoadInt64(&duplicate), atomic.LoadInt64(&failed))
				}
			}
		}()
	}

	for _, run := range runs {
		select {
		case <-ctx.Done():
			close(runChan)
			wg.Wait()
			return fmt.Errorf("context cancelled during submission: %w", ctx.Err())
		case runChan <- run:
		}
	}
	close(runChan)
	wg.Wait()

	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	stats.EventsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsAccepted = int(atomic.LoadInt64(&accepted))
	stats.EventsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.EventsFailed = int(atomic.LoadInt64(&failed))
	stats.InsightsReturned = int(atomic.LoadInt64(&insights))

	log.Printf(`✅ Event submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
   Insights: %d
`, stats.EventsAccepted, stats.EventsDuplicate, stats.EventsFailed, stats.InsightsReturned)

	return nil
}

// playSession submits one session's events in order, replaying every Nth
// event to confirm the duplicate acknowledgement path.
func playSession(ctx context.Context, client *HTTPClient, config *Config, run *SessionRun) {
	url := config.BaseURL + "/sessions/" + run.SessionID + "/events"

	for i, event := range run.Timeline.Events {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, produced := submitSingleEvent(ctx, client, url, event)
		run.Insights += produced
		switch result {
		case "accepted":
			run.Accepted++
		case "duplicate":
			run.Duplicate++
		default:
			run.Failed++
		}

		if (i+1)%duplicateResubmitEvery == 0 {
			result, _ := submitSingleEvent(ctx, client, url, event)
			if result == "duplicate" {
				run.Duplicate++
			} else {
				run.Failed++
			}
		}
	}
}

// submitSingleEvent submits a single event, classifies the outcome, and
// returns how many insights the acknowledgement carried.
func submitSingleEvent(ctx context.Context, client *HTTPClient, url string, event Event) (string, int) {
	resp, err := client.Post(ctx, url, event)
	if err != nil {
		return "failed", 0
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed", 0
	}

	switch resp.StatusCode {
	case StatusAccepted:
		// Accepted - new event; count any insights it produced
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil {
			return "accepted", len(ack.Insights)
		}
		return "accepted", 0
	case StatusOK:
		// OK - duplicate acknowledgement
		return "duplicate", 0
	default:
		return "failed", 0
	}
}
