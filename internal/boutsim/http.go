package boutsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/elo/pkg/logger"
)

// HTTPClient wraps http.Client for JSON calls against the service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request against path.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body against path.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON decodes a 200 response from path into v.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// post sends body to path, drains the response and returns its status.
func (c *HTTPClient) post(ctx context.Context, path string, body any) (int, error) {
	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// fanOut calls fn for every index in [0,n) on workers goroutines.
func fanOut(ctx context.Context, workers, n int, fn func(i int)) {
	indices := make(chan int, workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range n {
			select {
			case <-ctx.Done():
				return
			case indices <- i:
			}
		}
	}()
	wg.Wait()
}

// registerCompetitors creates every competitor. An existing competitor is
// counted but not treated as a failure.
func registerCompetitors(ctx context.Context, cfg *Config, client *HTTPClient, comps []Competitor, stats *Stats) error {
	log := logger.Get()
	var created, existed, failed atomic.Int64

	fanOut(ctx, cfg.Workers, len(comps), func(i int) {
		status, err := client.post(ctx, "/competitors", map[string]string{"id": comps[i].ID})
		switch {
		case err == nil && status == StatusCreated:
			created.Add(1)
		case err == nil && status == StatusConflict:
			existed.Add(1)
		default:
			failed.Add(1)
			if cfg.Verbose {
				log.Warn(ctx, "register failed", logger.String("id", comps[i].ID), logger.Int("status", status), logger.Error(err))
			}
		}
	})

	stats.CompetitorsCreated = int(created.Load())
	stats.CompetitorsExisted = int(existed.Load())
	stats.CompetitorsFailed = int(failed.Load())
	log.Info(ctx, "competitors registered",
		logger.Int("created", stats.CompetitorsCreated),
		logger.Int("existed", stats.CompetitorsExisted),
		logger.Int("failed", stats.CompetitorsFailed))

	if err := ctx.Err(); err != nil {
		return err
	}
	if stats.CompetitorsFailed > 0 {
		return fmt.Errorf("%d competitors could not be registered", stats.CompetitorsFailed)
	}
	return nil
}

// submitBouts posts every bout concurrently.
func submitBouts(ctx context.Context, cfg *Config, client *HTTPClient, bouts []Bout, stats *Stats) error {
	log := logger.Get()
	path := "/bouts"
	if cfg.Sync {
		path += "?sync=true"
	}

	var submitted, successful, duplicate, failed atomic.Int64
	fanOut(ctx, cfg.Workers, len(bouts), func(i int) {
		submitted.Add(1)
		switch result := submitSingleBout(ctx, client, path, bouts[i]); result {
		case "success":
			successful.Add(1)
		case "duplicate":
			duplicate.Add(1)
		default:
			failed.Add(1)
			if cfg.Verbose {
				log.Warn(ctx, "bout failed", logger.String("bout_id", bouts[i].BoutID), logger.String("result", result))
			}
		}
	})

	stats.BoutsSubmitted = int(submitted.Load())
	stats.BoutsSuccessful = int(successful.Load())
	stats.BoutsDuplicate = int(duplicate.Load())
	stats.BoutsFailed = int(failed.Load())
	log.Info(ctx, "bout submission completed",
		logger.Int("successful", stats.BoutsSuccessful),
		logger.Int("duplicate", stats.BoutsDuplicate),
		logger.Int("failed", stats.BoutsFailed))
	return ctx.Err()
}

// submitSingleBout posts one bout and classifies the response.
func submitSingleBout(ctx context.Context, client *HTTPClient, path string, b Bout) string {
	resp, err := client.Post(ctx, path, b)
	if err != nil {
		return "failed"
	}
	defer func() { _ = resp.Body.Close() }()

	var ack AckResponse
	_ = json.NewDecoder(resp.Body).Decode(&ack)

	switch resp.StatusCode {
	case StatusAccepted:
		return "success"
	case StatusOK:
		if ack.Duplicate {
			return "duplicate"
		}
		return "success"
	default:
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
}

// waitForDrain polls /stats until the bout queue is empty.
func waitForDrain(ctx context.Context, cfg *Config, client *HTTPClient) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.DrainTimeout)
	defer cancel()

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		var stats struct {
			QueueLength int `json:"queueLength"`
		}
		if err := client.getJSON(ctx, "/stats", &stats); err != nil {
			return err
		}
		if stats.QueueLength == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("queue still holds %d bouts: %w", stats.QueueLength, ctx.Err())
		case <-ticker.C:
		}
	}
}

// getLeaderboard fetches the top entries.
func getLeaderboard(ctx context.Context, client *HTTPClient, limit int, stats *Stats) ([]Entry, error) {
	var entries []Entry
	if err := client.getJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", limit), &entries); err != nil {
		return nil, err
	}
	stats.LeaderboardEntries = len(entries)
	return entries, nil
}

// checkServiceHealth verifies the service is reachable.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := client.getJSON(ctx, "/healthz", &health); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("service reports status %q", health.Status)
	}
	return nil
}
