// Package hookclient is a synchronous HTTP client to the external hook
// service (spec component C7). Every method degrades to an empty/zero
// result on any failure — hook calls must never propagate an error into
// the orchestrator's main path.
package hookclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"mpm/pkg/logger"
)

// RetryPolicy controls retries on HTTP 429/5xx, mirroring the teacher's
// cron.RetryPolicy shape (internal/cron/retry.go) adapted to HTTP status
// codes instead of job errors.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy is 3 attempts, exponential backoff from a 1s base,
// per spec §4.7.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

func (p *RetryPolicy) nextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return p.InitialDelay
	}
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

func shouldRetryStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Client talks to the external hook service. It is safe for concurrent use.
type Client struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      RetryPolicy
	HTTPClient *http.Client
}

// New returns a ready Client against baseURL, with the given per-request
// timeout and the default retry policy.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		Timeout:    timeout,
		Retry:      DefaultRetryPolicy(),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Health calls GET /health. On any failure it logs a warning and returns a
// HealthStatus with Status "unavailable" and Error set to the failure text.
func (c *Client) Health(ctx context.Context) HealthStatus {
	var out HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		logger.Warnf("hook client: health check failed: %v", err)
		return HealthStatus{Status: "unavailable", Error: err.Error()}
	}
	return out
}

// ListHooks calls GET /hooks/list. On failure it returns an empty map.
func (c *Client) ListHooks(ctx context.Context) map[string][]HookInfo {
	var out listResponse
	if err := c.doJSON(ctx, http.MethodGet, "/hooks/list", nil, &out); err != nil {
		logger.Warnf("hook client: list hooks failed: %v", err)
		return map[string][]HookInfo{}
	}
	return out.Hooks
}

// Execute calls POST /hooks/execute for the given stage. It never returns
// an error: connection failures, non-2xx responses exhausted over the
// retry policy, and malformed bodies all degrade to an empty results slice,
// per §4.7's "hook calls never raise" contract.
func (c *Client) Execute(ctx context.Context, stage Stage, payload map[string]interface{}, metadata map[string]interface{}) []HookResult {
	req := executeRequest{HookType: string(stage), Context: payload, Metadata: metadata}
	log := logger.ForHook(string(stage))

	var resp executeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/hooks/execute", req, &resp); err != nil {
		log.Warn().Err(err).Msg("hook client: execute failed")
		return nil
	}
	if resp.Status == "error" {
		log.Warn().Str("error", resp.Error).Msg("hook client: execute returned error status")
		return nil
	}
	return resp.Results
}

// Submit fires the "submit" stage with the user's raw input.
func (c *Client) Submit(ctx context.Context, input string) []HookResult {
	return c.Execute(ctx, StageSubmit, map[string]interface{}{"input": input}, nil)
}

// PreDelegation fires the "pre_delegation" stage for one agent/task pair.
func (c *Client) PreDelegation(ctx context.Context, agent, task string) []HookResult {
	return c.Execute(ctx, StagePreDelegation, map[string]interface{}{
		"agent": agent,
		"task":  task,
	}, nil)
}

// PostDelegation fires the "post_delegation" stage with an agent's result.
func (c *Client) PostDelegation(ctx context.Context, agent, task, response string, executionTime time.Duration, tokens int) []HookResult {
	return c.Execute(ctx, StagePostDelegation, map[string]interface{}{
		"agent":          agent,
		"task":           task,
		"response":       response,
		"execution_time": executionTime.Seconds(),
		"tokens":         tokens,
	}, nil)
}

// TicketExtraction fires the "ticket_extraction" stage for one line of text.
func (c *Client) TicketExtraction(ctx context.Context, line string) []HookResult {
	return c.Execute(ctx, StageTicketExtraction, map[string]interface{}{"line": line}, nil)
}

// GetModifiedData merges every result's Data field into one map, later
// results winning on key collision, per §4.7.
func GetModifiedData(results []HookResult) map[string]interface{} {
	out := map[string]interface{}{}
	for _, r := range results {
		for k, v := range r.Data {
			out[k] = v
		}
	}
	return out
}

// GetExtractedTickets flattens every result's data.tickets list into a
// single slice of raw ticket maps (callers decode into ticket.Ticket).
func GetExtractedTickets(results []HookResult) []map[string]interface{} {
	var out []map[string]interface{}
	for _, r := range results {
		raw, ok := r.Data["tickets"]
		if !ok {
			continue
		}
		list, ok := raw.([]interface{})
		if !ok {
			continue
		}
		for _, item := range list {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// doJSON performs one HTTP request with JSON request/response bodies,
// retrying per c.Retry on 429/5xx. A connection-level error also retries;
// both exhaust to a plain error the caller logs and discards.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.Retry.nextDelay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if shouldRetryStatus(resp.StatusCode) {
			resp.Body.Close()
			lastErr = fmt.Errorf("hook service returned status %d", resp.StatusCode)
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("hook service returned status %d", resp.StatusCode)
		}
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	return lastErr
}
