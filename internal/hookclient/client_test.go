package hookclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteReturnsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hooks/execute", r.URL.Path)
		var req executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pre_delegation", req.HookType)

		json.NewEncoder(w).Encode(executeResponse{
			Status: "success",
			Results: []HookResult{
				{Success: true, Modified: true, Data: map[string]interface{}{"task": "Use JWT instead"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	results := c.PreDelegation(context.Background(), "engineer", "Implement auth")
	require.Len(t, results, 1)
	assert.True(t, results[0].Modified)
	assert.Equal(t, "Use JWT instead", GetModifiedData(results)["task"])
}

func TestExecuteRetriesOn503ThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(executeResponse{Status: "success"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	c.Retry.InitialDelay = time.Millisecond
	c.Retry.MaxDelay = 5 * time.Millisecond

	results := c.Submit(context.Background(), "do the thing")
	assert.Empty(t, results)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestExecuteNeverRaisesOnConnectionFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Millisecond)
	c.Retry.MaxAttempts = 1

	results := c.Submit(context.Background(), "x")
	assert.Empty(t, results)
}

func TestHealthDegradesOnFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Millisecond)
	c.Retry.MaxAttempts = 1

	status := c.Health(context.Background())
	assert.Equal(t, "unavailable", status.Status)
	assert.NotEmpty(t, status.Error)
}

func TestGetExtractedTicketsFlattensAcrossResults(t *testing.T) {
	results := []HookResult{
		{Data: map[string]interface{}{"tickets": []interface{}{
			map[string]interface{}{"type": "bug", "title": "one"},
		}}},
		{Data: map[string]interface{}{"tickets": []interface{}{
			map[string]interface{}{"type": "task", "title": "two"},
		}}},
	}
	out := GetExtractedTickets(results)
	require.Len(t, out, 2)
	assert.Equal(t, "one", out[0]["title"])
	assert.Equal(t, "two", out[1]["title"])
}
