// Package eventpool ships lifecycle events to an external Socket.IO-style
// observer (spec component C8): a bounded pool of persistent client
// connections, a circuit breaker, and a 50ms micro-batch window. Grounded
// on original_source/core/socketio_pool.py for every constant and state
// transition, and on the teacher's internal/gateway/websocket package for
// the Go-idiomatic client wiring (gorilla/websocket dialer, envelope shape).
package eventpool

import "time"

// BatchEvent is one event enqueued via Emit, awaiting its batch flush.
type BatchEvent struct {
	Namespace string
	Event     string
	Data      map[string]interface{}
	Timestamp time.Time
}

// ConnStats tracks per-connection health, mirroring ConnectionStats in
// socketio_pool.py.
type ConnStats struct {
	CreatedAt         time.Time
	LastUsed          time.Time
	EventsSent        int
	Errors            int
	ConsecutiveErrors int
	IsConnected       bool
}

// Config configures a Pool.
type Config struct {
	// MaxConnections bounds concurrent pooled clients (default 5).
	MaxConnections int
	// BatchWindow is the micro-batch cadence (default 50ms).
	BatchWindow time.Duration
	// MaxBatchSize bounds events drained per flush (default 10).
	MaxBatchSize int
	// QueueCapacity bounds the enqueue-side batch_queue; oldest events are
	// dropped on overflow. Spec §9 open question: resolved per DESIGN.md
	// decision 1 (gate at both enqueue and flush time, so this rarely fills).
	QueueCapacity int
	// ServerURL, if set, skips port discovery entirely.
	ServerURL string
	// Port, if set, is tried before the well-known port list.
	Port int
	// AuthToken is sent as the client's auth.token field.
	AuthToken string
}

// DefaultConfig returns the spec's defaults: 5 connections, 50ms batch
// window, 10 events/batch, a 10,000-event queue cap, dev-token auth.
func DefaultConfig() Config {
	return Config{
		MaxConnections: 5,
		BatchWindow:    50 * time.Millisecond,
		MaxBatchSize:   10,
		QueueCapacity:  10000,
		AuthToken:      "dev-token",
	}
}

// Stats is a point-in-time snapshot returned by Pool.Stats.
type Stats struct {
	MaxConnections        int
	AvailableConnections  int
	ActiveConnections     int
	TotalEventsSent       int
	TotalErrors           int
	CircuitState          CircuitState
	CircuitFailures       int
	BatchQueueSize        int
	ServerURL             string
}
