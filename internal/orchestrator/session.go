// Package orchestrator implements the delegation orchestrator's base
// session (C9), its three concrete strategies (C10), and the strategy
// factory (C11): the top of the control-flow diagram in spec §2.
package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mpm/internal/delegation"
	"mpm/internal/ticket"
)

// Interaction is one entry of SessionState.Interactions (spec §3).
type Interaction struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState is the per-orchestrator mutable record created at session
// start and finalized at cleanup, per spec §3.
type SessionState struct {
	mu sync.Mutex

	SessionStart time.Time
	SessionEnd   time.Time
	Interactions []Interaction

	ticketCreationEnabled bool

	extractor *ticket.Extractor

	PendingTodoDelegations []delegation.Delegation

	delegations []delegation.Delegation
}

// NewSessionState returns a fresh SessionState with ticket creation enabled.
func NewSessionState() *SessionState {
	return &SessionState{
		SessionStart:          time.Now(),
		ticketCreationEnabled: true,
		extractor:             ticket.New(),
	}
}

// LogInteraction appends a totally-ordered interaction record; the session
// is single-threaded apart from this mutex, which only guards the slice
// append itself (spec §5).
func (s *SessionState) LogInteraction(kind, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Interactions = append(s.Interactions, Interaction{Type: kind, Content: content, Timestamp: time.Now()})
}

// Extractor returns the session's ticket extractor.
func (s *SessionState) Extractor() *ticket.Extractor {
	return s.extractor
}

// Tickets returns every ticket collected so far.
func (s *SessionState) Tickets() []ticket.Ticket {
	return s.extractor.All()
}

// RecordDelegations appends delegations that were actually executed this
// session, for the driver's summary (spec §4.12).
func (s *SessionState) RecordDelegations(delegations []delegation.Delegation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegations = append(s.delegations, delegations...)
}

// Delegations returns every delegation recorded so far.
func (s *SessionState) Delegations() []delegation.Delegation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delegation.Delegation(nil), s.delegations...)
}

// DelegationCounts tallies delegations by agent, for the driver's summary
// (spec §4.12).
func DelegationCounts(delegations []delegation.Delegation) map[delegation.Agent]int {
	counts := map[delegation.Agent]int{}
	for _, d := range delegations {
		counts[d.Agent]++
	}
	return counts
}

// TicketCounts tallies tickets by type, for the driver's summary.
func TicketCounts(tickets []ticket.Ticket) map[ticket.Type]int {
	counts := map[ticket.Type]int{}
	for _, t := range tickets {
		counts[t.Type]++
	}
	return counts
}

// sessionLogDoc is the JSON shape written at cleanup, per spec §6.
type sessionLogDoc struct {
	Orchestrator      string        `json:"orchestrator"`
	SessionStart      time.Time     `json:"session_start"`
	SessionEnd        time.Time     `json:"session_end"`
	Interactions      []Interaction `json:"interactions"`
	TicketsExtracted  []ticket.Ticket `json:"tickets_extracted"`
}

// WriteSessionLog persists the session as
// ~/.claude-mpm/sessions/session_<yyyymmdd_hhmmss>.json using an
// exclusive-creation write, per spec §6/§9 (the timestamped name itself
// prevents collisions between concurrent sessions).
func (s *SessionState) WriteSessionLog(sessionsDir, orchestratorName string) (string, error) {
	s.mu.Lock()
	doc := sessionLogDoc{
		Orchestrator:     orchestratorName,
		SessionStart:     s.SessionStart,
		SessionEnd:       time.Now(),
		Interactions:     append([]Interaction(nil), s.Interactions...),
		TicketsExtracted: s.extractor.All(),
	}
	s.mu.Unlock()

	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return "", fmt.Errorf("create sessions dir: %w", err)
	}

	name := fmt.Sprintf("session_%s.json", doc.SessionEnd.Format("20060102_150405"))
	path := filepath.Join(sessionsDir, name)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create session log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write session log: %w", err)
	}
	return path, nil
}
