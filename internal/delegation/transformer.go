package delegation

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// minConfidence is the drop threshold from §4.5 step 4.
const minConfidence = 0.1

// PMTicket is the ticket shape the PM extracts from its own response,
// consumed by TransformPMTicket (§4.5's alternate path).
type PMTicket struct {
	ID          string
	Type        string
	Title       string
	Description string
}

// Transformer implements the TODO transformer (spec C5): mapping a single
// TodoItem or PMTicket into a Delegation via weighted keyword match over
// the AgentKeywordTable.
type Transformer struct{}

// NewTransformer returns a ready-to-use Transformer; it holds no state.
func NewTransformer() *Transformer { return &Transformer{} }

// Transform implements §4.5 steps 1-5. It returns nil when the todo is
// already completed, carries no task text, or scores below minConfidence
// against every agent — it never falls back to a default agent (decision:
// the keyword suggester's engineer-default is reserved for
// SuggestAgentForTask/transform_pm_ticket, not this path).
func (tr *Transformer) Transform(todo TodoItem) *Delegation {
	if todo.Done || todo.Status == "completed" {
		return nil
	}

	task := todo.taskContent()
	if task == "" {
		return nil
	}

	agent, confidence, ok := bestAgent(task)
	if !ok || confidence < minConfidence {
		return nil
	}

	return &Delegation{
		Agent:      agent,
		Task:       task,
		Source:     SourceTodoHijacker,
		Confidence: confidence,
		Priority:   todo.Priority,
		Labels:     todo.labels(),
		TodoID:     todoID(todo),
		Timestamp:  time.Now(),
	}
}

// todoID derives a stable fallback ID as hash(content)_timestamp, matching
// _get_todo_id in the original hijacker: the timestamp is mixed in
// separately from the content hash so that two distinct todos sharing the
// same task text (different created_at) never collide on the same ID.
func todoID(todo TodoItem) string {
	if todo.ID != "" {
		return todo.ID
	}
	content := todo.Content
	if content == "" {
		content = todo.Task
	}
	ts := todo.Timestamp
	if ts == "" {
		ts = todo.CreatedAt
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return fmt.Sprintf("%d_%s", h.Sum64(), ts)
}

// TransformPMTicket implements §4.5's alternate path: an explicit
// ticket.Type is checked against the type-mapping table first (confidence
// 0.8 on a hit); otherwise it falls back to the same keyword scoring as
// Transform, defaulting to AgentEngineer if nothing matches.
func (tr *Transformer) TransformPMTicket(ticket PMTicket) Delegation {
	task := ticket.Title
	if ticket.Description != "" {
		task += "\n" + ticket.Description
	}

	typeLower := strings.ToLower(ticket.Type)

	var agent Agent
	var confidence float64
	matched := false
	for _, m := range ticketTypeMapping {
		if strings.Contains(typeLower, m.substr) {
			agent = m.agent
			confidence = 0.8
			matched = true
			break
		}
	}
	if !matched {
		agent = SuggestAgentForTask(task)
		_, confidence, _ = bestAgent(task)
	}

	return Delegation{
		Agent:      agent,
		Task:       task,
		Source:     SourcePMTicket,
		Confidence: confidence,
		TicketType: ticket.Type,
		TodoID:     ticket.ID,
		Timestamp:  time.Now(),
	}
}
