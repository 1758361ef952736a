package delegation

import "time"

// Source identifies which component produced a Delegation.
type Source string

const (
	SourceDetectorMarkdown Source = "detector-markdown"
	SourceDetectorTaskTool Source = "detector-tasktool"
	SourceTodoHijacker     Source = "todo-hijacker"
	SourcePMTicket         Source = "pm-ticket"
)

// Priority is the closed set of todo priorities carried through verbatim.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Delegation is one unit of work routed to an agent, per spec §3.
type Delegation struct {
	Agent       Agent
	Task        string
	Source      Source
	Confidence  float64
	Priority    Priority
	Labels      []string
	TodoID      string
	TicketType  string
	Format      string
	Timestamp   time.Time
}
