package orchestrator

import "time"

// AgentResult is one delegated task's outcome, produced by the Subprocess
// strategy's fan-out and consumed by FormatResults.
type AgentResult struct {
	Agent         string
	Task          string
	Response      string
	ExecutionTime time.Duration
	Tokens        int
	Status        string
	Error         string
}

// tokenEstimate approximates token count from character length, matching
// subprocess_orchestrator.py's (len(prompt) + len(response)) // 4 heuristic
// used only for the human-readable summary line (never for billing or
// truncation).
func tokenEstimate(prompt, response string) int {
	return (len(prompt) + len(response)) / 4
}
