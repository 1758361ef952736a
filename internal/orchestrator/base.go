package orchestrator

import (
	"context"
	"strings"
	"time"

	"mpm/internal/cliexec"
	"mpm/internal/config"
	"mpm/internal/delegation"
	"mpm/internal/eventpool"
	"mpm/internal/framework"
	"mpm/internal/hijacker"
	"mpm/internal/hookclient"
	"mpm/internal/skills"
	"mpm/internal/ticket"
	"mpm/internal/ticketstore"
	"mpm/pkg/logger"
)

// Base is the shared state and behavior every orchestrator strategy
// embeds: the running session, the framework/ticket/delegation
// collaborators, and the optional hook client, event pool, and hijacker
// (spec component C9). Strategies add their own run_* method on top.
type Base struct {
	Config config.Config

	Launcher  *cliexec.Launcher
	Framework *framework.Loader
	Detector  *delegation.Detector

	Hooks    *hookclient.Client // nil when hooks are unreachable/disabled
	Pool     *eventpool.Pool    // nil when the event pool is disabled
	Hijacker *hijacker.Hijacker // nil when the hijacker is disabled
	Store    ticketstore.Store  // nil when no ticket store is configured
	Skills   *skills.Registry   // nil when the skills registry is disabled

	Session *SessionState

	SessionsDir string

	// StrategyName identifies the concrete orchestrator for the session
	// log and summary output (e.g. "direct", "system_prompt", "subprocess").
	StrategyName string
}

// NewBase assembles a Base from its collaborators. Any of hooks, pool,
// hj, or store may be nil; callers decide what to wire per config.
func NewBase(cfg config.Config, launcher *cliexec.Launcher, fw *framework.Loader, hooks *hookclient.Client, pool *eventpool.Pool, hj *hijacker.Hijacker, store ticketstore.Store, sessionsDir, strategyName string) *Base {
	return &Base{
		Config:       cfg,
		Launcher:     launcher,
		Framework:    fw,
		Detector:     delegation.NewDetector(),
		Hooks:        hooks,
		Pool:         pool,
		Hijacker:     hj,
		Store:        store,
		Session:      NewSessionState(),
		SessionsDir:  sessionsDir,
		StrategyName: strategyName,
	}
}

// SessionState returns the orchestrator's running session record.
func (b *Base) SessionState() *SessionState {
	return b.Session
}

// EnhanceAgentPrompt appends the agent's applicable skills onto basePrompt
// via the skills registry (C13's prompt-enhance operation), a no-op when no
// registry is configured.
func (b *Base) EnhanceAgentPrompt(agentType, basePrompt string) string {
	if b.Skills == nil {
		return basePrompt
	}
	return b.Skills.EnhanceAgentPrompt(agentType, basePrompt, false)
}

// GetFrameworkInstructions returns the injected framework text, previewing
// it through the pre_delegation hook stage first so an external hook can
// modify the instructions before they reach the CLI, per §4.9's
// get_framework_instructions.
func (b *Base) GetFrameworkInstructions(ctx context.Context) string {
	content := b.Framework.Load()
	instructions := b.Framework.FrameworkInstructions()

	if b.Hooks == nil {
		return instructions
	}

	results := b.Hooks.PreDelegation(ctx, "system", content.Version)
	modified := hookclient.GetModifiedData(results)
	if v, ok := modified["framework_instructions"].(string); ok && v != "" {
		return v
	}
	return instructions
}

// emitEvent forwards to the event pool when one is configured, a no-op
// otherwise (spec §4.9: event emission is always best-effort).
func (b *Base) emitEvent(namespace, event string, data map[string]interface{}) {
	if b.Pool == nil {
		return
	}
	b.Pool.Emit(namespace, event, data)
}

// ProcessOutputLine runs a block of CLI output (one line or a full
// multi-line response) through the ticket extractor line-by-line and, when
// hooks are configured, through the ticket_extraction hook stage too,
// merging any hook-supplied tickets. Matches base_orchestrator.py's
// per-line ticket extraction done as output streams in, per §4.3/§4.9.
func (b *Base) ProcessOutputLine(ctx context.Context, line string) []ticket.Ticket {
	found := b.Session.Extractor().ExtractText(line)

	if b.Hooks != nil {
		results := b.Hooks.TicketExtraction(ctx, line)
		for _, extra := range hookclient.GetExtractedTickets(results) {
			t := ticketFromHookData(extra)
			if t.Title == "" {
				continue
			}
			if b.Session.Extractor().AddTicket(t) {
				found = append(found, t)
			}
		}
	}

	for _, t := range found {
		b.emitEvent("ticket", "ticket_extracted", map[string]interface{}{
			"type":  string(t.Type),
			"title": t.Title,
		})
	}
	return found
}

func ticketFromHookData(data map[string]interface{}) ticket.Ticket {
	var t ticket.Ticket
	if v, ok := data["title"].(string); ok {
		t.Title = v
	}
	if v, ok := data["type"].(string); ok {
		t.Type = ticket.Type(v)
	} else {
		t.Type = ticket.TypeTask
	}
	if v, ok := data["description"].(string); ok {
		t.Description = v
	}
	if v, ok := data["label"].(string); ok {
		t.Label = v
	}
	return t
}

// CreateTickets persists every ticket extracted so far to the configured
// store, logging rather than failing the session on a per-ticket error
// (spec §7: ticket store failures never abort the run).
func (b *Base) CreateTickets(ctx context.Context) int {
	if b.Store == nil {
		return 0
	}

	created := 0
	for _, t := range b.Session.Tickets() {
		id, err := b.Store.CreateTicket(ctx, t.Title, string(t.Type), t.Description, "mpm")
		if err != nil {
			logger.Warnf("failed to create ticket %q: %v", t.Title, err)
			continue
		}
		logger.Debugf("created ticket %s: %s", id, t.Title)
		created++
	}
	return created
}

// DrainHijackerDelegations pulls every pending hijacker delegation not yet
// completed, marking each complete as it is consumed, matching
// subprocess_orchestrator.py's post-run "drain pending TODO delegations"
// step in run_non_interactive (spec §4.10 step 9).
func (b *Base) DrainHijackerDelegations() []delegation.Delegation {
	if b.Hijacker == nil {
		return nil
	}
	pending := b.Hijacker.GetPendingDelegations()
	for _, d := range pending {
		b.Hijacker.MarkDelegationCompleted(d)
	}
	return pending
}

// Cleanup finalizes the session per spec §4.9: stop the hijacker, create a
// ticket for every extracted ticket, fire the submit hook with aggregate
// stats, persist the session JSON log, and return its path. A failure in
// the first three steps is logged and the remaining steps still run; a
// failure to write the session log is returned as the error.
func (b *Base) Cleanup() (string, error) {
	ctx := context.Background()

	if b.Hijacker != nil {
		if err := b.Hijacker.StopMonitoring(); err != nil {
			logger.Warnf("hijacker stop failed: %v", err)
		}
	}

	ticketsCreated := b.CreateTickets(ctx)

	if b.Hooks != nil {
		duration := time.Since(b.Session.SessionStart).Seconds()
		b.Hooks.Execute(ctx, hookclient.StageSubmit, map[string]interface{}{
			"session_type":    b.StrategyName,
			"duration_s":      duration,
			"tickets_created": ticketsCreated,
		}, nil)
	}

	return b.Session.WriteSessionLog(b.SessionsDir, b.StrategyName)
}

// stripANSI removes terminal control sequences from captured CLI output
// before it's scanned for tickets/delegations, matching
// base_orchestrator.py's output sanitization step.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		if r == 0x1b {
			inEscape = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
