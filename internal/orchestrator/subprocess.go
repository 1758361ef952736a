package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"mpm/internal/cliexec"
	"mpm/internal/delegation"
	"mpm/internal/framework"
	"mpm/internal/hookclient"
	"mpm/pkg/logger"
)

// SubprocessOrchestrator is the spec's centerpiece strategy (C10): a PM
// one-shot invocation followed by a bounded fan-out of one CLI subprocess
// per detected delegation, grounded on
// original_source/orchestration/subprocess_orchestrator.py.
type SubprocessOrchestrator struct {
	*Base

	// Interactive enables the limited between-turns fan-out variant
	// instead of the single-shot non-interactive flow.
	Interactive bool
}

// NewSubprocessOrchestrator wraps base with the subprocess strategy.
func NewSubprocessOrchestrator(base *Base, interactive bool) *SubprocessOrchestrator {
	base.StrategyName = "subprocess"
	return &SubprocessOrchestrator{Base: base, Interactive: interactive}
}

// agentPromptTemplate mirrors create_agent_prompt in
// subprocess_orchestrator.py exactly.
const agentPromptTemplate = `You are the %s Agent in the Claude PM Framework.

%s

## Current Task
%s

## Response Format
Provide a clear, structured response that:
1. Confirms your role as %s Agent
2. Completes the requested task
3. Reports any issues or blockers
4. Summarizes deliverables

Remember: You are an autonomous agent. Complete the task independently and report results.`

// minimalDelegationFramework is the Subprocess strategy's priming text:
// smaller than Direct's, ending with the delegation-format instruction
// per spec §4.10 step 2.
const minimalDelegationFramework = `
# Claude PM Framework — Delegation Mode

You are the PM (Project Manager) orchestrating a team of specialized agents.
Do not implement tasks yourself. For each piece of work, delegate using
exactly this format:

**<Agent Name>**: <task description>

Available agents: Engineer, QA, Documentation, Research, Security, Ops,
Version Control, Data Engineer.
`

// RunNonInteractive drives one full Subprocess-strategy turn: submit hook,
// PM one-shot, delegation detection (CLI output + hijacker drain),
// parallel fan-out, result formatting, ticket extraction. It does not run
// Cleanup; that is a separate call. Returns the combined human-readable
// transcript.
func (s *SubprocessOrchestrator) RunNonInteractive(ctx context.Context, input string) (string, error) {
	if s.Hooks != nil {
		s.Hooks.Submit(ctx, input)
	}
	s.Session.LogInteraction("user_input", input)

	if s.Hijacker != nil {
		if err := s.Hijacker.StartMonitoring(); err != nil {
			logger.Warnf("hijacker failed to start: %v", err)
		}
	}

	prompt := minimalDelegationFramework + "\n\n## User Request\n" + input

	pmTimeout := s.Config.CLI.GetPMTimeout()
	result, err := s.Launcher.LaunchOneshot(prompt, cliexec.Options{}, true, pmTimeout)
	if err != nil {
		return "", fmt.Errorf("pm invocation: %w", err)
	}

	pmOutput := stripANSI(result.Stdout)
	s.Session.LogInteraction("pm_response", pmOutput)
	s.emitEvent("session", "pm_response", map[string]interface{}{"exit_code": result.ExitCode})

	delegations := s.Detector.Detect(pmOutput)

	if s.Hijacker != nil {
		time.Sleep(500 * time.Millisecond)
		delegations = append(delegations, s.DrainHijackerDelegations()...)
	}

	s.Session.RecordDelegations(delegations)

	var transcript strings.Builder
	transcript.WriteString(pmOutput)
	transcript.WriteString("\n")

	// Ticket extraction runs PM-first, then agent results (§5's ordering
	// guarantee), mirroring the original's pm_response-then-joined-
	// agent-responses concatenation order.
	s.ProcessOutputLine(ctx, pmOutput)

	if len(delegations) > 0 {
		results := s.runParallelTasks(ctx, delegations)
		transcript.WriteString("\n")
		transcript.WriteString(FormatResults(results))

		for _, r := range results {
			s.ProcessOutputLine(ctx, r.Response)
		}
	}

	return transcript.String(), nil
}

// runParallelTasks fans delegations out over a bounded worker pool (size
// Config.Fanout.Workers, default 3) and collects AgentResults in
// delegation order, matching run_parallel_tasks's as-completed semantics
// but preserving input order for deterministic output.
func (s *SubprocessOrchestrator) runParallelTasks(ctx context.Context, delegations []delegation.Delegation) []AgentResult {
	workers := s.Config.Fanout.Workers
	if workers <= 0 {
		workers = 3
	}

	results := make([]AgentResult, len(delegations))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, d := range delegations {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, d delegation.Delegation) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.runAgentSubprocess(ctx, d)
		}(i, d)
	}
	wg.Wait()
	return results
}

// runAgentSubprocess runs one delegation through pre_delegation hook,
// prompt construction, CLI invocation, and post_delegation hook, per
// spec §4.10's fan-out executor steps a-f.
func (s *SubprocessOrchestrator) runAgentSubprocess(ctx context.Context, d delegation.Delegation) AgentResult {
	start := time.Now()
	agent := string(d.Agent)
	task := d.Task
	log := logger.ForAgent(agent)

	if s.Hooks != nil {
		pre := s.Hooks.PreDelegation(ctx, agent, task)
		modified := hookclient.GetModifiedData(pre)
		if rewritten, ok := modified["task"].(string); ok && rewritten != "" {
			task = rewritten
		}
	}

	agentDef := agentDefinitionFor(s.Framework, d.Agent)
	prompt := fmt.Sprintf(agentPromptTemplate, titleCase(agent), agentDef, task, titleCase(agent))
	prompt = s.EnhanceAgentPrompt(agent, prompt)

	agentTimeout := s.Config.CLI.GetAgentTimeout()
	result, err := s.Launcher.LaunchOneshot(prompt, cliexec.Options{}, true, agentTimeout)

	elapsed := time.Since(start)
	status := "completed"
	response := ""
	if err != nil {
		status = "failed"
		response = err.Error()
		log.Warn().Err(err).Msg("agent subprocess failed")
	} else {
		response = stripANSI(result.Stdout)
		if result.ExitCode != 0 {
			status = "failed"
			log.Warn().Int("exit_code", result.ExitCode).Msg("agent subprocess exited non-zero")
		}
	}

	tokens := tokenEstimate(prompt, response)
	log.Debug().Dur("elapsed", elapsed).Int("tokens", tokens).Msg("agent subprocess finished")

	if s.Hooks != nil {
		post := s.Hooks.PostDelegation(ctx, agent, task, response, elapsed, tokens)
		for _, extra := range hookclient.GetExtractedTickets(post) {
			t := ticketFromHookData(extra)
			if t.Title != "" {
				s.Session.Extractor().AddTicket(t)
			}
		}
	}

	s.emitEvent("agent", "agent_completed", map[string]interface{}{
		"agent":  agent,
		"status": status,
	})

	return AgentResult{
		Agent:         agent,
		Task:          task,
		Response:      response,
		ExecutionTime: elapsed,
		Tokens:        tokens,
		Status:        status,
	}
}

func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// agentDefinitionFor resolves an Agent enum value to its loaded markdown
// body, trying the canonical name then common filename variants.
func agentDefinitionFor(fw *framework.Loader, agent delegation.Agent) string {
	candidates := []string{
		string(agent),
		strings.ReplaceAll(string(agent), "-", "_"),
		strings.ReplaceAll(string(agent), "-", "_") + "_agent",
		string(agent) + "_agent",
	}
	for _, name := range candidates {
		if body, ok := fw.AgentDefinition(name); ok {
			return body
		}
	}
	return ""
}

// taskPrefix trims a task to a short label for the Task(...) summary line,
// matching format_results's truncation to the first ~50 characters.
func taskPrefix(task string) string {
	task = strings.TrimSpace(task)
	if len(task) <= 50 {
		return task
	}
	return task[:50] + "..."
}

// turnWriter forwards every write to the real terminal while also
// buffering it, splitting completed turns on a blank line so the
// interactive variant can run the detector between turns without a real
// PTY (spec §4.10's "PTY-style helper").
type turnWriter struct {
	dst    io.Writer
	buf    strings.Builder
	onTurn func(turn string)
}

func (w *turnWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if err != nil {
		return n, err
	}
	w.buf.Write(p)
	for {
		s := w.buf.String()
		idx := strings.Index(s, "\n\n")
		if idx < 0 {
			break
		}
		turn := s[:idx]
		w.buf.Reset()
		w.buf.WriteString(s[idx+2:])
		w.onTurn(turn)
	}
	return n, nil
}

// RunInteractive runs the CLI interactively with the framework injected
// via --append-system-prompt; delegations detected between turns are
// executed as fan-outs and their summary is printed before control
// returns to the user, per spec §4.10's limited interactive variant.
func (s *SubprocessOrchestrator) RunInteractive(ctx context.Context) error {
	warnIfNotATerminal("subprocess")
	framework := s.GetFrameworkInstructions(ctx)

	tw := &turnWriter{dst: os.Stdout}
	tw.onTurn = func(turn string) {
		s.Session.LogInteraction("turn", turn)
		delegations := s.Detector.Detect(turn)
		if len(delegations) == 0 {
			return
		}
		s.Session.RecordDelegations(delegations)
		logger.Infof("subprocess (interactive): detected %d delegation(s) mid-conversation", len(delegations))
		results := s.runParallelTasks(ctx, delegations)
		fmt.Fprintln(os.Stdout, FormatResults(results))
	}

	cmd, err := s.Launcher.Launch(ctx, cliexec.ModeInteractive, cliexec.LaunchOptions{
		Options: cliexec.Options{SystemPrompt: framework},
		Stdout:  tw,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("subprocess (interactive): launch failed: %w", err)
	}
	cmd.Stdin = os.Stdin

	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return fmt.Errorf("subprocess (interactive): session failed: %w", err)
		}
	}
	return nil
}

// FormatResults builds the Task-tool-styled transcript section for a batch
// of AgentResults, per spec §4.10 step 8.
func FormatResults(results []AgentResult) string {
	var b strings.Builder
	b.WriteString("## Agent Responses\n\n")

	for _, r := range results {
		icon := "⏺"
		if r.Status != "completed" {
			icon = "❌"
		}
		fmt.Fprintf(&b, "%s Task(%s)\n", icon, taskPrefix(r.Task))
		fmt.Fprintf(&b, "  ⎿ Done (0 tool uses · %dk tokens · %.1fs)\n\n", r.Tokens/1000, r.ExecutionTime.Seconds())
		fmt.Fprintf(&b, "### %s Agent\n%s\n\n", titleCase(r.Agent), r.Response)
	}
	return b.String()
}
