package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"mpm/internal/cliexec"
	"mpm/pkg/logger"
)

// SystemPromptOrchestrator passes the framework via
// --append-system-prompt on every invocation instead of priming
// separately, per spec §4.10. Delegations found in non-interactive output
// are only logged, never executed — true Task-tool runs happen inside the
// CLI itself under this strategy.
type SystemPromptOrchestrator struct {
	*Base
}

// NewSystemPromptOrchestrator wraps base with the system-prompt strategy.
func NewSystemPromptOrchestrator(base *Base) *SystemPromptOrchestrator {
	base.StrategyName = "system_prompt"
	return &SystemPromptOrchestrator{Base: base}
}

// RunNonInteractive runs one one-shot turn with the framework injected as
// a system prompt, post-processes stdout for tickets and delegations
// (logged only), then returns the raw response.
func (s *SystemPromptOrchestrator) RunNonInteractive(ctx context.Context, input string) (string, error) {
	framework := s.GetFrameworkInstructions(ctx)

	result, err := s.Launcher.LaunchOneshot(input, cliexec.Options{SystemPrompt: framework}, true, s.Config.CLI.GetPMTimeout())
	if err != nil {
		return "", fmt.Errorf("system_prompt: invocation failed: %w", err)
	}

	output := stripANSI(result.Stdout)
	s.Session.LogInteraction("response", output)
	s.ProcessOutputLine(ctx, output)

	delegations := s.Detector.Detect(output)
	s.Session.RecordDelegations(delegations)
	for _, d := range delegations {
		logger.Debugf("system_prompt: observed delegation to %s (logged only): %s", d.Agent, taskPrefix(d.Task))
	}

	return output, nil
}

// RunInteractive starts an interactive CLI session with the framework
// injected as a system prompt; no priming step is needed under this
// strategy.
func (s *SystemPromptOrchestrator) RunInteractive(ctx context.Context) error {
	warnIfNotATerminal("system_prompt")
	framework := s.GetFrameworkInstructions(ctx)

	cmd, err := s.Launcher.Launch(ctx, cliexec.ModeInteractive, cliexec.LaunchOptions{
		Options: cliexec.Options{SystemPrompt: framework},
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("system_prompt: interactive launch failed: %w", err)
	}
	cmd.Stdin = os.Stdin

	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return fmt.Errorf("system_prompt: interactive session failed: %w", err)
		}
	}
	return nil
}
