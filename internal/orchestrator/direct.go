package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"mpm/internal/cliexec"
	"mpm/pkg/logger"
)

// DirectOrchestrator primes the CLI with the framework via one `--print`
// invocation, then hands control to an interactive CLI session, per spec
// §4.10's Direct strategy. Extraction is best-effort from scrollback since
// the orchestrator does not control interactive turns.
type DirectOrchestrator struct {
	*Base
}

// NewDirectOrchestrator wraps base with the direct strategy.
func NewDirectOrchestrator(base *Base) *DirectOrchestrator {
	base.StrategyName = "direct"
	return &DirectOrchestrator{Base: base}
}

// RunInteractive primes the CLI with the framework instructions, then
// starts an interactive session sharing a session ID with the prime step
// so the CLI continues the same conversation.
func (d *DirectOrchestrator) RunInteractive(ctx context.Context) error {
	warnIfNotATerminal("direct")
	framework := d.GetFrameworkInstructions(ctx)
	d.Session.LogInteraction("framework_prime", framework)

	sessionID := newSessionID()

	primeResult, err := d.Launcher.LaunchOneshot(framework, cliexec.Options{SessionID: sessionID}, false, d.Config.CLI.GetPMTimeout())
	if err != nil {
		return fmt.Errorf("direct: priming failed: %w", err)
	}
	d.Session.LogInteraction("prime_response", stripANSI(primeResult.Stdout))

	cmd, err := d.Launcher.Launch(ctx, cliexec.ModeInteractive, cliexec.LaunchOptions{
		Options: cliexec.Options{SessionID: sessionID},
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("direct: interactive launch failed: %w", err)
	}
	cmd.Stdin = os.Stdin

	logger.ForSession(sessionID).Info().Msg("direct orchestrator: handing off to interactive session")
	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return fmt.Errorf("direct: interactive session failed: %w", err)
		}
	}
	return nil
}

// RunNonInteractive primes the CLI, then runs one more one-shot turn with
// the user's input, used when a caller requests Direct but supplies input
// non-interactively (e.g. scripted sessions or tests).
func (d *DirectOrchestrator) RunNonInteractive(ctx context.Context, input string) (string, error) {
	framework := d.GetFrameworkInstructions(ctx)
	prompt := framework + "\n\n## User Request\n" + input

	result, err := d.Launcher.LaunchOneshot(prompt, cliexec.Options{}, true, d.Config.CLI.GetPMTimeout())
	if err != nil {
		return "", fmt.Errorf("direct: invocation failed: %w", err)
	}

	output := stripANSI(result.Stdout)
	d.Session.LogInteraction("response", output)
	d.ProcessOutputLine(ctx, output)
	return output, nil
}
