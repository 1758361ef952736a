package orchestrator

import (
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"mpm/pkg/logger"
)

// newSessionID generates a session identifier shared across a priming
// one-shot and the interactive CLI invocation that follows it, so the CLI
// continues the same conversation (spec §4.10, Direct strategy).
func newSessionID() string {
	return uuid.NewString()
}

// warnIfNotATerminal logs once if an interactive strategy is about to hand
// stdin/stdout to the underlying CLI without a real terminal attached (e.g.
// both ends piped in a CI harness) — the duplex session will still run, but
// a human won't be on the other end of it.
func warnIfNotATerminal(strategy string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.Warnf("%s: running an interactive session without an attached terminal", strategy)
	}
}
