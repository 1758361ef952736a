// Package session implements the top-level session driver (spec
// component C12): it builds an orchestrator via the factory, decides
// interactive vs. non-interactive mode, runs the session, and prints a
// summary, grounded on the teacher's cmd/mote-style thin-main convention
// of pushing all real logic into internal packages.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"mpm/internal/cliexec"
	"mpm/internal/config"
	"mpm/internal/delegation"
	"mpm/internal/framework"
	"mpm/internal/orchestrator"
	"mpm/internal/ticket"
	"mpm/internal/ticketstore"
	"mpm/internal/ticketstore/memstore"
	"mpm/internal/ticketstore/sqlitestore"
	"mpm/pkg/logger"
)

// Input selects how the driver sources the non-interactive prompt.
type Input struct {
	// Text is used verbatim when non-empty.
	Text string
	// Path, if set and Text is empty, is read as the prompt.
	Path string
}

// Options bundles the driver's run-time choices, on top of the
// orchestrator factory's strategy-selection Options.
type Options struct {
	Strategy orchestrator.Options
	Input    Input
	// ForceInteractive runs an interactive session even when stdin is
	// piped, matching the CLI's explicit "-i" absence plus a TTY check.
	ForceInteractive bool
}

// Run is the full session lifecycle: build collaborators, build the
// strategy, decide mode, execute, print the summary, and clean up. It
// returns a non-zero-exit-worthy error only for genuine failures;
// SIGINT/SIGTERM produce a nil error after a clean shutdown, per spec
// §4.12.
func Run(cfg config.Config, opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	interrupted := false
	go func() {
		if _, ok := <-sigCh; ok {
			interrupted = true
			logger.Infof("session: interrupt received, shutting down")
			cancel()
		}
	}()

	launcher, err := cliexec.NewLauncher(cfg.CLI.Model, cfg.CLI.SkipPermissions, cfg.CLI.ExecutablePath)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	fw := framework.NewLoader("", "")

	store, closeStore, err := buildTicketStore(cfg.Tickets)
	if err != nil {
		return fmt.Errorf("session: build ticket store: %w", err)
	}
	if closeStore != nil {
		defer closeStore()
	}

	sessionsDir, err := config.DefaultSessionsDir()
	if err != nil {
		return fmt.Errorf("session: resolve sessions dir: %w", err)
	}

	if opts.Strategy.SkillsDirs.User == "" {
		if dir, err := config.DefaultUserSkillsDir(); err == nil {
			opts.Strategy.SkillsDirs.User = dir
		}
	}
	if opts.Strategy.SkillsDirs.Project == "" {
		if dir, err := config.DefaultProjectSkillsDir(); err == nil {
			opts.Strategy.SkillsDirs.Project = dir
		}
	}

	strategy, err := orchestrator.Build(cfg, opts.Strategy, launcher, fw, store, sessionsDir)
	if err != nil {
		return fmt.Errorf("session: build orchestrator: %w", err)
	}

	nonInteractive, input, err := resolveMode(opts)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	var runErr error
	if nonInteractive {
		output, err := strategy.RunNonInteractive(ctx, input)
		if err != nil {
			runErr = err
		} else {
			fmt.Println(output)
		}
	} else {
		runErr = strategy.RunInteractive(ctx)
	}

	logPath, cleanupErr := strategy.Cleanup()
	if cleanupErr != nil {
		logger.Warnf("session: cleanup failed: %v", cleanupErr)
	} else if logPath != "" {
		logger.Debugf("session: wrote session log to %s", logPath)
	}

	printSummary(strategy.SessionState())

	if interrupted {
		return nil
	}
	return runErr
}

// buildTicketStore constructs the configured ticketstore.Store reference
// implementation (spec.md §6 treats the real ticket store as an external
// collaborator "consumed by ID"; this picks between the two in-tree
// reference backends). The returned close func is non-nil only for the
// sqlite backend, whose *sql.DB handle must be released at shutdown.
func buildTicketStore(cfg config.TicketStoreConfig) (ticketstore.Store, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			var err error
			path, err = config.DefaultTicketStorePath()
			if err != nil {
				return nil, nil, err
			}
		}
		store, err := sqlitestore.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warnf("session: closing sqlite ticket store: %v", err)
			}
		}, nil
	default:
		return memstore.New(), nil, nil
	}
}

// resolveMode decides interactive vs. non-interactive per §4.12: an
// explicit -i text or path, or piped stdin, means non-interactive.
func resolveMode(opts Options) (nonInteractive bool, input string, err error) {
	if opts.ForceInteractive {
		return false, "", nil
	}

	if opts.Input.Text != "" {
		return true, opts.Input.Text, nil
	}
	if opts.Input.Path != "" {
		data, err := os.ReadFile(opts.Input.Path)
		if err != nil {
			return false, "", fmt.Errorf("read input file %s: %w", opts.Input.Path, err)
		}
		return true, string(data), nil
	}

	if stdinIsPiped() {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return false, "", fmt.Errorf("read stdin: %w", err)
		}
		return true, strings.TrimRight(string(data), "\n"), nil
	}

	return false, "", nil
}

func stdinIsPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) == 0
}

// printSummary prints the ticket and delegation counts per §4.12: total
// ticket count plus a breakdown by type, and delegation counts by agent.
func printSummary(sess *orchestrator.SessionState) {
	tickets := sess.Tickets()
	delegations := sess.Delegations()

	fmt.Printf("\n--- Session Summary ---\n")
	fmt.Printf("Tickets extracted: %d\n", len(tickets))

	ticketCounts := orchestrator.TicketCounts(tickets)
	for _, typ := range sortedKeys(ticketCounts, func(t ticket.Type) string { return string(t) }) {
		fmt.Printf("  %s: %d\n", typ, ticketCounts[typ])
	}

	fmt.Printf("Delegations: %d\n", len(delegations))
	delegationCounts := orchestrator.DelegationCounts(delegations)
	for _, agent := range sortedKeys(delegationCounts, func(a delegation.Agent) string { return string(a) }) {
		fmt.Printf("  %s: %d\n", agent, delegationCounts[agent])
	}
}
