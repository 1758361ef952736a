// Command mpm is the delegation orchestrator's CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mpm/internal/config"
	"mpm/internal/orchestrator"
	"mpm/internal/session"
	"mpm/pkg/logger"
)

var (
	configPath          string
	model               string
	skipPermissions     bool
	inputText           string
	inputFile           string
	interactiveFlag     bool
	subprocess          bool
	interactiveSub      bool
	useSystemPrompt     bool
	enableTodoHijacking bool
	ticketBackend       string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mpm",
		Short:         "Claude MPM delegation orchestrator",
		Long:          "mpm drives a multi-agent PM/delegation session against the underlying Claude CLI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSession,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default ~/.claude-mpm/config.yaml)")
	root.Flags().StringVar(&model, "model", "", "override the configured CLI model")
	root.Flags().BoolVar(&skipPermissions, "skip-permissions", true, "pass --dangerously-skip-permissions to the CLI")
	root.Flags().StringVarP(&inputText, "input", "i", "", "non-interactive prompt text")
	root.Flags().StringVar(&inputFile, "input-file", "", "non-interactive prompt file path")
	root.Flags().BoolVar(&interactiveFlag, "interactive", false, "force an interactive session even if stdin is piped")
	root.Flags().BoolVar(&subprocess, "subprocess", true, "use the Subprocess orchestrator strategy")
	root.Flags().BoolVar(&interactiveSub, "interactive-subprocess", false, "run the Subprocess strategy in its interactive variant")
	root.Flags().BoolVar(&useSystemPrompt, "use-system-prompt", false, "use the SystemPrompt orchestrator strategy (only with --subprocess=false; --subprocess takes precedence)")
	root.Flags().BoolVar(&enableTodoHijacking, "enable-todo-hijacking", false, "watch the TODO inbox and convert entries to delegations")
	root.Flags().StringVar(&ticketBackend, "ticket-store", "", "ticket store backend: memory (default) or sqlite")

	root.AddCommand(newVersionCmd())
	return root
}

func runSession(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if model != "" {
		cfg.CLI.Model = model
	}
	cfg.CLI.SkipPermissions = skipPermissions
	if ticketBackend != "" {
		cfg.Tickets.Backend = ticketBackend
	}
	config.SetConfig(cfg)

	if err := logger.Init(logger.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}); err != nil {
		return err
	}
	defer logger.Close()

	opts := session.Options{
		Strategy: orchestrator.Options{
			InteractiveSubprocess: interactiveSub,
			Subprocess:            subprocess && !interactiveSub,
			UseSystemPrompt:       useSystemPrompt,
			EnableTodoHijacking:   enableTodoHijacking,
		},
		Input: session.Input{
			Text: inputText,
			Path: inputFile,
		},
		ForceInteractive: interactiveFlag,
	}

	return session.Run(cfg, opts)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("mpm dev")
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
