// Package cliexec launches the Claude CLI binary as a subprocess (spec
// component C1), abstracting its three launch shapes behind one contract.
package cliexec

import (
	"os"
	"os/exec"
	"path/filepath"

	"mpm/internal/merrors"
	"mpm/pkg/logger"
)

// Mode selects one of the CLI's three invocation shapes.
type Mode string

const (
	ModeInteractive  Mode = "interactive"
	ModePrint        Mode = "print"
	ModeSystemPrompt Mode = "system_prompt"
)

// Options configures BuildArgv/Launch; zero values mean "not set".
type Options struct {
	SessionID    string
	SystemPrompt string
	ExtraArgs    []string
}

// Launcher builds argv and spawns the Claude CLI.
type Launcher struct {
	Model           string
	SkipPermissions bool
	ExecutablePath  string
}

// NewLauncher resolves the CLI executable (explicitPath wins if non-empty,
// otherwise common absolute paths then $PATH) and returns a ready Launcher.
// It fails fast, per §4.1, if no executable is found.
func NewLauncher(model string, skipPermissions bool, explicitPath string) (*Launcher, error) {
	if model == "" {
		model = "opus"
	}

	path := explicitPath
	if path == "" {
		var err error
		path, err = findExecutable()
		if err != nil {
			return nil, err
		}
	}

	return &Launcher{Model: model, SkipPermissions: skipPermissions, ExecutablePath: path}, nil
}

// commonPaths mirrors claude_launcher.py's _find_claude_executable list.
func commonPaths() []string {
	home, _ := os.UserHomeDir()
	paths := []string{"/usr/local/bin/claude", "/opt/homebrew/bin/claude"}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".local", "bin", "claude"))
	}
	return paths
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

func findExecutable() (string, error) {
	for _, p := range commonPaths() {
		if isExecutable(p) {
			logger.Debugf("found claude at: %s", p)
			return p, nil
		}
	}

	if found, err := exec.LookPath("claude"); err == nil {
		logger.Debugf("found claude at: %s", found)
		return found, nil
	}

	return "", merrors.ErrExecutableNotFound
}

// BuildArgv builds the command array for the given mode per §4.1: always
// --model and optionally --dangerously-skip-permissions/--session-id, then
// --print in print mode, then --append-system-prompt whenever SystemPrompt
// is set (in any mode), then any extra args.
func (l *Launcher) BuildArgv(mode Mode, opts Options) []string {
	argv := []string{l.ExecutablePath, "--model", l.Model}

	if l.SkipPermissions {
		argv = append(argv, "--dangerously-skip-permissions")
	}
	if opts.SessionID != "" {
		argv = append(argv, "--session-id", opts.SessionID)
	}

	switch mode {
	case ModePrint:
		argv = append(argv, "--print")
	}
	if opts.SystemPrompt != "" {
		argv = append(argv, "--append-system-prompt", opts.SystemPrompt)
	}

	if len(opts.ExtraArgs) > 0 {
		argv = append(argv, opts.ExtraArgs...)
	}

	return argv
}
