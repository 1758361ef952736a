// Package config provides configuration path utilities.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigDir returns the default configuration directory (~/.claude-mpm).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude-mpm"), nil
}

// DefaultConfigPath returns the default configuration file path
// (~/.claude-mpm/config.yaml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultSessionsDir returns the session log directory (~/.claude-mpm/sessions),
// per spec §6.
func DefaultSessionsDir() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// DefaultTicketStorePath returns the default sqlite ticket store path
// (~/.claude-mpm/tickets.db).
func DefaultTicketStorePath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tickets.db"), nil
}

// DefaultTodoInboxDir returns the TODO inbox directory watched by the
// hijacker (~/.claude/todos), per spec §6.
func DefaultTodoInboxDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude", "todos"), nil
}

// DefaultUserSkillsDir returns the user-tier skills directory
// (~/.claude/skills), per spec §6.
func DefaultUserSkillsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude", "skills"), nil
}

// DefaultProjectSkillsDir returns the project-tier skills directory
// (<project>/.claude/skills) rooted at cwd, per spec §6.
func DefaultProjectSkillsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working dir: %w", err)
	}
	return filepath.Join(cwd, ".claude", "skills"), nil
}

// ExpandPath expands ~ prefix in path to user home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}

	if path == "~" {
		return os.UserHomeDir()
	}

	return path, nil
}
