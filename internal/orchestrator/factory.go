package orchestrator

import (
	"context"

	"mpm/internal/cliexec"
	"mpm/internal/config"
	"mpm/internal/eventpool"
	"mpm/internal/framework"
	"mpm/internal/hijacker"
	"mpm/internal/hookclient"
	"mpm/internal/skills"
	"mpm/internal/ticketstore"
	"mpm/pkg/logger"
)

// Strategy is the common contract every orchestrator exposes to the
// session driver (C12): non-interactive and interactive entry points plus
// the shared cleanup hook (spec §4.9/§4.10).
type Strategy interface {
	RunNonInteractive(ctx context.Context, input string) (string, error)
	RunInteractive(ctx context.Context) error
	Cleanup() (string, error)
	SessionState() *SessionState
}

// Options selects a strategy, mirroring the configuration flags named in
// spec §4.11.
type Options struct {
	InteractiveSubprocess bool
	Subprocess            bool
	UseSystemPrompt       bool
	EnableTodoHijacking   bool
	SkillsDirs            skills.Dirs
}

// Build resolves and constructs the configured Strategy, wiring the hook
// client, event pool, and hijacker per cfg, per spec §4.11:
//   - InteractiveSubprocess -> SubprocessOrchestrator (interactive)
//   - Subprocess -> SubprocessOrchestrator (non-interactive)
//   - UseSystemPrompt -> SystemPromptOrchestrator
//   - else -> DirectOrchestrator
func Build(cfg config.Config, opts Options, launcher *cliexec.Launcher, fw *framework.Loader, store ticketstore.Store, sessionsDir string) (Strategy, error) {
	var hooks *hookclient.Client
	if cfg.Hooks.BaseURL != "" {
		hooks = hookclient.New(cfg.Hooks.BaseURL, cfg.Hooks.GetTimeout())
	}

	var pool *eventpool.Pool
	if cfg.EventPool.MaxConnections > 0 {
		poolCfg := eventpool.DefaultConfig()
		poolCfg.MaxConnections = cfg.EventPool.MaxConnections
		poolCfg.Port = cfg.EventPool.Port
		if cfg.EventPool.AuthToken != "" {
			poolCfg.AuthToken = cfg.EventPool.AuthToken
		}
		pool = eventpool.GetPool(poolCfg)
	}

	var hj *hijacker.Hijacker
	if opts.EnableTodoHijacking || cfg.Hijacker.Enabled {
		dir := cfg.Hijacker.InboxDir
		if dir == "" {
			var err error
			dir, err = config.DefaultTodoInboxDir()
			if err != nil {
				logger.Warnf("factory: hijacker disabled, could not resolve inbox dir: %v", err)
			}
		}
		if dir != "" {
			var err error
			hj, err = hijacker.New(dir, nil)
			if err != nil {
				logger.Warnf("factory: hijacker disabled, failed to start: %v", err)
				hj = nil
			}
		}
	}

	registry, err := skills.NewRegistry(opts.SkillsDirs)
	if err != nil {
		logger.Warnf("factory: skills registry disabled: %v", err)
		registry = nil
	}

	base := NewBase(cfg, launcher, fw, hooks, pool, hj, store, sessionsDir, "")
	base.Skills = registry

	switch {
	case opts.InteractiveSubprocess:
		return NewSubprocessOrchestrator(base, true), nil
	case opts.Subprocess:
		return NewSubprocessOrchestrator(base, false), nil
	case opts.UseSystemPrompt:
		return NewSystemPromptOrchestrator(base), nil
	default:
		return NewDirectOrchestrator(base), nil
	}
}
