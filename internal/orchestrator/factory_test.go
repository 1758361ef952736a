package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpm/internal/cliexec"
	"mpm/internal/config"
	"mpm/internal/framework"
	"mpm/internal/ticketstore/memstore"
)

func testLauncher(t *testing.T) *cliexec.Launcher {
	t.Helper()
	l, err := cliexec.NewLauncher("opus", false, "/bin/true")
	require.NoError(t, err)
	return l
}

func TestBuildDefaultsToDirectStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks.BaseURL = ""
	strategy, err := Build(cfg, Options{}, testLauncher(t), framework.NewLoader("", t.TempDir()), memstore.New(), t.TempDir())
	require.NoError(t, err)
	_, ok := strategy.(*DirectOrchestrator)
	assert.True(t, ok)
}

func TestBuildUseSystemPromptSelectsSystemPromptStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks.BaseURL = ""
	strategy, err := Build(cfg, Options{UseSystemPrompt: true}, testLauncher(t), framework.NewLoader("", t.TempDir()), memstore.New(), t.TempDir())
	require.NoError(t, err)
	_, ok := strategy.(*SystemPromptOrchestrator)
	assert.True(t, ok)
}

func TestBuildSubprocessSelectsNonInteractiveSubprocessStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks.BaseURL = ""
	strategy, err := Build(cfg, Options{Subprocess: true}, testLauncher(t), framework.NewLoader("", t.TempDir()), memstore.New(), t.TempDir())
	require.NoError(t, err)
	sub, ok := strategy.(*SubprocessOrchestrator)
	require.True(t, ok)
	assert.False(t, sub.Interactive)
}

func TestBuildInteractiveSubprocessTakesPriorityOverSubprocess(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks.BaseURL = ""
	strategy, err := Build(cfg, Options{InteractiveSubprocess: true, Subprocess: true, UseSystemPrompt: true}, testLauncher(t), framework.NewLoader("", t.TempDir()), memstore.New(), t.TempDir())
	require.NoError(t, err)
	sub, ok := strategy.(*SubprocessOrchestrator)
	require.True(t, ok)
	assert.True(t, sub.Interactive)
}

func TestBuildEnableTodoHijackingWiresHijacker(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks.BaseURL = ""
	cfg.Hijacker.InboxDir = t.TempDir() + "/inbox"
	strategy, err := Build(cfg, Options{EnableTodoHijacking: true}, testLauncher(t), framework.NewLoader("", t.TempDir()), memstore.New(), t.TempDir())
	require.NoError(t, err)

	d, ok := strategy.(*DirectOrchestrator)
	require.True(t, ok)
	assert.NotNil(t, d.Hijacker)
}

func TestBuildWiresSkillsRegistryWithEmbeddedBundledTier(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks.BaseURL = ""
	strategy, err := Build(cfg, Options{}, testLauncher(t), framework.NewLoader("", t.TempDir()), memstore.New(), t.TempDir())
	require.NoError(t, err)

	d, ok := strategy.(*DirectOrchestrator)
	require.True(t, ok)
	require.NotNil(t, d.Skills)

	_, err = d.Skills.GetSkill("secret-scan")
	assert.NoError(t, err)
}
