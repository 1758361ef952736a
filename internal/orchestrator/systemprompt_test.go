package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpm/internal/cliexec"
	"mpm/internal/config"
	"mpm/internal/framework"
	"mpm/internal/ticketstore/memstore"
)

func fakeSystemPromptExecutable(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake executable script assumes a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestSystemPromptRunNonInteractiveLogsDelegationsWithoutExecuting(t *testing.T) {
	path := fakeSystemPromptExecutable(t, "echo '**Engineer**: fix the login bug'\n")
	launcher, err := cliexec.NewLauncher("opus", false, path)
	require.NoError(t, err)

	base := NewBase(config.Default(), launcher, framework.NewLoader("", t.TempDir()), nil, nil, nil, memstore.New(), t.TempDir(), "system_prompt")
	sp := NewSystemPromptOrchestrator(base)

	out, err := sp.RunNonInteractive(context.Background(), "build the feature")
	require.NoError(t, err)
	assert.Contains(t, out, "Engineer")

	delegations := sp.Session.Delegations()
	require.Len(t, delegations, 1)
	assert.Equal(t, "fix the login bug", delegations[0].Task)
}

func TestSystemPromptStrategyName(t *testing.T) {
	base := NewBase(config.Default(), nil, framework.NewLoader("", t.TempDir()), nil, nil, nil, memstore.New(), t.TempDir(), "")
	sp := NewSystemPromptOrchestrator(base)
	assert.Equal(t, "system_prompt", sp.StrategyName)
}
