package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpm/internal/cliexec"
	"mpm/internal/config"
	"mpm/internal/delegation"
	"mpm/internal/framework"
	"mpm/internal/skills"
	"mpm/internal/ticketstore/memstore"
)

func TestTitleCaseJoinsHyphenAndUnderscoreWords(t *testing.T) {
	assert.Equal(t, "Version Control", titleCase("version-control"))
	assert.Equal(t, "Data Engineer", titleCase("data_engineer"))
	assert.Equal(t, "Engineer", titleCase("engineer"))
}

func TestTaskPrefixTruncatesLongTasks(t *testing.T) {
	short := "fix the bug"
	assert.Equal(t, short, taskPrefix(short))

	long := strings.Repeat("a", 60)
	got := taskPrefix(long)
	assert.Len(t, got, 53)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestAgentDefinitionForTriesFilenameVariants(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data_engineer.md"), []byte("data engineer body"), 0644))

	fw := framework.NewLoader("", dir)
	got := agentDefinitionFor(fw, delegation.AgentDataEngineer)
	assert.Equal(t, "data engineer body", got)
}

func TestAgentDefinitionForMissingReturnsEmpty(t *testing.T) {
	fw := framework.NewLoader("", t.TempDir())
	assert.Empty(t, agentDefinitionFor(fw, delegation.AgentSecurity))
}

func TestFormatResultsIncludesEachAgentSection(t *testing.T) {
	results := []AgentResult{
		{Agent: "engineer", Task: "implement login", Response: "done", Status: "completed", Tokens: 1200, ExecutionTime: 2 * time.Second},
		{Agent: "qa", Task: "write tests", Response: "failed to run", Status: "failed", Tokens: 300, ExecutionTime: time.Second},
	}
	out := FormatResults(results)
	assert.Contains(t, out, "### Engineer Agent")
	assert.Contains(t, out, "### Qa Agent")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "failed to run")
	assert.Contains(t, out, "⏺ Task(implement login)")
	assert.Contains(t, out, "❌ Task(write tests)")
}

func TestTurnWriterSplitsOnBlankLineAndTees(t *testing.T) {
	var dst strings.Builder
	var turns []string
	tw := &turnWriter{dst: &dst, onTurn: func(turn string) { turns = append(turns, turn) }}

	_, err := tw.Write([]byte("first turn\n\nsecond"))
	require.NoError(t, err)
	_, err = tw.Write([]byte(" turn\n\n"))
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, "first turn", turns[0])
	assert.Equal(t, "second turn", turns[1])
	assert.Equal(t, "first turn\n\nsecond turn\n\n", dst.String())
}

func fakeSubprocessExecutable(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake executable script assumes a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestRunParallelTasksPreservesInputOrder(t *testing.T) {
	path := fakeSubprocessExecutable(t, "cat\n")
	launcher, err := cliexec.NewLauncher("opus", false, path)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Fanout.Workers = 2
	base := NewBase(cfg, launcher, framework.NewLoader("", t.TempDir()), nil, nil, nil, memstore.New(), t.TempDir(), "subprocess")
	s := NewSubprocessOrchestrator(base, false)

	delegations := []delegation.Delegation{
		{Agent: delegation.AgentEngineer, Task: "first"},
		{Agent: delegation.AgentQA, Task: "second"},
		{Agent: delegation.AgentSecurity, Task: "third"},
	}

	results := s.runParallelTasks(context.Background(), delegations)
	require.Len(t, results, 3)
	assert.Equal(t, "engineer", results[0].Agent)
	assert.Equal(t, "qa", results[1].Agent)
	assert.Equal(t, "security", results[2].Agent)
	for _, r := range results {
		assert.Equal(t, "completed", r.Status)
		assert.Contains(t, r.Response, "Current Task")
	}
}

func TestRunAgentSubprocessMarksFailedOnNonZeroExit(t *testing.T) {
	path := fakeSubprocessExecutable(t, "echo boom 1>&2; exit 1\n")
	launcher, err := cliexec.NewLauncher("opus", false, path)
	require.NoError(t, err)

	base := NewBase(config.Default(), launcher, framework.NewLoader("", t.TempDir()), nil, nil, nil, memstore.New(), t.TempDir(), "subprocess")
	s := NewSubprocessOrchestrator(base, false)

	result := s.runAgentSubprocess(context.Background(), delegation.Delegation{Agent: delegation.AgentOps, Task: "deploy"})
	assert.Equal(t, "failed", result.Status)
}

func TestRunAgentSubprocessEnhancesPromptWithSkills(t *testing.T) {
	path := fakeSubprocessExecutable(t, "cat\n")
	launcher, err := cliexec.NewLauncher("opus", false, path)
	require.NoError(t, err)

	registry, err := skills.NewRegistry(skills.Dirs{})
	require.NoError(t, err)

	base := NewBase(config.Default(), launcher, framework.NewLoader("", t.TempDir()), nil, nil, nil, memstore.New(), t.TempDir(), "subprocess")
	base.Skills = registry
	s := NewSubprocessOrchestrator(base, false)

	result := s.runAgentSubprocess(context.Background(), delegation.Delegation{Agent: delegation.AgentQA, Task: "write tests"})
	assert.Equal(t, "completed", result.Status)
	assert.Contains(t, result.Response, "Available Skills")
	assert.Contains(t, result.Response, "secret-scan")
}
