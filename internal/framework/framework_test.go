package framework

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFrameworkInstructionsFallsBackToMinimalWhenNothingFound(t *testing.T) {
	l := &Loader{WorkingDir: t.TempDir()}
	assert.Contains(t, l.FrameworkInstructions(), "Claude PM Framework Instructions")
}

func TestFrameworkInstructionsUsesWorkingDirectoryOverride(t *testing.T) {
	wd := t.TempDir()
	writeFile(t, filepath.Join(wd, "INSTRUCTIONS.md"), "project-specific rules")

	l := &Loader{WorkingDir: wd}
	instructions := l.FrameworkInstructions()
	assert.Contains(t, instructions, "project-specific rules")
}

func TestFrameworkInstructionsPrefersInstructionsOverLegacyClaudeMd(t *testing.T) {
	wd := t.TempDir()
	writeFile(t, filepath.Join(wd, "INSTRUCTIONS.md"), "new style")
	writeFile(t, filepath.Join(wd, "CLAUDE.md"), "legacy style")

	l := &Loader{WorkingDir: wd}
	instructions := l.FrameworkInstructions()
	assert.Contains(t, instructions, "new style")
	assert.NotContains(t, instructions, "legacy style")
}

func TestFrameworkInstructionsFallsBackToLegacyClaudeMd(t *testing.T) {
	wd := t.TempDir()
	writeFile(t, filepath.Join(wd, "CLAUDE.md"), "legacy style")

	l := &Loader{WorkingDir: wd}
	assert.Contains(t, l.FrameworkInstructions(), "legacy style")
}

func TestDiscoverAgentsDirPrefersTemplates(t *testing.T) {
	root := t.TempDir()
	mainDir := filepath.Join(root, "src", "claude_mpm", "agents")
	templatesDir := filepath.Join(mainDir, "templates")
	writeFile(t, filepath.Join(mainDir, "engineer.md"), "main engineer")
	writeFile(t, filepath.Join(templatesDir, "engineer.md"), "templated engineer")

	l := &Loader{FrameworkRoot: root, WorkingDir: t.TempDir()}
	agentsDir, tpl, main := l.discoverAgentsDir()
	assert.Equal(t, templatesDir, agentsDir)
	assert.Equal(t, templatesDir, tpl)
	assert.Equal(t, mainDir, main)
}

func TestLoadAgentsSkipsReadmeCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	mainDir := filepath.Join(root, "src", "claude_mpm", "agents")
	writeFile(t, filepath.Join(mainDir, "engineer.md"), "engineer body")
	writeFile(t, filepath.Join(mainDir, "README.md"), "ignore me")

	l := &Loader{FrameworkRoot: root, WorkingDir: t.TempDir()}
	names := l.AgentNames()
	assert.Contains(t, names, "engineer")
	assert.NotContains(t, names, "README")
}

func TestLoadAgentsTemplatesFallsBackToBaseAgent(t *testing.T) {
	root := t.TempDir()
	mainDir := filepath.Join(root, "src", "claude_mpm", "agents")
	templatesDir := filepath.Join(mainDir, "templates")
	writeFile(t, filepath.Join(templatesDir, "engineer.md"), "engineer body")
	writeFile(t, filepath.Join(mainDir, "base_agent.md"), "base body")

	l := &Loader{FrameworkRoot: root, WorkingDir: t.TempDir()}
	names := l.AgentNames()
	assert.Contains(t, names, "engineer")
	assert.Contains(t, names, "base_agent")
}

func TestFrameworkVersionAndLastModifiedOnlyFromInstructionsFile(t *testing.T) {
	root := t.TempDir()
	mainDir := filepath.Join(root, "src", "claude_mpm", "agents")
	writeFile(t, filepath.Join(mainDir, "INSTRUCTIONS.md"),
		"<!-- FRAMEWORK_VERSION: 7 -->\n<!-- LAST_MODIFIED: 2026-01-01 -->\nbody")

	l := &Loader{FrameworkRoot: root, WorkingDir: t.TempDir()}
	content := l.Load()
	assert.Equal(t, "7", content.Version)
	assert.Equal(t, "2026-01-01", content.LastModified)
	assert.True(t, content.Loaded)
}

func TestAgentDefinitionReturnsFalseWhenMissing(t *testing.T) {
	l := &Loader{WorkingDir: t.TempDir()}
	_, ok := l.AgentDefinition("nonexistent")
	assert.False(t, ok)
}

func TestSatisfiesMinVersion(t *testing.T) {
	root := t.TempDir()
	mainDir := filepath.Join(root, "src", "claude_mpm", "agents")
	writeFile(t, filepath.Join(mainDir, "INSTRUCTIONS.md"), "<!-- FRAMEWORK_VERSION: 7 -->\nbody")

	l := &Loader{FrameworkRoot: root, WorkingDir: t.TempDir()}
	assert.True(t, l.SatisfiesMinVersion("6.0.0"))
	assert.True(t, l.SatisfiesMinVersion("7.0.0"))
	assert.False(t, l.SatisfiesMinVersion("8.0.0"))
}

func TestSatisfiesMinVersionFalseWhenUnknown(t *testing.T) {
	l := &Loader{WorkingDir: t.TempDir()}
	assert.False(t, l.SatisfiesMinVersion("1.0.0"))
}

func TestCategoryLabelGrouping(t *testing.T) {
	assert.Contains(t, categoryLabel("qa"), "QA Agent")
	assert.Contains(t, categoryLabel("documentation"), "Documentation Agent")
	assert.Contains(t, categoryLabel("research"), "Research Agent")
	assert.Contains(t, categoryLabel("security"), "Security Agent")
	assert.Contains(t, categoryLabel("version-control"), "Version Control Agent")
	assert.Contains(t, categoryLabel("ops"), "Ops Agent")
	assert.Contains(t, categoryLabel("something-else"), "Something Else")
}
