package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(body), 0644))
}

func TestNewRegistryAlwaysLoadsEmbeddedBundledTier(t *testing.T) {
	r, err := NewRegistry(Dirs{})
	require.NoError(t, err)

	scan, err := r.GetSkill("secret-scan")
	require.NoError(t, err)
	assert.Equal(t, TierBundled, scan.Source)
}

func TestNewRegistryMergesTiersWithProjectWinningOverUser(t *testing.T) {
	user := t.TempDir()
	project := t.TempDir()

	writeSkill(t, user, "review", "# Review\n\nUser-tier review skill description.\n")
	writeSkill(t, project, "review", "# Review\n\nProject-overridden review skill.\n")
	writeSkill(t, project, "deploy", "# Deploy\n\nDeploy skill only in project tier.\n")

	r, err := NewRegistry(Dirs{User: user, Project: project})
	require.NoError(t, err)

	review, err := r.GetSkill("review")
	require.NoError(t, err)
	assert.Equal(t, TierProject, review.Source)
	assert.Contains(t, review.Description, "Project-overridden")

	deploy, err := r.GetSkill("deploy")
	require.NoError(t, err)
	assert.Equal(t, TierProject, deploy.Source)
}

func TestGetSkillNotFound(t *testing.T) {
	r, err := NewRegistry(Dirs{})
	require.NoError(t, err)
	_, err = r.GetSkill("missing")
	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestScanTierSkipsBadFilesButKeepsGood(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "good", "# Good\n\nA perfectly fine skill.\n")
	// A directory named like a .md file is not a skill file; ScanTier skips
	// it by its directory check, so only the good file is returned.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bad.md"), 0755))

	skills, err := ScanTier(dir, TierUser)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "good", skills[0].Name)
}

func TestGetSkillsForAgentUsesExplicitMapping(t *testing.T) {
	user := t.TempDir()
	writeSkill(t, user, "write-unit-tests", "# A\n\ndesc a\n")
	writeSkill(t, user, "generate-docs", "# B\n\ndesc b\n")

	r, err := NewRegistry(Dirs{User: user})
	require.NoError(t, err)

	mappingPath := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(mappingPath, []byte(`{"agent_type":"engineer","skills":["write-unit-tests"]}`), 0644))
	require.NoError(t, r.LoadAgentMapping(mappingPath))

	got := r.GetSkillsForAgent("engineer")
	require.Len(t, got, 1)
	assert.Equal(t, "write-unit-tests", got[0].Name)
}

func TestGetSkillsForAgentFallsBackToAgentTypesField(t *testing.T) {
	r, err := NewRegistry(Dirs{})
	require.NoError(t, err)

	got := r.GetSkillsForAgent("qa")
	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "secret-scan")
	assert.Contains(t, names, "code-review-checklist")
}

func TestEnhanceAgentPromptAppendsSection(t *testing.T) {
	r, err := NewRegistry(Dirs{})
	require.NoError(t, err)

	out := r.EnhanceAgentPrompt("qa", "base prompt", false)
	assert.Contains(t, out, "base prompt")
	assert.Contains(t, out, "Available Skills")
	assert.Contains(t, out, "secret-scan")
}

func TestEnhanceAgentPromptNoSkillsReturnsBaseUnchangedWhenMappedAway(t *testing.T) {
	r, err := NewRegistry(Dirs{})
	require.NoError(t, err)

	mappingPath := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(mappingPath, []byte(`{"agent_type":"qa","skills":[]}`), 0644))
	require.NoError(t, r.LoadAgentMapping(mappingPath))

	out := r.EnhanceAgentPrompt("qa", "base prompt", false)
	assert.Equal(t, "base prompt", out)
}

func TestSaveAndReloadAgentMapping(t *testing.T) {
	user := t.TempDir()
	writeSkill(t, user, "write-unit-tests", "# A\n\ndesc\n")
	r, err := NewRegistry(Dirs{User: user})
	require.NoError(t, err)

	mappingPath := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(mappingPath, []byte(`{"agent_type":"engineer","skills":["write-unit-tests"]}`), 0644))
	require.NoError(t, r.LoadAgentMapping(mappingPath))

	savePath := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, r.SaveAgentMapping(savePath, "engineer"))

	r2, err := NewRegistry(Dirs{User: user})
	require.NoError(t, err)
	require.NoError(t, r2.LoadAgentMapping(savePath))
	got := r2.GetSkillsForAgent("engineer")
	require.Len(t, got, 1)
	assert.Equal(t, "write-unit-tests", got[0].Name)
}
