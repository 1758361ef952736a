package delegation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMarkdownAndTaskToolForms(t *testing.T) {
	d := NewDetector()
	text := "**Documentation Agent**: Update README\nTask(Investigate flaky CI)"

	got := d.Detect(text)
	require.Len(t, got, 2)

	assert.Equal(t, AgentDocumentation, got[0].Agent)
	assert.Equal(t, "Update README", got[0].Task)
	assert.Equal(t, SourceDetectorMarkdown, got[0].Source)

	assert.Equal(t, AgentResearch, got[1].Agent)
	assert.Equal(t, "Investigate flaky CI", got[1].Task)
	assert.Equal(t, SourceDetectorTaskTool, got[1].Source)
}

func TestDetectMarkdownStopsAtBlankLine(t *testing.T) {
	d := NewDetector()
	text := "**Engineer**: Implement login endpoint\n\n**QA**: Write unit tests for login\n"

	got := d.detectMarkdown(text)
	require.Len(t, got, 2)
	assert.Equal(t, "Implement login endpoint", got[0].Task)
	assert.Equal(t, "Write unit tests for login", got[1].Task)
}

func TestDetectMarkdownAgentNameAliasNormalized(t *testing.T) {
	d := NewDetector()
	got := d.detectMarkdown("**Dev**: fix the build\n")
	require.Len(t, got, 1)
	assert.Equal(t, AgentEngineer, got[0].Agent)
}

func TestDetectNoMatchesReturnsEmpty(t *testing.T) {
	d := NewDetector()
	assert.Empty(t, d.Detect("nothing delegated here"))
}

func TestSuggestAgentForTaskDefaultsToEngineer(t *testing.T) {
	assert.Equal(t, AgentEngineer, SuggestAgentForTask("do something vague"))
}

func TestSuggestAgentForTaskMatchesKeyword(t *testing.T) {
	assert.Equal(t, AgentQA, SuggestAgentForTask("write unit tests for login"))
}
