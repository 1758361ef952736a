package framework

import (
	"fmt"
	"sort"
	"strings"
)

const minimalFramework = `
# Claude PM Framework Instructions

You are operating within a Claude PM Framework deployment.

## Role
You are a multi-agent orchestrator. Your primary responsibilities:
- Delegate tasks to specialized agents via Task Tool
- Coordinate multi-agent workflows
- Extract TODO/BUG/FEATURE items for ticket creation
- NEVER perform direct implementation work

## Core Agents
- Documentation Agent - Documentation tasks
- Engineer Agent - Code implementation
- QA Agent - Testing and validation
- Research Agent - Investigation and analysis
- Version Control Agent - Git operations

## Important Rules
1. Always delegate work via Task Tool
2. Provide comprehensive context to agents
3. Track all TODO/BUG/FEATURE items
4. Maintain project visibility

---
`

const orchestrationPrinciples = `
## Orchestration Principles
1. **Always Delegate**: Never perform direct work - use Task Tool for all implementation
2. **Comprehensive Context**: Provide rich, filtered context to each agent
3. **Track Everything**: Extract all TODO/BUG/FEATURE items systematically
4. **Cross-Agent Coordination**: Orchestrate workflows spanning multiple agents
5. **Results Integration**: Actively receive and integrate agent results

## Task Tool Format
` + "```" + `
**[Agent Name]**: [Clear task description with deliverables]

TEMPORAL CONTEXT: Today is [date]. Apply date awareness to [specific considerations].

**Task**: [Detailed task breakdown]
1. [Specific action item 1]
2. [Specific action item 2]
3. [Specific action item 3]

**Context**: [Comprehensive filtered context for this agent]
**Authority**: [Agent's decision-making scope]
**Expected Results**: [Specific deliverables needed]
**Integration**: [How results integrate with other work]
` + "```" + `

## Ticket Extraction Patterns
Extract tickets from these patterns:
- TODO: [description] -> TODO ticket
- BUG: [description] -> BUG ticket
- FEATURE: [description] -> FEATURE ticket
- ISSUE: [description] -> ISSUE ticket
- FIXME: [description] -> BUG ticket

---
`

// categoryLabel returns the one-line agent category description used in
// the "Available Agents" summary list, matching framework_loader.py's
// substring-on-name dispatch exactly.
func categoryLabel(agentName string) string {
	lower := strings.ToLower(agentName)
	switch {
	case strings.Contains(lower, "engineer"):
		return "**Engineer Agent**: Code implementation and development"
	case strings.Contains(lower, "qa"):
		return "**QA Agent**: Testing and quality assurance"
	case strings.Contains(lower, "documentation"):
		return "**Documentation Agent**: Documentation creation and maintenance"
	case strings.Contains(lower, "research"):
		return "**Research Agent**: Investigation and analysis"
	case strings.Contains(lower, "security"):
		return "**Security Agent**: Security analysis and protection"
	case strings.Contains(lower, "version"):
		return "**Version Control Agent**: Git operations and version management"
	case strings.Contains(lower, "ops"):
		return "**Ops Agent**: Deployment and operations"
	case strings.Contains(lower, "data"):
		return "**Data Engineer Agent**: Data management and AI API integration"
	default:
		return fmt.Sprintf("**%s**: Available for specialized tasks", titleCase(agentName))
	}
}

func titleCase(name string) string {
	clean := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(clean)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// formatFullFramework builds the injection string when something was
// loaded: the bundled INSTRUCTIONS.md verbatim if present (with a working
// directory override section appended), otherwise a generated framework
// built from Core Role + Available Agents + Orchestration Principles.
func formatFullFramework(content *Content) string {
	if content.FrameworkInstructions != "" {
		instructions := content.FrameworkInstructions
		if content.WorkingOverride != "" {
			instructions += "\n\n## Working Directory Instructions\n" + content.WorkingOverride + "\n"
		}
		return instructions
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
# Claude MPM Framework Instructions

You are operating within the Claude Multi-Agent Project Manager (MPM) framework.

## Core Role
You are a multi-agent orchestrator. Your primary responsibilities are:
- Delegate all implementation work to specialized agents via Task Tool
- Coordinate multi-agent workflows and cross-agent collaboration
- Extract and track TODO/BUG/FEATURE items for ticket creation
- Maintain project visibility and strategic oversight
- NEVER perform direct implementation work yourself

`)

	if content.WorkingOverride != "" {
		fmt.Fprintf(&b, "\n## Working Directory Instructions\n%s\n\n", content.WorkingOverride)
	}

	if len(content.Agents) > 0 {
		b.WriteString("## Available Agents\n\n")
		b.WriteString("You have the following specialized agents available for delegation:\n\n")

		names := make([]string, 0, len(content.Agents))
		for name := range content.Agents {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			b.WriteString("- " + categoryLabel(name) + "\n")
		}
		b.WriteString("\n### Agent Details\n\n")
		for _, name := range names {
			fmt.Fprintf(&b, "#### %s\n%s\n\n", titleCase(name), content.Agents[name])
		}
	}

	b.WriteString(orchestrationPrinciples)
	return b.String()
}
