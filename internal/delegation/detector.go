package delegation

import (
	"regexp"
	"strings"
)

// markdownHeader matches the start of a "**<name>**: " or "**<name> Agent**: "
// delegation block. Go's RE2 engine has no lookahead, so Detect finds each
// header's position and then slices out the task body itself (up to the
// next header, a blank line, or a Task(...) call) rather than encoding that boundary in the
// regex, as subprocess_orchestrator.py's pattern1 does with re.DOTALL.
var markdownHeader = regexp.MustCompile(`(?m)^\*\*([^*]+?)(?:\s+Agent)?\*\*:\s*`)

// taskTool matches the one-line Task(<description>) form.
var taskTool = regexp.MustCompile(`Task\(([^)]+)\)`)

// Detector finds delegation surface forms in PM output text (spec C4).
type Detector struct{}

// NewDetector returns a ready-to-use Detector; it holds no state.
func NewDetector() *Detector { return &Detector{} }

// Detect scans text for both surface forms and returns every delegation
// found: all markdown-form delegations in the order they appear, followed
// by all Task-tool delegations in the order they appear.
func (d *Detector) Detect(text string) []Delegation {
	var out []Delegation
	out = append(out, d.detectMarkdown(text)...)
	out = append(out, d.detectTaskTool(text)...)
	return out
}

func (d *Detector) detectMarkdown(text string) []Delegation {
	matches := markdownHeader.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return nil
	}

	var out []Delegation
	for i, m := range matches {
		nameStart, nameEnd := m[2], m[3]
		bodyStart := m[1]

		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		if idx := strings.Index(text[bodyStart:bodyEnd], "\n\n"); idx >= 0 {
			bodyEnd = bodyStart + idx
		}
		if loc := taskTool.FindStringIndex(text[bodyStart:bodyEnd]); loc != nil {
			bodyEnd = bodyStart + loc[0]
		}

		name := text[nameStart:nameEnd]
		task := strings.TrimSpace(text[bodyStart:bodyEnd])
		if task == "" {
			continue
		}

		out = append(out, Delegation{
			Agent:  normalizeAgentName(name),
			Task:   task,
			Source: SourceDetectorMarkdown,
		})
	}
	return out
}

func (d *Detector) detectTaskTool(text string) []Delegation {
	matches := taskTool.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}

	var out []Delegation
	for _, m := range matches {
		description := strings.TrimSpace(m[1])
		if description == "" {
			continue
		}
		out = append(out, Delegation{
			Agent:  SuggestAgentForTask(description),
			Task:   description,
			Source: SourceDetectorTaskTool,
		})
	}
	return out
}
