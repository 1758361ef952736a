// Package framework loads the "framework instructions" string injected into
// the PM CLI (spec component C2): the bundled template, any working
// directory override, and the tiered agent-definition tree.
package framework

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"mpm/pkg/logger"
)

// Content holds everything discovered while loading the framework.
type Content struct {
	Agents               map[string]string
	Version              string
	Loaded               bool
	WorkingOverride       string
	FrameworkInstructions string
	LastModified          string
}

// Loader discovers and assembles framework instructions.
type Loader struct {
	// FrameworkRoot is the claude-mpm checkout root (contains
	// src/claude_mpm/agents); empty means "not found".
	FrameworkRoot string
	// AgentsDirOverride, if set, always wins over tiered discovery.
	AgentsDirOverride string
	// WorkingDir is the directory INSTRUCTIONS.md/CLAUDE.md overrides are
	// read from; defaults to the process's current directory.
	WorkingDir string

	content *Content
}

const agentsMarker = filepath.Join("src", "claude_mpm", "agents")

// NewLoader builds a Loader, auto-detecting the framework root unless
// explicitRoot is given.
func NewLoader(explicitRoot, agentsDirOverride string) *Loader {
	wd, _ := os.Getwd()
	root := explicitRoot
	if root == "" {
		root = detectFrameworkRoot()
	}
	return &Loader{FrameworkRoot: root, AgentsDirOverride: agentsDirOverride, WorkingDir: wd}
}

// detectFrameworkRoot walks up from the running executable looking for a
// "claude-mpm" directory containing src/claude_mpm/agents, then falls back
// to ~/Projects/claude-mpm and ./claude-mpm.
func detectFrameworkRoot() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for {
			if filepath.Base(dir) == "claude-mpm" {
				if dirExists(filepath.Join(dir, agentsMarker)) {
					return dir
				}
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, "Projects", "claude-mpm")
		if dirExists(filepath.Join(candidate, agentsMarker)) {
			return candidate
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, "claude-mpm")
		if dirExists(filepath.Join(candidate, agentsMarker)) {
			return candidate
		}
	}

	logger.Warn().Msg("framework not found, will use minimal instructions")
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// discoverAgentsDir prioritizes templates over the main agents directory,
// requiring at least one *.md file to be present, per §4.2 step 2.
func (l *Loader) discoverAgentsDir() (agentsDir, templatesDir, mainDir string) {
	if l.AgentsDirOverride != "" && dirExists(l.AgentsDirOverride) {
		return l.AgentsDirOverride, "", ""
	}
	if l.FrameworkRoot == "" {
		return "", "", ""
	}

	mainDir = filepath.Join(l.FrameworkRoot, agentsMarker)
	templatesDir = filepath.Join(mainDir, "templates")

	if hasMarkdown(templatesDir) {
		return templatesDir, templatesDir, mainDir
	}
	if hasMarkdown(mainDir) {
		return mainDir, templatesDir, mainDir
	}
	return "", templatesDir, mainDir
}

func hasMarkdown(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	return err == nil && len(matches) > 0
}

var frameworkVersionRe = regexp.MustCompile(`<!-- FRAMEWORK_VERSION: (\d+) -->`)
var lastModifiedRe = regexp.MustCompile(`<!-- LAST_MODIFIED: ([^>]+) -->`)

// tryLoadFile reads path, logging and returning "" on failure. version/lastModified
// out-params are only populated when isInstructions is true, matching
// _try_load_file's "only the main INSTRUCTIONS.md updates framework_version"
// rule.
func tryLoadFile(path string, isInstructions bool, version, lastModified *string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debugf("failed to load %s: %v", path, err)
		return ""
	}
	content := string(data)

	if isInstructions {
		if m := frameworkVersionRe.FindStringSubmatch(content); m != nil {
			*version = m[1]
		}
		if m := lastModifiedRe.FindStringSubmatch(content); m != nil {
			*lastModified = strings.TrimSpace(m[1])
		}
	}
	return content
}

// loadInstructionsFile loads the working-directory override: INSTRUCTIONS.md
// preferred, falling back to the legacy CLAUDE.md name.
func (l *Loader) loadInstructionsFile() string {
	instructions := filepath.Join(l.WorkingDir, "INSTRUCTIONS.md")
	if fileExists(instructions) {
		var v, lm string
		return tryLoadFile(instructions, false, &v, &lm)
	}

	legacy := filepath.Join(l.WorkingDir, "CLAUDE.md")
	if fileExists(legacy) {
		var v, lm string
		return tryLoadFile(legacy, false, &v, &lm)
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// loadSingleAgent reads one agent markdown file, skipping README (any case).
func loadSingleAgent(path string) (name, content string, ok bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(stem, "README") {
		return "", "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Errorf("failed to load agent %s: %v", path, err)
		return "", "", false
	}
	return stem, string(data), true
}

// loadAgentsDirectory loads every *.md in agentsDir into content.Agents, and
// (when agentsDir is the templates dir) falls back to loading base_agent.md
// from mainDir if it wasn't already picked up.
func loadAgentsDirectory(content *Content, agentsDir, templatesDir, mainDir string) {
	if agentsDir == "" {
		return
	}
	content.Loaded = true

	matches, _ := filepath.Glob(filepath.Join(agentsDir, "*.md"))
	for _, m := range matches {
		if name, body, ok := loadSingleAgent(m); ok {
			content.Agents[name] = body
		}
	}

	if agentsDir == templatesDir && mainDir != "" {
		if _, exists := content.Agents["base_agent"]; !exists {
			baseAgent := filepath.Join(mainDir, "base_agent.md")
			if fileExists(baseAgent) {
				if name, body, ok := loadSingleAgent(baseAgent); ok {
					content.Agents[name] = body
				}
			}
		}
	}
}

// Load assembles framework content exactly once and caches it.
func (l *Loader) Load() *Content {
	if l.content != nil {
		return l.content
	}

	content := &Content{Agents: map[string]string{}, Version: "unknown"}
	content.WorkingOverride = l.loadInstructionsFile()

	if l.FrameworkRoot != "" {
		instructionsPath := filepath.Join(l.FrameworkRoot, agentsMarker, "INSTRUCTIONS.md")
		if fileExists(instructionsPath) {
			var version, lastModified string
			if body := tryLoadFile(instructionsPath, true, &version, &lastModified); body != "" {
				content.FrameworkInstructions = body
				content.Loaded = true
				if version != "" {
					content.Version = version
				}
				content.LastModified = lastModified
			}
		}
	}

	agentsDir, templatesDir, mainDir := l.discoverAgentsDir()
	loadAgentsDirectory(content, agentsDir, templatesDir, mainDir)

	l.content = content
	return content
}

// FrameworkInstructions returns the full injection string: full framework
// (if anything was loaded) or the compact minimal fallback otherwise.
func (l *Loader) FrameworkInstructions() string {
	content := l.Load()
	if content.Loaded || content.WorkingOverride != "" {
		return formatFullFramework(content)
	}
	return minimalFramework
}

// AgentNames returns every loaded agent's identifier, sorted.
func (l *Loader) AgentNames() []string {
	content := l.Load()
	names := make([]string, 0, len(content.Agents))
	for name := range content.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AgentDefinition returns the raw markdown for one agent, if loaded.
func (l *Loader) AgentDefinition(name string) (string, bool) {
	content := l.Load()
	body, ok := content.Agents[name]
	return body, ok
}

// SatisfiesMinVersion reports whether the loaded FRAMEWORK_VERSION marker
// meets minVersion. FRAMEWORK_VERSION is a bare integer (e.g. "7"), coerced
// to "N.0.0" so it can be compared as a semantic version; an unparsed or
// missing version is treated as not satisfying any constraint.
func (l *Loader) SatisfiesMinVersion(minVersion string) bool {
	content := l.Load()
	if content.Version == "" || content.Version == "unknown" {
		return false
	}

	current, err := semver.NewVersion(content.Version + ".0.0")
	if err != nil {
		return false
	}
	floor, err := semver.NewVersion(minVersion)
	if err != nil {
		return false
	}
	return !current.LessThan(floor)
}
