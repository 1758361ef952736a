package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Registry holds the merged skill overlay and the agent→skills mapping.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	skills   map[string]*Skill // name -> skill, last tier loaded wins
	mappings map[string][]string
}

// Dirs names the user and project tier directories to scan, in override
// order (bundled, embedded in the binary, is always loaded first; project
// is loaded last and wins ties).
type Dirs struct {
	User    string
	Project string
}

// NewRegistry loads the embedded bundled tier, then scans the user and
// project tiers and returns a populated registry.
func NewRegistry(dirs Dirs) (*Registry, error) {
	r := &Registry{
		skills:   make(map[string]*Skill),
		mappings: make(map[string][]string),
	}

	bundled, err := ScanBundled()
	if err != nil {
		return nil, fmt.Errorf("scan bundled tier: %w", err)
	}
	for _, s := range bundled {
		r.skills[s.Name] = s
	}

	for _, t := range []struct {
		dir  string
		tier Tier
	}{
		{dirs.User, TierUser},
		{dirs.Project, TierProject},
	} {
		if t.dir == "" {
			continue
		}
		loaded, err := ScanTier(t.dir, t.tier)
		if err != nil {
			return nil, fmt.Errorf("scan %s tier: %w", t.tier, err)
		}
		for _, s := range loaded {
			r.skills[s.Name] = s
		}
	}
	return r, nil
}

// GetSkill returns the skill with the given name.
func (r *Registry) GetSkill(name string) (*Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[name]
	if !ok {
		return nil, ErrSkillNotFound
	}
	return s, nil
}

// ListSkills returns every loaded skill, optionally filtered to one source
// tier. Results are sorted by name for deterministic output.
func (r *Registry) ListSkills(source Tier) []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Skill
	for _, s := range r.skills {
		if source != "" && s.Source != source {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetSkillsForAgent returns every skill applicable to agentType: an explicit
// mapping entry if one exists, else every skill whose AgentTypes is empty or
// contains agentType.
func (r *Registry) GetSkillsForAgent(agentType string) []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if names, ok := r.mappings[agentType]; ok {
		var out []*Skill
		for _, name := range names {
			if s, ok := r.skills[name]; ok {
				out = append(out, s)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	}

	var out []*Skill
	for _, s := range r.skills {
		if s.AppliesTo(agentType) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadAgentMapping merges a JSON mapping file (agent_id/agent_type +
// skills) into the registry's agent→skills table.
func (r *Registry) LoadAgentMapping(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var one AgentMapping
	var many []AgentMapping
	if err := json.Unmarshal(data, &many); err != nil {
		if err := json.Unmarshal(data, &one); err != nil {
			return fmt.Errorf("%w: %v", ErrMappingInvalid, err)
		}
		many = []AgentMapping{one}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range many {
		if m.key() == "" {
			continue
		}
		r.mappings[m.key()] = m.Skills
	}
	return nil
}

// SaveAgentMapping persists the current agent→skills table for one agent to
// a user-specific mapping JSON file.
func (r *Registry) SaveAgentMapping(path, agentType string) error {
	r.mu.RLock()
	m := AgentMapping{AgentType: agentType, Skills: append([]string(nil), r.mappings[agentType]...)}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnhanceAgentPrompt appends a delimited "Available Skills" section listing
// every applicable skill's name, source tier, description, and raw body to
// basePrompt. If includeAll is true every loaded skill is listed regardless
// of agent-type scoping.
func (r *Registry) EnhanceAgentPrompt(agentType, basePrompt string, includeAll bool) string {
	var applicable []*Skill
	if includeAll {
		applicable = r.ListSkills("")
	} else {
		applicable = r.GetSkillsForAgent(agentType)
	}
	if len(applicable) == 0 {
		return basePrompt
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n## \U0001F3AF Available Skills\n\n")
	for _, s := range applicable {
		fmt.Fprintf(&b, "### %s (%s)\n%s\n\n%s\n\n", s.Name, s.Source, s.Description, s.Body)
	}
	return b.String()
}
