// Package skills implements the three-tier skills registry/manager (spec
// component C13): bundled, user, and project skill definitions are merged
// by filename (later tiers override earlier ones of the same name) and can
// be appended onto an agent's prompt.
package skills

import "time"

// Tier identifies which overlay a skill was loaded from. Later tiers in
// this order override a same-named skill from an earlier tier.
type Tier string

const (
	TierBundled Tier = "bundled"
	TierUser    Tier = "user"
	TierProject Tier = "project"
)

// Skill is a named markdown capability description, optionally scoped to a
// set of agent types.
type Skill struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Body        string   `json:"-"`
	AgentTypes  []string `json:"agent_types,omitempty"`
	Source      Tier     `json:"source"`
	FilePath    string   `json:"-"`
	LoadedAt    time.Time `json:"-"`
}

// AppliesTo reports whether the skill applies to the given agent type. A
// skill with no AgentTypes applies to every agent, per spec §4.13.
func (s *Skill) AppliesTo(agentType string) bool {
	if len(s.AgentTypes) == 0 {
		return true
	}
	for _, a := range s.AgentTypes {
		if a == agentType {
			return true
		}
	}
	return false
}

// AgentMapping is the persisted per-agent skills assignment
// (agent_id/agent_type → skill names), loaded from per-agent JSON templates
// and optionally overridden by a user-specific mapping file.
type AgentMapping struct {
	AgentID   string   `json:"agent_id,omitempty"`
	AgentType string   `json:"agent_type,omitempty"`
	Skills    []string `json:"skills"`
}

func (m *AgentMapping) key() string {
	if m.AgentType != "" {
		return m.AgentType
	}
	return m.AgentID
}
