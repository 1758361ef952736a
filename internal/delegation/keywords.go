// Package delegation implements the delegation detector (spec component C4)
// and the TODO transformer (spec component C5): turning PM output or TODO
// records into agent delegations.
package delegation

// Agent is a normalized, canonical agent identifier.
type Agent string

const (
	AgentEngineer       Agent = "engineer"
	AgentQA             Agent = "qa"
	AgentDocumentation  Agent = "documentation"
	AgentResearch       Agent = "research"
	AgentSecurity       Agent = "security"
	AgentOps            Agent = "ops"
	AgentVersionControl Agent = "version-control"
	AgentDataEngineer   Agent = "data-engineer"
)

// keywordEntry is one row of the AgentKeywordTable.
type keywordEntry struct {
	agent    Agent
	keywords []string
	priority int
}

// keywordTable mirrors todo_transformer.py's AGENT_KEYWORDS exactly, with
// canonical agent names normalized to the dash/lowercase form used
// throughout this package.
var keywordTable = []keywordEntry{
	{
		agent: AgentEngineer,
		keywords: []string{
			"code", "implement", "function", "class", "api", "develop",
			"create", "build", "write", "script", "algorithm",
			"refactor", "optimize code", "debug", "fix bug",
		},
		priority: 8,
	},
	{
		agent: AgentQA,
		keywords: []string{
			"unit test", "unit tests", "integration test", "test", "testing",
			"validate", "verify", "check", "quality", "qa", "coverage",
			"pytest", "assertion", "mock", "fixture",
		},
		priority: 9,
	},
	{
		agent: AgentDocumentation,
		keywords: []string{
			"api documentation", "document", "docs", "readme", "changelog",
			"comment", "docstring", "documentation", "guide", "tutorial",
			"explain", "description", "wiki", "manual",
		},
		priority: 9,
	},
	{
		agent: AgentResearch,
		keywords: []string{
			"research", "investigate", "analyze", "study", "explore",
			"find out", "look into", "understand", "learn", "compare",
			"evaluate", "assess", "review",
		},
		priority: 5,
	},
	{
		agent: AgentSecurity,
		keywords: []string{
			"security", "vulnerability", "auth", "authorization",
			"authentication", "encrypt", "decrypt", "permission",
			"access control", "token", "password", "secure",
		},
		priority: 9,
	},
	{
		agent: AgentOps,
		keywords: []string{
			"deploy", "deployment", "ci/cd", "pipeline", "docker",
			"kubernetes", "container", "infrastructure", "devops",
			"build", "release", "publish", "package",
		},
		priority: 4,
	},
	{
		agent: AgentVersionControl,
		keywords: []string{
			"git branch", "git", "branch", "merge", "commit", "version", "tag",
			"release", "cherry-pick", "rebase", "pull request",
			"github", "gitlab",
		},
		priority: 7,
	},
	{
		agent: AgentDataEngineer,
		keywords: []string{
			"database", "data", "sql", "query", "migration", "schema",
			"table", "index", "api integration", "openai", "claude api",
			"data pipeline", "etl", "analytics", "redis", "mongodb",
		},
		priority: 7,
	},
}

// ticketTypeMapping implements transform_pm_ticket's explicit type→agent
// table, checked before falling back to keyword scoring.
var ticketTypeMapping = []struct {
	substr string
	agent  Agent
}{
	{"feature", AgentEngineer},
	{"bug", AgentEngineer},
	{"test", AgentQA},
	{"docs", AgentDocumentation},
	{"research", AgentResearch},
	{"security", AgentSecurity},
	{"deployment", AgentOps},
	{"infrastructure", AgentOps},
	{"data", AgentDataEngineer},
}

// nameAliases is the normalization table from §4.4: case-insensitive input
// to canonical agent name.
var nameAliases = map[string]Agent{
	"doc":         AgentDocumentation,
	"docs":        AgentDocumentation,
	"documenter":  AgentDocumentation,
	"documentation": AgentDocumentation,
	"eng":         AgentEngineer,
	"dev":         AgentEngineer,
	"developer":   AgentEngineer,
	"engineer":    AgentEngineer,
	"test":        AgentQA,
	"testing":     AgentQA,
	"quality":     AgentQA,
	"qa":          AgentQA,
	"researcher":  AgentResearch,
	"investigate": AgentResearch,
	"research":    AgentResearch,
	"devops":      AgentOps,
	"operations":  AgentOps,
	"ops":         AgentOps,
	"sec":         AgentSecurity,
	"security":    AgentSecurity,
	"git":         AgentVersionControl,
	"vcs":         AgentVersionControl,
	"versioner":   AgentVersionControl,
	"version-control": AgentVersionControl,
	"data":        AgentDataEngineer,
	"database":    AgentDataEngineer,
	"data-engineer": AgentDataEngineer,
}

// normalizeAgentName resolves an alias (or a name already canonical) to its
// canonical Agent value. Unknown names pass through lower-cased.
func normalizeAgentName(name string) Agent {
	lower := toLowerTrim(name)
	if canonical, ok := nameAliases[lower]; ok {
		return canonical
	}
	return Agent(lower)
}
