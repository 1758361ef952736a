package delegation

import (
	"regexp"
	"sort"
	"strings"
)

func toLowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// agentScore is one candidate produced by scoreAgents.
type agentScore struct {
	agent   Agent
	score   float64
	matched []string
}

// wordBoundary caches compiled single-word regexes; keywords are a small
// fixed table so this never grows unbounded.
var wordBoundaryCache = map[string]*regexp.Regexp{}

func wordBoundaryRe(keyword string) *regexp.Regexp {
	if re, ok := wordBoundaryCache[keyword]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	wordBoundaryCache[keyword] = re
	return re
}

// scoreAgents implements the §3/§4.5 AgentKeywordTable scoring: sort
// keywords by length descending, multi-word keywords match by substring
// (weight words*0.5+1.0), single-word keywords match by word boundary
// (weight 1.0); normalized score = (sum of matched weights)/3.0 * priority/10.
func scoreAgents(taskLower string) []agentScore {
	var scores []agentScore

	for _, entry := range keywordTable {
		keywords := make([]string, len(entry.keywords))
		copy(keywords, entry.keywords)
		sort.Slice(keywords, func(i, j int) bool { return len(keywords[i]) > len(keywords[j]) })

		var matched []string
		weight := 0.0
		for _, kw := range keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(taskLower, kw) {
					matched = append(matched, kw)
					weight += float64(len(strings.Fields(kw)))*0.5 + 1.0
				}
				continue
			}
			if wordBoundaryRe(kw).MatchString(taskLower) {
				matched = append(matched, kw)
				weight += 1.0
			}
		}

		if len(matched) == 0 {
			continue
		}

		normalized := weight / 3.0 * (float64(entry.priority) / 10.0)
		scores = append(scores, agentScore{agent: entry.agent, score: normalized, matched: matched})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	return scores
}

// bestAgent returns the top-scoring agent and its confidence (score capped
// at 1.0), or ok=false if no keyword matched anything.
func bestAgent(task string) (agent Agent, confidence float64, ok bool) {
	scores := scoreAgents(strings.ToLower(task))
	if len(scores) == 0 {
		return "", 0, false
	}
	best := scores[0]
	confidence = best.score
	if confidence > 1.0 {
		confidence = 1.0
	}
	return best.agent, confidence, true
}

// SuggestAgentForTask implements §4.4's suggest_agent_for_task: same
// keyword table as the transformer, defaulting to AgentEngineer when no
// keyword hits (unlike Transform, which returns nil instead of defaulting).
func SuggestAgentForTask(task string) Agent {
	if agent, _, ok := bestAgent(task); ok {
		return agent
	}
	return AgentEngineer
}
