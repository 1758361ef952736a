// Package ticket implements the ticket extractor (spec component C3): it
// scans text line-by-line for TODO/BUG/FEATURE/FIXME/ISSUE/TASK/ENHANCEMENT
// markers and yields cleaned ticket records.
package ticket

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Type is the closed set of ticket kinds.
type Type string

const (
	TypeTask       Type = "task"
	TypeBug        Type = "bug"
	TypeFeature    Type = "feature"
	TypeIssue      Type = "issue"
	TypeEnhancement Type = "enhancement"
)

// Ticket is one extracted work item.
type Ticket struct {
	Type        Type
	Title       string
	Label       string
	RawLine     string
	ExtractedAt time.Time
	Description string
}

type patternEntry struct {
	re    *regexp.Regexp
	typ   Type
	label string
}

// patterns mirrors claude_mpm's ticket_extractor.py PATTERNS table exactly:
// order matters only in that a single line may match more than one pattern,
// each independently emitting a ticket.
var patterns = []patternEntry{
	{regexp.MustCompile(`(?i)TODO:\s*(.+)`), TypeTask, "todo"},
	{regexp.MustCompile(`(?i)TASK:\s*(.+)`), TypeTask, "task"},
	{regexp.MustCompile(`(?i)BUG:\s*(.+)`), TypeBug, "bug"},
	{regexp.MustCompile(`(?i)FIXME:\s*(.+)`), TypeBug, "fixme"},
	{regexp.MustCompile(`(?i)FEATURE:\s*(.+)`), TypeFeature, "feature"},
	{regexp.MustCompile(`(?i)ISSUE:\s*(.+)`), TypeIssue, "issue"},
	{regexp.MustCompile(`(?i)ENHANCEMENT:\s*(.+)`), TypeEnhancement, "enhancement"},
}

// Extractor accumulates extracted tickets across a session.
type Extractor struct {
	mu      sync.Mutex
	tickets []Ticket
}

// New returns an empty Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract scans a single line and returns every ticket found on it. A line
// may yield more than one ticket if more than one pattern matches.
func (e *Extractor) Extract(line string) []Ticket {
	var found []Ticket
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := cleanTitle(m[1])
		if title == "" {
			continue
		}
		t := Ticket{
			Type:        p.typ,
			Title:       title,
			Label:       p.label,
			RawLine:     line,
			ExtractedAt: time.Now(),
		}
		found = append(found, t)
	}

	if len(found) > 0 {
		e.mu.Lock()
		e.tickets = append(e.tickets, found...)
		e.mu.Unlock()
	}
	return found
}

// ExtractText scans multi-line text, splitting on newlines. Invariant (spec
// §8.1): ExtractText(t) always equals the concatenation of Extract(line)
// over every line of t.
func (e *Extractor) ExtractText(text string) []Ticket {
	var all []Ticket
	for _, line := range strings.Split(text, "\n") {
		all = append(all, e.Extract(line)...)
	}
	return all
}

// cleanTitle strips trailing punctuation, unwraps matching quotes, and
// collapses internal whitespace runs, matching ticket_extractor.py exactly.
func cleanTitle(title string) string {
	title = strings.TrimRight(title, ".,;:")
	if len(title) >= 2 {
		first, last := title[0], title[len(title)-1]
		if first == last && (first == '"' || first == '\'') {
			title = title[1 : len(title)-1]
		}
	}
	return strings.Join(strings.Fields(title), " ")
}

// AddTicket injects a ticket produced outside the line-scanning path (e.g.
// hook results). A ticket with no type or title is rejected. Missing
// ExtractedAt/Label are filled in.
func (e *Extractor) AddTicket(t Ticket) bool {
	if t.Type == "" || t.Title == "" {
		return false
	}
	if t.ExtractedAt.IsZero() {
		t.ExtractedAt = time.Now()
	}
	if t.Label == "" {
		t.Label = string(t.Type)
	}
	e.mu.Lock()
	e.tickets = append(e.tickets, t)
	e.mu.Unlock()
	return true
}

// All returns a snapshot of every ticket collected so far.
func (e *Extractor) All() []Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Ticket, len(e.tickets))
	copy(out, e.tickets)
	return out
}

// Clear discards all accumulated tickets.
func (e *Extractor) Clear() {
	e.mu.Lock()
	e.tickets = nil
	e.mu.Unlock()
}

// Summary returns ticket counts keyed by type.
func (e *Extractor) Summary() map[Type]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[Type]int)
	for _, t := range e.tickets {
		out[t.Type]++
	}
	return out
}
