package ticket

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTodoWithQuotesAndPunctuation(t *testing.T) {
	e := New()
	got := e.Extract(`TODO: 'refactor auth.py'.`)
	require.Len(t, got, 1)
	assert.Equal(t, TypeTask, got[0].Type)
	assert.Equal(t, "refactor auth.py", got[0].Title)
	assert.Equal(t, "todo", got[0].Label)
}

func TestExtractAllPatternTypes(t *testing.T) {
	e := New()
	cases := map[string]Type{
		"TODO: a":        TypeTask,
		"TASK: b":        TypeTask,
		"BUG: c":         TypeBug,
		"FIXME: d":       TypeBug,
		"FEATURE: e":     TypeFeature,
		"ISSUE: f":       TypeIssue,
		"ENHANCEMENT: g": TypeEnhancement,
	}
	for line, want := range cases {
		got := e.Extract(line)
		require.Lenf(t, got, 1, "line %q", line)
		assert.Equal(t, want, got[0].Type, line)
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	e := New()
	got := e.Extract("todo: lowercase works")
	require.Len(t, got, 1)
	assert.Equal(t, "lowercase works", got[0].Title)
}

func TestExtractRejectsEmptyTitleAfterCleaning(t *testing.T) {
	e := New()
	got := e.Extract(`TODO: "";`)
	assert.Empty(t, got)
}

func TestExtractTextMatchesPerLineExtract(t *testing.T) {
	e1 := New()
	e2 := New()
	text := "TODO: one\nsome noise\nBUG: two\n"

	fromText := e1.ExtractText(text)

	var fromLines []Ticket
	for _, line := range strings.Split(text, "\n") {
		fromLines = append(fromLines, e2.Extract(line)...)
	}

	require.Len(t, fromText, len(fromLines))
	for i := range fromText {
		assert.Equal(t, fromLines[i].Title, fromText[i].Title)
		assert.Equal(t, fromLines[i].Type, fromText[i].Type)
	}
}

func TestAddTicketRejectsMissingFields(t *testing.T) {
	e := New()
	assert.False(t, e.AddTicket(Ticket{Title: "no type"}))
	assert.False(t, e.AddTicket(Ticket{Type: TypeBug}))
	assert.True(t, e.AddTicket(Ticket{Type: TypeBug, Title: "has both"}))
}

func TestAddTicketFillsDefaults(t *testing.T) {
	e := New()
	e.AddTicket(Ticket{Type: TypeFeature, Title: "x"})
	all := e.All()
	require.Len(t, all, 1)
	assert.Equal(t, "feature", all[0].Label)
	assert.False(t, all[0].ExtractedAt.IsZero())
}

func TestSummaryCountsByType(t *testing.T) {
	e := New()
	e.Extract("TODO: a")
	e.Extract("BUG: b")
	e.Extract("BUG: c")
	summary := e.Summary()
	assert.Equal(t, 1, summary[TypeTask])
	assert.Equal(t, 2, summary[TypeBug])
}

func TestClearEmptiesTickets(t *testing.T) {
	e := New()
	e.Extract("TODO: a")
	e.Clear()
	assert.Empty(t, e.All())
}

func TestExtractAccumulatesTicketsInCallOrder(t *testing.T) {
	// Extractor state accumulates across Extract calls, in call order.
	e := New()
	e.Extract("TODO: first")
	e.Extract("FEATURE: second")
	all := e.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Title)
	assert.Equal(t, "second", all[1].Title)
}
