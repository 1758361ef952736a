package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpm/internal/config"
	"mpm/internal/framework"
	"mpm/internal/hookclient"
	"mpm/internal/hookclient/testdouble"
	"mpm/internal/ticket"
	"mpm/internal/ticketstore/memstore"
)

func TestStripANSIRemovesEscapeSequences(t *testing.T) {
	got := stripANSI("\x1b[32mhello\x1b[0m world")
	assert.Equal(t, "hello world", got)
}

func TestStripANSIPassesPlainTextThrough(t *testing.T) {
	assert.Equal(t, "no escapes here", stripANSI("no escapes here"))
}

func TestTicketFromHookDataDefaultsTypeToTask(t *testing.T) {
	got := ticketFromHookData(map[string]interface{}{"title": "Fix the thing"})
	assert.Equal(t, ticket.TypeTask, got.Type)
	assert.Equal(t, "Fix the thing", got.Title)
}

func TestTicketFromHookDataReadsAllFields(t *testing.T) {
	got := ticketFromHookData(map[string]interface{}{
		"title":       "Add caching",
		"type":        "feature",
		"description": "speeds up reads",
		"label":       "perf",
	})
	assert.Equal(t, ticket.TypeFeature, got.Type)
	assert.Equal(t, "speeds up reads", got.Description)
	assert.Equal(t, "perf", got.Label)
}

func newTestBase(t *testing.T, hooks *hookclient.Client) *Base {
	t.Helper()
	fw := framework.NewLoader("", "")
	store := memstore.New()
	return NewBase(config.Default(), nil, fw, hooks, nil, nil, store, t.TempDir(), "test")
}

func TestProcessOutputLineExtractsTickets(t *testing.T) {
	b := newTestBase(t, nil)
	found := b.ProcessOutputLine(context.Background(), "TODO: write more tests")
	require.Len(t, found, 1)
	assert.Equal(t, ticket.TypeTask, found[0].Type)
	assert.Equal(t, "write more tests", found[0].Title)
}

func TestCreateTicketsPersistsExtractedTickets(t *testing.T) {
	b := newTestBase(t, nil)
	b.Session.Extractor().Extract("BUG: login crashes")
	b.Session.Extractor().Extract("FEATURE: dark mode")

	created := b.CreateTickets(context.Background())
	assert.Equal(t, 2, created)
}

func TestCreateTicketsReturnsZeroWithoutStore(t *testing.T) {
	b := newTestBase(t, nil)
	b.Store = nil
	b.Session.Extractor().Extract("BUG: oops")

	assert.Equal(t, 0, b.CreateTickets(context.Background()))
}

func TestGetFrameworkInstructionsFallsBackWithoutHooks(t *testing.T) {
	b := newTestBase(t, nil)
	assert.NotEmpty(t, b.GetFrameworkInstructions(context.Background()))
}

func TestGetFrameworkInstructionsUsesHookModifiedText(t *testing.T) {
	srv := testdouble.New()
	defer srv.Close()
	srv.OnStage("pre_delegation", func(ctx map[string]interface{}) []map[string]interface{} {
		return []map[string]interface{}{
			{
				"success":  true,
				"modified": true,
				"data":     map[string]interface{}{"framework_instructions": "rewritten by hook"},
			},
		}
	})

	b := newTestBase(t, hookclient.New(srv.URL(), time.Second))
	got := b.GetFrameworkInstructions(context.Background())
	assert.Equal(t, "rewritten by hook", got)
	assert.Equal(t, 1, srv.CallCount("pre_delegation"))
}

func TestCleanupFiresSubmitHookWithAggregateStats(t *testing.T) {
	srv := testdouble.New()
	defer srv.Close()

	b := newTestBase(t, hookclient.New(srv.URL(), time.Second))
	b.Session.Extractor().Extract("TODO: wire up the dashboard")

	_, err := b.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, srv.CallCount("submit"))
}

func TestDrainHijackerDelegationsNilHijackerReturnsNil(t *testing.T) {
	b := newTestBase(t, nil)
	assert.Nil(t, b.DrainHijackerDelegations())
}

func TestCleanupWritesSessionLogAndReturnsPath(t *testing.T) {
	b := newTestBase(t, nil)
	b.Session.Extractor().Extract("TASK: ship the release")

	path, err := b.Cleanup()
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}
