package session

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpm/internal/delegation"
	"mpm/internal/orchestrator"
	"mpm/internal/ticket"
)

func TestSortedKeysOrdersByStringForm(t *testing.T) {
	m := map[ticket.Type]int{ticket.TypeTask: 1, ticket.TypeBug: 2, ticket.TypeFeature: 1}
	keys := sortedKeys(m, func(typ ticket.Type) string { return string(typ) })
	assert.Equal(t, []ticket.Type{ticket.TypeBug, ticket.TypeFeature, ticket.TypeTask}, keys)
}

func TestPrintSummaryReportsTicketAndDelegationCounts(t *testing.T) {
	sess := orchestrator.NewSessionState()
	sess.Extractor().Extract("BUG: crash on startup")
	sess.RecordDelegations([]delegation.Delegation{{Agent: delegation.AgentEngineer, Task: "fix it"}})

	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	printSummary(sess)
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Tickets extracted: 1")
	assert.Contains(t, out, "bug: 1")
	assert.Contains(t, out, "Delegations: 1")
	assert.Contains(t, out, "engineer: 1")
}
