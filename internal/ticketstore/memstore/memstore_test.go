package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTicketStoresRecord(t *testing.T) {
	s := New()
	id, err := s.CreateTicket(context.Background(), "Add rate limiting", "task", "", "claude-mpm")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Add rate limiting", all[0].Title)
	assert.Equal(t, "task", all[0].Type)
}

func TestCreateTicketRejectsEmptyTitle(t *testing.T) {
	s := New()
	_, err := s.CreateTicket(context.Background(), "", "task", "", "claude-mpm")
	assert.Error(t, err)
}
