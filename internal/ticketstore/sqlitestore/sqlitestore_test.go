package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateTicketPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	id, err := store.CreateTicket(context.Background(), "refactor auth.py", "task", "", "claude-mpm")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var title string
	row := store.db.QueryRow(`SELECT title FROM tickets WHERE id = ?`, id)
	require.NoError(t, row.Scan(&title))
	require.Equal(t, "refactor auth.py", title)
}

func TestCreateTicketRejectsEmptyTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.CreateTicket(context.Background(), "", "task", "", "claude-mpm")
	require.Error(t, err)
}
