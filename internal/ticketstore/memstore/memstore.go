// Package memstore is an in-memory ticketstore.Store used by tests and as
// the default when no sqlite path is configured.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Record is one stored ticket.
type Record struct {
	ID          string
	Title       string
	Type        string
	Description string
	Source      string
}

// Store is a mutex-guarded in-memory ticket store.
type Store struct {
	mu      sync.Mutex
	records []Record
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// CreateTicket implements ticketstore.Store.
func (s *Store) CreateTicket(_ context.Context, title, ticketType, description, source string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("memstore: title required")
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.records = append(s.records, Record{ID: id, Title: title, Type: ticketType, Description: description, Source: source})
	s.mu.Unlock()
	return id, nil
}

// All returns a snapshot of every stored ticket, for tests and introspection.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
