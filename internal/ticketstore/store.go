// Package ticketstore defines the external ticket-store collaborator
// interface spec §6 names ("create_ticket(title, ticket_type, description,
// source) -> id") plus two reference implementations used by the standalone
// binary and by tests so the extractor -> session -> store pipeline is
// exercisable without an external process.
package ticketstore

import "context"

// Store creates tickets in an external tracking system, consumed by ID.
// Implementations must never block the orchestrator's cleanup path longer
// than necessary; callers are responsible for logging and continuing past
// errors per spec §7.
type Store interface {
	CreateTicket(ctx context.Context, title, ticketType, description, source string) (id string, err error)
}
