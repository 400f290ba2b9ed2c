package events

import (
	"time"

	"github.com/spec-kit/support-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketSolved     EventType = "ticket_solved"
	EventTicketLongTerm   EventType = "ticket_long_term"
	EventTicketReopened   EventType = "ticket_reopened"
	EventTicketAssigned   EventType = "ticket_assigned"
	EventTicketUnassigned EventType = "ticket_unassigned"
	EventIdentityBanned   EventType = "identity_banned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Requester domain.Identity `json:"requester"`
	Name      string          `json:"name"`
	Corpus    string          `json:"corpus"`
	Room      string          `json:"room"`
	Problem   string          `json:"problem"`
}

// TicketSolvedPayload payload.
type TicketSolvedPayload struct {
	Solution  string `json:"solution"`
	AdminName string `json:"admin_name"`
}

// TicketLongTermPayload payload.
type TicketLongTermPayload struct {
	AdminName string `json:"admin_name"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AdminName string `json:"admin_name"`
}

// TicketUnassignedPayload payload.
type TicketUnassignedPayload struct {
	AdminName string `json:"admin_name"`
}

// IdentityBannedPayload payload.
type IdentityBannedPayload struct {
	Identity domain.Identity `json:"identity"`
	Reason   string          `json:"reason"`
}
