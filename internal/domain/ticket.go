package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusLongTerm TicketStatus = "long_term"
	TicketStatusSolved   TicketStatus = "solved"
)

// Ticket is the aggregate for support requests raised through the bot.
type Ticket struct {
	ID                int64
	RequesterIdentity string
	RequesterName     string
	Corpus            string
	Room              string
	Problem           string
	Status            TicketStatus
	CreatedAt         time.Time
	SolvedAt          *time.Time
	AssignedAdmin     *string
	AssignedAdminName *string
	Solution          *string
}

// Assigned reports whether an admin currently holds this ticket.
func (t *Ticket) Assigned() bool {
	return t.AssignedAdmin != nil && *t.AssignedAdmin != ""
}
