package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/repository"
	apperrors "github.com/spec-kit/support-bot/pkg/util"
)

// LifecycleService owns ticket status transitions and assignment
// exclusivity.
type LifecycleService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the service.
type LifecycleDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

// Solve closes a ticket from open or long_term with the given solution.
func (s *LifecycleService) Solve(ctx context.Context, id int64, solution string, admin domain.Identity, adminName string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusSolved {
		return nil, apperrors.NewConflict("ticket already solved", map[string]any{"ticket_id": id})
	}

	at := s.now()
	if err := s.tickets.MarkSolved(ctx, id, solution, admin.String(), adminName, at); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Status = domain.TicketStatusSolved
	ticket.SolvedAt = &at
	adminID := admin.String()
	ticket.AssignedAdmin = &adminID
	ticket.AssignedAdminName = &adminName
	ticket.Solution = &solution

	s.publish(ctx, events.Event{
		Type:     events.EventTicketSolved,
		TicketID: id,
		Actor:    admin.String(),
		Payload:  events.TicketSolvedPayload{Solution: solution, AdminName: adminName},
	})
	return ticket, nil
}

// MarkLongTerm moves an open ticket to the long-term branch.
func (s *LifecycleService) MarkLongTerm(ctx context.Context, id int64, admin domain.Identity, adminName string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusOpen {
		return nil, apperrors.NewConflict("only open tickets can be marked long-term", map[string]any{"ticket_id": id})
	}

	at := s.now()
	if err := s.tickets.MarkLongTerm(ctx, id, admin.String(), adminName, at); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Status = domain.TicketStatusLongTerm
	ticket.SolvedAt = &at
	adminID := admin.String()
	ticket.AssignedAdmin = &adminID
	ticket.AssignedAdminName = &adminName

	s.publish(ctx, events.Event{
		Type:     events.EventTicketLongTerm,
		TicketID: id,
		Actor:    admin.String(),
		Payload:  events.TicketLongTermPayload{AdminName: adminName},
	})
	return ticket, nil
}

// Reopen returns a solved ticket to open, clearing the solve record.
func (s *LifecycleService) Reopen(ctx context.Context, id int64, admin domain.Identity) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusSolved {
		return nil, apperrors.NewConflict("only solved tickets can be reopened", map[string]any{"ticket_id": id})
	}

	if err := s.tickets.Reopen(ctx, id); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.SolvedAt = nil
	ticket.AssignedAdmin = nil
	ticket.AssignedAdminName = nil
	ticket.Solution = nil

	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: id,
		Actor:    admin.String(),
	})
	return ticket, nil
}

// Assign gives an unassigned open ticket to the requesting admin. An admin
// may hold at most one non-terminal assignment; a blocking ticket id is
// surfaced in the error details.
func (s *LifecycleService) Assign(ctx context.Context, id int64, admin domain.Identity, adminName string) (*domain.Ticket, error) {
	active, err := s.tickets.FindActiveByAssignee(ctx, admin.String())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if active != nil {
		return nil, apperrors.NewConflict("admin already holds an active ticket", map[string]any{"active_ticket_id": active.ID})
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusOpen {
		return nil, apperrors.NewConflict("only open tickets can be assigned", map[string]any{"ticket_id": id})
	}
	if ticket.Assigned() {
		return nil, apperrors.NewConflict("ticket already assigned", map[string]any{"ticket_id": id})
	}

	won, err := s.tickets.AssignIfUnassigned(ctx, id, admin.String(), adminName)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !won {
		return nil, apperrors.NewConflict("ticket already assigned", map[string]any{"ticket_id": id})
	}
	adminID := admin.String()
	ticket.AssignedAdmin = &adminID
	ticket.AssignedAdminName = &adminName

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: id,
		Actor:    admin.String(),
		Payload:  events.TicketAssignedPayload{AdminName: adminName},
	})
	return ticket, nil
}

// Unassign releases a ticket held by the requesting admin.
func (s *LifecycleService) Unassign(ctx context.Context, id int64, admin domain.Identity, adminName string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.Assigned() || *ticket.AssignedAdmin != admin.String() {
		return nil, apperrors.NewForbidden("ticket is not assigned to you")
	}
	if ticket.Status == domain.TicketStatusSolved {
		return nil, apperrors.NewConflict("solved tickets cannot be unassigned", map[string]any{"ticket_id": id})
	}

	released, err := s.tickets.Unassign(ctx, id, admin.String())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !released {
		return nil, apperrors.NewConflict("ticket could not be unassigned", map[string]any{"ticket_id": id})
	}
	ticket.AssignedAdmin = nil
	ticket.AssignedAdminName = nil

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUnassigned,
		TicketID: id,
		Actor:    admin.String(),
		Payload:  events.TicketUnassignedPayload{AdminName: adminName},
	})
	return ticket, nil
}

func (s *LifecycleService) getTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
