package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/conversation"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/internal/ratelimit"
	"github.com/spec-kit/support-bot/internal/repository"
	apperrors "github.com/spec-kit/support-bot/pkg/util"
)

// IntakeService turns a completed wizard into a persisted ticket and
// gates wizard starts through the rate limiter.
type IntakeService struct {
	tickets    repository.TicketRepository
	limiter    *ratelimit.Limiter
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// IntakeDependencies bundles collaborators for the service.
type IntakeDependencies struct {
	TicketRepo repository.TicketRepository
	Limiter    *ratelimit.Limiter
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		tickets:    deps.TicketRepo,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// CheckAllowance asks the rate limiter whether identity may start a new
// ticket.
func (s *IntakeService) CheckAllowance(identity domain.Identity) ratelimit.Verdict {
	return s.limiter.CanCreate(identity)
}

// CreateFromWizard persists the ticket drafted by a completed wizard and
// commits the creation to the rate limiter.
func (s *IntakeService) CreateFromWizard(ctx context.Context, identity domain.Identity, state conversation.State) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		RequesterIdentity: identity.String(),
		RequesterName:     state.DisplayName,
		Corpus:            state.Corpus,
		Room:              state.Room,
		Problem:           state.Problem,
		Status:            domain.TicketStatusOpen,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.limiter.RecordCreation(identity)
	s.metrics.RecordTicketCreated()
	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("identity", identity.String()),
		zap.String("corpus", ticket.Corpus),
		zap.String("room", ticket.Room))

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    identity.String(),
		Payload: events.TicketCreatedPayload{
			Requester: identity,
			Name:      state.DisplayName,
			Corpus:    ticket.Corpus,
			Room:      ticket.Room,
			Problem:   ticket.Problem,
		},
	})
	return ticket, nil
}

func (s *IntakeService) publish(ctx context.Context, event events.Event) {
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
