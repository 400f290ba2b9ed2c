package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/channel"
	"github.com/spec-kit/support-bot/internal/events"
)

// NotificationService forwards ticket-lifecycle events to the configured
// escalation channel target. Without a target it degrades to a logged
// no-op; delivery failures are logged and never propagate, so a persisted
// transition is never rolled back over a failed notification.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     channel.Sender
	target     string
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender channel.Sender, escalationTarget string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		target:     escalationTarget,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketSolved, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketLongTerm, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketReopened, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketUnassigned, n.handleEvent)
	n.dispatcher.Subscribe(events.EventIdentityBanned, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	text := renderEvent(event)
	if text == "" {
		return nil
	}
	n.Notify(ctx, text)
	return nil
}

// Notify sends one text to the escalation target, best-effort.
func (n *NotificationService) Notify(ctx context.Context, text string) {
	if n.target == "" {
		n.logger.Warn("no escalation target configured; dropping notification", zap.String("text", text))
		return
	}
	if err := n.sender.SendText(ctx, n.target, text); err != nil {
		n.logger.Error("escalation notification failed", zap.String("target", n.target), zap.Error(err))
	}
}

func renderEvent(event events.Event) string {
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return fmt.Sprintf("New ticket #%d from %s (%s): building %s, room %s, %s",
			event.TicketID, payload.Name, payload.Requester, payload.Corpus, payload.Room, payload.Problem)
	case events.TicketSolvedPayload:
		return fmt.Sprintf("Ticket #%d solved by %s: %s", event.TicketID, payload.AdminName, payload.Solution)
	case events.TicketLongTermPayload:
		return fmt.Sprintf("Ticket #%d marked long-term by %s", event.TicketID, payload.AdminName)
	case events.TicketAssignedPayload:
		return fmt.Sprintf("Ticket #%d assigned to %s", event.TicketID, payload.AdminName)
	case events.TicketUnassignedPayload:
		return fmt.Sprintf("Ticket #%d released by %s", event.TicketID, payload.AdminName)
	case events.IdentityBannedPayload:
		return fmt.Sprintf("Identity %s banned: %s", payload.Identity, payload.Reason)
	default:
		if event.Type == events.EventTicketReopened {
			return fmt.Sprintf("Ticket #%d reopened", event.TicketID)
		}
		return ""
	}
}
