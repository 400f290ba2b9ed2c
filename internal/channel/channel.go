package channel

import (
	"context"

	"github.com/spec-kit/support-bot/internal/domain"
)

// Sender delivers outbound text to a channel target. Delivery is
// best-effort: the core logs failures and never retries.
type Sender interface {
	SendText(ctx context.Context, target, body string) error
}

// InboundHandler consumes one inbound message.
type InboundHandler func(ctx context.Context, msg domain.InboundMessage)

// Channel is a concrete messaging transport.
type Channel interface {
	Sender
	Name() string
	Start(ctx context.Context) error
	Stop() error
}
