package channel

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Manager owns the configured channels: it starts them, stops them, and
// routes outbound sends to the primary channel.
type Manager struct {
	channels []Channel
	logger   *zap.Logger
}

// NewManager wraps the given channels; the first one is primary.
func NewManager(logger *zap.Logger, channels ...Channel) *Manager {
	return &Manager{channels: channels, logger: logger}
}

// Register appends another channel.
func (m *Manager) Register(ch Channel) {
	m.channels = append(m.channels, ch)
}

// Empty reports whether no channel is configured.
func (m *Manager) Empty() bool {
	return len(m.channels) == 0
}

// Start launches every channel loop in its own goroutine and returns a
// channel that carries the first fatal error.
func (m *Manager) Start(ctx context.Context) <-chan error {
	errCh := make(chan error, len(m.channels))
	for _, ch := range m.channels {
		go func(ch Channel) {
			m.logger.Info("starting channel", zap.String("channel", ch.Name()))
			if err := ch.Start(ctx); err != nil {
				errCh <- err
			}
		}(ch)
	}
	return errCh
}

// Stop shuts every channel down, returning the first error seen.
func (m *Manager) Stop() error {
	var firstErr error
	for _, ch := range m.channels {
		if err := ch.Stop(); err != nil {
			m.logger.Warn("channel stop failed", zap.String("channel", ch.Name()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SendText delivers through the primary channel.
func (m *Manager) SendText(ctx context.Context, target, body string) error {
	if len(m.channels) == 0 {
		return errors.New("no channel configured")
	}
	return m.channels[0].SendText(ctx, target, body)
}
