package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MessageDedup suppresses redelivered inbound messages. Webhook providers
// retry on timeout, so the same provider message id can arrive more than
// once; the first claim within the TTL wins.
type MessageDedup struct {
	redis  *Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewMessageDedup creates a dedup store over the shared Redis client.
func NewMessageDedup(redis *Redis, ttl time.Duration, logger *zap.Logger) *MessageDedup {
	return &MessageDedup{redis: redis, ttl: ttl, logger: logger}
}

// Claim returns true when this message id has not been seen within the TTL.
// On Redis failure it fails open: duplicate processing is preferable to
// dropping a real message.
func (d *MessageDedup) Claim(ctx context.Context, messageID string) bool {
	if d == nil || d.redis == nil || d.redis.Client == nil || messageID == "" {
		return true
	}
	ok, err := d.redis.Client.SetNX(ctx, "inbound:"+messageID, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("dedup claim failed", zap.String("message_id", messageID), zap.Error(err))
		return true
	}
	return ok
}
