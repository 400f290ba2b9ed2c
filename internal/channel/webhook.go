package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/auth"
	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/internal/persistence"
)

const webhookChannelName = "webhook"

// inboundPayload is the provider's inbound event format.
type inboundPayload struct {
	MessageID   string `json:"message_id"`
	From        string `json:"from"`
	DisplayName string `json:"display_name"`
	Body        string `json:"body"`
	HasMedia    bool   `json:"has_media"`
	MediaBytes  int64  `json:"media_bytes"`
	IsGroup     bool   `json:"is_group"`
	Timestamp   int64  `json:"timestamp"`
}

// WebhookChannel receives inbound events over HTTP and sends outbound text
// through the provider's send endpoint. It also serves the health probes.
type WebhookChannel struct {
	appCfg   config.AppConfig
	cfg      config.WebhookConfig
	app      *fiber.App
	tokens   *auth.WebhookTokenManager
	dedup    *persistence.MessageDedup
	handler  InboundHandler
	postgres *persistence.Postgres
	redis    *persistence.Redis
	metrics  *observability.Metrics
	client   *http.Client
	logger   *zap.Logger
}

// NewWebhookChannel constructs the channel.
func NewWebhookChannel(
	appCfg config.AppConfig,
	cfg config.WebhookConfig,
	postgres *persistence.Postgres,
	redis *persistence.Redis,
	dedup *persistence.MessageDedup,
	metrics *observability.Metrics,
	handler InboundHandler,
	logger *zap.Logger,
) *WebhookChannel {
	w := &WebhookChannel{
		appCfg:   appCfg,
		cfg:      cfg,
		tokens:   auth.NewWebhookTokenManager(cfg.JWTSecret),
		dedup:    dedup,
		handler:  handler,
		postgres: postgres,
		redis:    redis,
		metrics:  metrics,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
	w.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	w.registerRoutes()
	return w
}

// Name identifies the channel.
func (w *WebhookChannel) Name() string {
	return webhookChannelName
}

// Start begins listening; it returns once the listener stops.
func (w *WebhookChannel) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = w.app.Shutdown()
	}()
	return w.app.Listen(w.appCfg.Addr())
}

// Stop shuts the listener down.
func (w *WebhookChannel) Stop() error {
	return w.app.Shutdown()
}

// SendText delivers one outbound text through the provider endpoint.
func (w *WebhookChannel) SendText(ctx context.Context, target, body string) error {
	if w.cfg.OutboundURL == "" {
		return errors.New("webhook outbound URL not configured")
	}

	payload, err := json.Marshal(domain.OutboundMessage{Target: target, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.OutboundURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	token, err := w.tokens.Sign(w.appCfg.Name, time.Minute)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("provider send returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *WebhookChannel) registerRoutes() {
	w.app.Get("/health/live", w.handleLive)
	w.app.Get("/health/ready", w.handleReady)
	w.app.Get("/metrics", w.requireBearer, w.handleMetrics)
	w.app.Post("/webhook/messages", w.requireBearer, w.handleInbound)
}

func (w *WebhookChannel) requireBearer(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
	}
	if err := w.tokens.Verify(token); err != nil {
		w.logger.Warn("webhook token rejected", zap.Error(err))
		return fiber.NewError(http.StatusUnauthorized, "invalid token")
	}
	return c.Next()
}

func (w *WebhookChannel) handleInbound(c *fiber.Ctx) error {
	var payload inboundPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(http.StatusBadRequest, "malformed payload")
	}
	if payload.From == "" {
		return fiber.NewError(http.StatusBadRequest, "missing sender")
	}

	// Providers redeliver on timeout; the first claim wins.
	if !w.dedup.Claim(c.UserContext(), payload.MessageID) {
		return c.SendStatus(http.StatusNoContent)
	}

	ts := time.Now()
	if payload.Timestamp > 0 {
		ts = time.Unix(payload.Timestamp, 0)
	}
	w.handler(c.UserContext(), domain.InboundMessage{
		Channel:     webhookChannelName,
		MessageID:   payload.MessageID,
		From:        payload.From,
		DisplayName: payload.DisplayName,
		Body:        payload.Body,
		HasMedia:    payload.HasMedia,
		MediaBytes:  payload.MediaBytes,
		IsGroup:     payload.IsGroup,
		Timestamp:   ts,
	})
	return c.SendStatus(http.StatusNoContent)
}

func (w *WebhookChannel) handleMetrics(c *fiber.Ctx) error {
	return c.JSON(w.metrics.Snapshot())
}

func (w *WebhookChannel) handleLive(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": w.appCfg.Name,
		"version": w.appCfg.Version,
	})
}

func (w *WebhookChannel) handleReady(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if w.postgres != nil && w.postgres.Pool != nil {
		if err := w.postgres.Pool.Ping(ctx); err != nil {
			depStatus["postgres"] = "down"
			ready = false
		} else {
			depStatus["postgres"] = "up"
		}
	} else {
		depStatus["postgres"] = "not_configured"
	}

	if err := w.redis.Ping(ctx); err != nil {
		depStatus["redis"] = "down"
	} else {
		depStatus["redis"] = "up"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status":  depStatus,
		"service": w.appCfg.Name,
		"version": w.appCfg.Version,
		"ready":   ready,
	})
}
