package channel

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
)

const telegramChannelName = "telegram"

// TelegramChannel adapts the Telegram Bot API to the channel contract
// using long polling.
type TelegramChannel struct {
	bot     *tgbotapi.BotAPI
	handler InboundHandler
	logger  *zap.Logger
	done    chan struct{}
}

// NewTelegramChannel dials the Bot API and returns the channel.
func NewTelegramChannel(cfg config.TelegramConfig, handler InboundHandler, logger *zap.Logger) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	return &TelegramChannel{
		bot:     bot,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Name identifies the channel.
func (t *TelegramChannel) Name() string {
	return telegramChannelName
}

// Start consumes the update stream until the context is cancelled.
func (t *TelegramChannel) Start(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := t.bot.GetUpdatesChan(updateCfg)

	t.logger.Info("telegram channel started", zap.String("bot", t.bot.Self.UserName))
	defer close(t.done)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			t.handler(ctx, t.toInbound(update.Message))
		}
	}
}

// Stop halts the update stream and waits for the loop to exit.
func (t *TelegramChannel) Stop() error {
	t.bot.StopReceivingUpdates()
	<-t.done
	return nil
}

// SendText delivers one text message; target is a chat or user ID.
func (t *TelegramChannel) SendText(_ context.Context, target, body string) error {
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return err
	}
	_, err = t.bot.Send(tgbotapi.NewMessage(chatID, body))
	return err
}

func (t *TelegramChannel) toInbound(msg *tgbotapi.Message) domain.InboundMessage {
	var from, displayName string
	if msg.From != nil {
		from = strconv.FormatInt(msg.From.ID, 10)
		displayName = msg.From.FirstName
		if msg.From.LastName != "" {
			displayName += " " + msg.From.LastName
		}
	}

	hasMedia := false
	var mediaBytes int64
	if msg.Document != nil {
		hasMedia = true
		mediaBytes = int64(msg.Document.FileSize)
	} else if len(msg.Photo) > 0 {
		hasMedia = true
		// Telegram sends several sizes; the last one is the original.
		mediaBytes = int64(msg.Photo[len(msg.Photo)-1].FileSize)
	} else if msg.Video != nil {
		hasMedia = true
		mediaBytes = int64(msg.Video.FileSize)
	} else if msg.Voice != nil {
		hasMedia = true
		mediaBytes = int64(msg.Voice.FileSize)
	}

	body := msg.Text
	if body == "" {
		body = msg.Caption
	}

	return domain.InboundMessage{
		Channel:     telegramChannelName,
		MessageID:   strconv.Itoa(msg.MessageID),
		From:        from,
		DisplayName: displayName,
		Body:        body,
		HasMedia:    hasMedia,
		MediaBytes:  mediaBytes,
		IsGroup:     msg.Chat != nil && (msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()),
		Timestamp:   time.Unix(int64(msg.Date), 0),
	}
}
