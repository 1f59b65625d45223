package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers a text message to a chat. Delivery is attempted once.
type Notifier interface {
	Notify(ctx context.Context, chatID string, text string) error
}

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends through the Bot API. The timeout is enforced by
// the HTTP client of the sender.
type TelegramNotifier struct {
	bot    Sender
	logger *zap.Logger
}

func NewTelegramNotifier(bot Sender, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, logger: logger}
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := n.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("send to %d: %w", id, err)
	}

	n.logger.Debug("Notification sent", zap.Int64("chat_id", id))
	return nil
}

// NopNotifier drops every message. Used when no bot token is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }
