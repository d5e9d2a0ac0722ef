package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI used for delivery
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notifications to a chat through a Telegram bot
type Telegram struct {
	bot    sender
	chatID int64
	// OnlyFailures suppresses success messages.
	OnlyFailures bool
}

// NewTelegram creates a Telegram notifier for the bot token and chat
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	if t.OnlyFailures && n.Kind != KindSyncFailed {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, formatMessage(n))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func formatMessage(n Notification) string {
	switch n.Kind {
	case KindSyncSucceeded:
		return "✅ " + n.Message
	case KindSyncFailed:
		return "⚠️ " + n.Message
	}
	return n.Message
}
