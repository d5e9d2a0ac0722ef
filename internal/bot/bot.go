// Package bot is a Telegram front end over a signed-in session. It answers
// a single chat and lets the player check progress, complete tasks, review
// due flashcards and force a sync.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
)

// Session is the part of a session the bot drives
type Session interface {
	State() state.State
	CompleteTask(id string) error
	ReviewFlashcard(id string, grade int) error
	RecordActivity(ctx context.Context, activity, date string) error
	Flush(ctx context.Context) error
	Touch()
}

// api is the part of tgbotapi.BotAPI the bot uses
type api interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Reply is the outcome of a command or callback
type Reply struct {
	Text     string
	Keyboard [][]MenuButton
}

// Bot represents the Telegram bot application
type Bot struct {
	api     api
	session Session
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// New connects to the Telegram API
func New(cfg Config, sess Session, logger *slog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("TELEGRAM_CHAT_ID is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram bot authorized", "account", botAPI.Self.UserName)
	return newBot(botAPI, cfg, sess, logger), nil
}

func newBot(a api, cfg Config, sess Session, logger *slog.Logger) *Bot {
	def := DefaultConfig()
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = def.PollTimeout
	}
	if cfg.DueLimit <= 0 {
		cfg.DueLimit = def.DueLimit
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	return &Bot{api: a, session: sess, cfg: cfg, logger: logger, now: time.Now}
}

// Run handles updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = int(b.cfg.PollTimeout.Seconds())
	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.CommandTimeout)
	defer cancel()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		if update.Message.Chat == nil || update.Message.Chat.ID != b.cfg.ChatID {
			b.logger.Warn("ignoring message from unknown chat")
			return
		}
		r := b.HandleCommand(ctx, update.Message.Command(), update.Message.CommandArguments())
		b.send(r)
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.cfg.ChatID {
			return
		}
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Warn("failed to answer callback", "error", err)
		}
		b.send(b.HandleCallback(ctx, cb.Data))
	}
}

func (b *Bot) send(r Reply) {
	msg := tgbotapi.NewMessage(b.cfg.ChatID, r.Text)
	if len(r.Keyboard) > 0 {
		msg.ReplyMarkup = createKeyboard(r.Keyboard)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", "error", err)
	}
}

// HandleCommand answers a slash command
func (b *Bot) HandleCommand(ctx context.Context, command, args string) Reply {
	args = strings.TrimSpace(args)
	switch command {
	case "start", "menu":
		return Reply{Text: "What next?", Keyboard: mainMenu()}
	case "help":
		return Reply{Text: helpText}
	case "status":
		return b.status()
	case "tasks":
		return b.tasks()
	case "done":
		return b.completeTask(args)
	case "due":
		return b.due()
	case "streak":
		return b.recordActivity(ctx, args)
	case "sync":
		return b.sync(ctx)
	default:
		return Reply{Text: "Unknown command. Try /help."}
	}
}

// HandleCallback answers an inline keyboard press. Review buttons carry
// "review:<card id>:<grade>", show buttons "show:<card id>".
func (b *Bot) HandleCallback(ctx context.Context, data string) Reply {
	parts := strings.Split(data, ":")
	switch parts[0] {
	case "status":
		return b.status()
	case "tasks":
		return b.tasks()
	case "due":
		return b.due()
	case "sync":
		return b.sync(ctx)
	case "done":
		if len(parts) == 2 {
			return b.completeTask(parts[1])
		}
	case "show":
		if len(parts) == 2 {
			return b.showAnswer(parts[1])
		}
	case "review":
		if len(parts) == 3 {
			grade, err := strconv.Atoi(parts[2])
			if err == nil {
				return b.review(parts[1], grade)
			}
		}
	}
	b.logger.Warn("unknown callback", "data", data)
	return Reply{Text: "Unknown action."}
}

func mainMenu() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "Status", CallbackData: "status"}, {Text: "Tasks", CallbackData: "tasks"}},
		{{Text: "Due cards", CallbackData: "due"}, {Text: "Sync now", CallbackData: "sync"}},
	}
}

const helpText = "/status - level, rank, XP and money\n" +
	"/tasks - pending tasks\n" +
	"/done <task id> - complete a task\n" +
	"/due - flashcards due for review\n" +
	"/streak <activity> - mark an activity done today\n" +
	"/sync - push now\n" +
	"/menu - show the menu"
