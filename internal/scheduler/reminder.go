package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/notify"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
)

// Default notification window, in hours of the local clock
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// DueReminder notifies the user about flashcards that are due for review
type DueReminder struct {
	Container *state.Container
	Notifier  notify.Notifier
	UserID    string
	StartHour int
	EndHour   int
	Now       func() time.Time
	Logger    *slog.Logger
}

// Check sends a reminder when cards are due inside the notification window
// and returns the number of due cards it reported.
func (r *DueReminder) Check(ctx context.Context) (int, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if hour := now.Hour(); hour < r.StartHour || hour > r.EndHour {
		logger.Debug("outside notification hours, skipping reminder",
			"hour", hour, "start", r.StartHour, "end", r.EndHour)
		return 0, nil
	}

	due := r.Container.Snapshot().DueFlashcards(now)
	if len(due) == 0 {
		return 0, nil
	}

	msg := fmt.Sprintf("%d flashcards are due for review", len(due))
	if len(due) == 1 {
		msg = "1 flashcard is due for review"
	}
	if err := r.Notifier.Notify(ctx, notify.Notification{Kind: notify.KindInfo, UserID: r.UserID, Message: msg}); err != nil {
		return 0, fmt.Errorf("failed to send reminder: %w", err)
	}
	return len(due), nil
}
