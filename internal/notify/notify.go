// Package notify delivers transient user-visible messages about background
// work such as sync results.
package notify

import (
	"context"
	"log/slog"
)

// Kind classifies a notification
type Kind string

const (
	KindSyncSucceeded Kind = "sync_succeeded"
	KindSyncFailed    Kind = "sync_failed"
	KindInfo          Kind = "info"
)

// Notification is a message for the user
type Notification struct {
	Kind    Kind
	UserID  string
	Message string
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Log writes notifications to a structured logger
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Kind == KindSyncFailed {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, n.Message, "kind", n.Kind, "user_id", n.UserID)
	return nil
}

// Multi fans a notification out to several notifiers. Every notifier is
// attempted; failures are logged and the first error is returned.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var first error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			slog.Warn("notification delivery failed", "kind", n.Kind, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
