package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/config"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/localstore"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/metrics"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/notify"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/remote"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/scheduler"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/session"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/spacedrep"
)

// loadConfig reads the dotenv file and the environment, then applies the
// persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if remoteURL != "" {
		cfg.RemoteURL = remoteURL
	}
	if userFlag != "" {
		cfg.UserID = userFlag
	}
	if tokenFlag != "" {
		cfg.Token = tokenFlag
	}
	if storeFlag != "" {
		cfg.LocalStore = storeFlag
	}
	return cfg, nil
}

// client is a booted session together with the resources it owns
type client struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   localstore.Store
	remote  *remote.Client
	session *session.Session
}

type clientOptions struct {
	notifier notify.Notifier
	metrics  *metrics.SyncMetrics
}

func newClient(cfg *config.Config, opts clientOptions) (*client, error) {
	if cfg.UserID == "" {
		return nil, errors.New("no user: pass --user or set LEVELUP_USER_ID")
	}
	logger := cfg.Logger()

	store, err := localstore.Open(cfg.LocalStore, cfg.LocalStorePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	rc := remote.NewClient(cfg.RemoteURL, cfg.Token).WithTimeout(cfg.RequestTimeout)
	timers := scheduler.Config{
		ProbeInterval:       cfg.ProbeInterval,
		SyncInterval:        cfg.SyncInterval,
		InactivityPoll:      cfg.InactivityPoll,
		InactivityThreshold: cfg.InactivityThreshold,
		ReminderInterval:    scheduler.DefaultReminderInterval,
		ProbeTimeout:        cfg.RequestTimeout,
	}
	sess := session.New(store, rc, session.Options{
		Timers:                timers,
		RequestTimeout:        cfg.RequestTimeout,
		BackoffMax:            cfg.BackoffMax,
		NotificationStartHour: cfg.NotificationStartHour,
		NotificationEndHour:   cfg.NotificationEndHour,
		Notifier:              opts.notifier,
		Metrics:               opts.metrics,
		Policy:                spacedrep.NewSM2(),
		Logger:                logger,
	})

	return &client{cfg: cfg, logger: logger, store: store, remote: rc, session: sess}, nil
}

// boot hydrates the configured user without starting timers
func (c *client) boot(ctx context.Context) error {
	result, err := c.session.Boot(ctx, c.cfg.UserID)
	if err != nil {
		return fmt.Errorf("failed to load state for %s: %w", c.cfg.UserID, err)
	}
	c.logger.Debug("state hydrated", "user_id", c.cfg.UserID, "sources", result)
	return nil
}

// flush pushes the state when the gateway is reachable. Local writes are
// already durable, so a failed push only delays the sync.
func (c *client) flush(ctx context.Context) {
	if !c.session.Container().Online() {
		c.logger.Info("offline, changes stay local until the next sync")
		return
	}
	if err := c.session.Flush(ctx); err != nil {
		c.logger.Warn("sync failed, changes stay local", "error", err)
	}
}

func (c *client) close() {
	c.session.Close()
	if err := c.store.Close(); err != nil {
		c.logger.Warn("failed to close local store", "error", err)
	}
}

// withClient boots a short-lived client, runs fn and flushes the result
func withClient(ctx context.Context, mutate bool, fn func(*client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newClient(cfg, clientOptions{})
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.boot(ctx); err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	if mutate {
		c.flush(ctx)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

var nowFunc = time.Now
