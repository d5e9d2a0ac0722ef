// Package syncer pushes the session's full state to the remote store.
//
// The Coordinator is a two-state machine, Idle and Syncing. A trigger moves
// it to Syncing only when the session is online and authenticated; while a
// push is pending every other trigger is dropped (not queued). Each push
// carries the whole current state, so a dropped or failed push loses nothing:
// the next one sends the then-current state.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/localstore"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/metrics"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/notify"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/persistence"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

var (
	ErrSyncInFlight     = errors.New("sync already in flight")
	ErrOffline          = errors.New("offline")
	ErrNotAuthenticated = errors.New("no authenticated user")
	ErrBackingOff       = errors.New("backing off after failed sync")
)

// Reason is what triggered a sync
type Reason string

const (
	ReasonLogin      Reason = "login"
	ReasonReconnect  Reason = "reconnect"
	ReasonPeriodic   Reason = "periodic"
	ReasonInactivity Reason = "inactivity"
	ReasonManual     Reason = "manual"
)

// bypassesBackoff reports whether the trigger is allowed inside a backoff
// window. Only timer-driven triggers wait.
func (r Reason) bypassesBackoff() bool {
	return r != ReasonPeriodic && r != ReasonInactivity
}

// Phase of the coordinator
type Phase int

const (
	Idle Phase = iota
	Syncing
)

func (p Phase) String() string {
	if p == Syncing {
		return "syncing"
	}
	return "idle"
}

// Pusher writes the whole envelope to the remote store
type Pusher interface {
	Push(ctx context.Context, env models.SyncEnvelope) error
}

// Options configures a Coordinator. Zero values pick the defaults.
type Options struct {
	Timeout         time.Duration // per push, default 10s
	InitialBackoff  time.Duration // default 30s
	MaxBackoff      time.Duration // default 30m
	NotificationTTL time.Duration // default 5s
	Notifier        notify.Notifier
	Metrics         *metrics.SyncMetrics
	Logger          *slog.Logger
	Now             func() time.Time
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 30 * time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Minute
	}
	if o.MaxBackoff < o.InitialBackoff {
		o.MaxBackoff = o.InitialBackoff
	}
	if o.NotificationTTL <= 0 {
		o.NotificationTTL = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Coordinator enforces at most one push in flight
type Coordinator struct {
	container *state.Container
	store     localstore.Store
	pusher    Pusher
	opts      Options
	activity  *ActivityTracker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	phase       Phase
	backoff     *backoff.ExponentialBackOff
	retryAt     time.Time
	idleFlushed time.Time
}

// New creates a coordinator pushing container's state for the user recorded
// in store
func New(container *state.Container, store localstore.Store, pusher Pusher, opts Options) *Coordinator {
	opts.setDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialBackoff
	b.MaxInterval = opts.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		container: container,
		store:     store,
		pusher:    pusher,
		opts:      opts,
		activity:  NewActivityTracker(opts.Now),
		ctx:       ctx,
		cancel:    cancel,
		backoff:   b,
	}
}

// Activity returns the tracker fed by user interaction
func (c *Coordinator) Activity() *ActivityTracker {
	return c.activity
}

// Phase returns the current phase
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// RetryAt returns the end of the current backoff window, zero if none
func (c *Coordinator) RetryAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryAt
}

// Trigger starts a push in the background and reports whether it did. A
// dropped trigger is not remembered.
func (c *Coordinator) Trigger(reason Reason) bool {
	userID, err := c.begin(reason)
	if err != nil {
		c.opts.Logger.Debug("sync trigger dropped", "reason", reason, "cause", err)
		return false
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.push(c.ctx, reason, userID)
	}()
	return true
}

// SyncNow pushes synchronously. It returns one of the sentinel errors when
// the trigger is dropped, or the push error.
func (c *Coordinator) SyncNow(ctx context.Context, reason Reason) error {
	userID, err := c.begin(reason)
	if err != nil {
		return err
	}
	return c.push(ctx, reason, userID)
}

// Wait blocks until background pushes have settled
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels pending background pushes and waits for them
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

// begin performs the Idle -> Syncing transition
func (c *Coordinator) begin(reason Reason) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		userID string
		cause  error
	)
	switch {
	case c.phase == Syncing:
		cause = ErrSyncInFlight
	case !c.container.Online():
		cause = ErrOffline
	default:
		var ok bool
		if userID, ok = localstore.CurrentUser(c.store); !ok {
			cause = ErrNotAuthenticated
		} else if !reason.bypassesBackoff() && c.opts.Now().Before(c.retryAt) {
			cause = ErrBackingOff
		}
	}
	if cause != nil {
		c.opts.Metrics.ObserveSkip(string(reason), skipCause(cause))
		return "", cause
	}

	c.phase = Syncing
	c.opts.Metrics.SetInFlight(true)
	if err := c.container.Dispatch(state.SetSyncStatus{Syncing: true}); err != nil {
		c.opts.Logger.Warn("failed to record sync status", "error", err)
	}
	return userID, nil
}

func (c *Coordinator) push(ctx context.Context, reason Reason, userID string) error {
	snap := c.container.Snapshot()
	env := snap.Envelope()

	start := c.opts.Now()
	pctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	err := c.pusher.Push(pctx, env)
	cancel()
	if err != nil {
		err = fmt.Errorf("push %s sync: %w", reason, err)
	} else if merr := persistence.MarkSynced(c.store, userID, snap); merr != nil {
		c.opts.Logger.Warn("failed to record synced state", "user_id", userID, "error", merr)
	}

	c.settle(reason, userID, err, c.opts.Now().Sub(start))
	return err
}

// settle performs the Syncing -> Idle transition and reports the outcome
func (c *Coordinator) settle(reason Reason, userID string, err error, took time.Duration) {
	now := c.opts.Now()

	c.mu.Lock()
	c.phase = Idle
	if err == nil {
		c.backoff.Reset()
		c.retryAt = time.Time{}
	} else {
		c.retryAt = now.Add(c.backoff.NextBackOff())
	}
	retryAt := c.retryAt
	c.mu.Unlock()

	c.opts.Metrics.SetInFlight(false)
	c.opts.Metrics.ObservePush(string(reason), err, took)

	status := state.SetSyncStatus{Syncing: false}
	n := state.Notification{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(c.opts.NotificationTTL),
	}
	kind := notify.KindSyncSucceeded
	if err == nil {
		status.SyncedAt = now
		n.Level = state.LevelInfo
		n.Message = "Progress saved"
		c.opts.Logger.Info("sync complete", "reason", reason, "user_id", userID, "took", took)
	} else {
		status.Error = err.Error()
		n.Level = state.LevelError
		n.Message = "Could not save progress, will retry automatically"
		kind = notify.KindSyncFailed
		c.opts.Logger.Warn("sync failed", "reason", reason, "user_id", userID, "retry_at", retryAt, "error", err)
	}

	if derr := c.container.Dispatch(status, state.PruneNotifications{Now: now}, state.PushNotification{Notification: n}); derr != nil {
		c.opts.Logger.Warn("failed to record sync result", "error", derr)
	}
	if c.opts.Notifier != nil {
		nctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()
		if nerr := c.opts.Notifier.Notify(nctx, notify.Notification{Kind: kind, UserID: userID, Message: n.Message}); nerr != nil {
			c.opts.Logger.Debug("notification not delivered", "error", nerr)
		}
	}
}

// CheckInactivity triggers one sync per idle period once the user has been
// idle for longer than threshold. It reports whether a push was started.
func (c *Coordinator) CheckInactivity(threshold time.Duration) bool {
	last := c.activity.LastActivity()
	if c.activity.IdleFor() <= threshold {
		return false
	}
	if _, ok := localstore.CurrentUser(c.store); !ok {
		return false
	}

	c.mu.Lock()
	flushed := c.idleFlushed.Equal(last)
	c.mu.Unlock()
	if flushed {
		return false
	}

	if !c.Trigger(ReasonInactivity) {
		return false
	}
	c.mu.Lock()
	c.idleFlushed = last
	c.mu.Unlock()
	return true
}

func skipCause(err error) string {
	switch {
	case errors.Is(err, ErrSyncInFlight):
		return "in_flight"
	case errors.Is(err, ErrOffline):
		return "offline"
	case errors.Is(err, ErrNotAuthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrBackingOff):
		return "backoff"
	}
	return "other"
}
