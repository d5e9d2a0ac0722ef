// Package session wires the state container, persistence, connectivity
// monitor, sync coordinator and timers for one signed-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/connectivity"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/localstore"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/metrics"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/notify"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/persistence"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/remote"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/scheduler"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/syncer"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// ErrNotLoggedIn is returned by operations that need an active user
var ErrNotLoggedIn = errors.New("not logged in")

// Remote is the gateway as seen by a session
type Remote interface {
	Push(ctx context.Context, env models.SyncEnvelope) error
	Health(ctx context.Context) error
	FetchDocument(ctx context.Context) (*models.UserDocument, error)
	UpdateProgress(ctx context.Context, upd models.ProgressUpdate) error
}

// Options configures a session
type Options struct {
	Timers                scheduler.Config
	RequestTimeout        time.Duration
	BackoffMax            time.Duration
	NotificationStartHour int
	NotificationEndHour   int
	Notifier              notify.Notifier
	Metrics               *metrics.SyncMetrics
	Policy                state.ReviewPolicy
	Logger                *slog.Logger
	Now                   func() time.Time
}

// Session is one user's client-side runtime
type Session struct {
	store     localstore.Store
	remote    Remote
	opts      Options
	logger    *slog.Logger
	container *state.Container
	mirror    *persistence.Mirror
	monitor   *connectivity.Monitor
	coord     *syncer.Coordinator

	mu     sync.Mutex
	userID string
	ready  bool
	timers *scheduler.Scheduler
}

// New creates a session over a local store and a remote gateway
func New(store localstore.Store, r Remote, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = remote.DefaultTimeout
	}

	s := &Session{
		store:     store,
		remote:    r,
		opts:      opts,
		logger:    opts.Logger,
		container: state.NewContainer(),
		mirror:    persistence.NewMirror(store, opts.Logger),
	}
	s.container.Use(s.mirror.Middleware())
	s.monitor = connectivity.NewMonitor(r, s.container, opts.RequestTimeout, opts.Logger)
	s.coord = syncer.New(s.container, store, r, syncer.Options{
		Timeout:    opts.RequestTimeout,
		MaxBackoff: opts.BackoffMax,
		Notifier:   opts.Notifier,
		Metrics:    opts.Metrics,
		Logger:     opts.Logger,
		Now:        opts.Now,
	})
	s.monitor.OnChange(s.onConnectivityChange)
	return s
}

// Container returns the session's state container
func (s *Session) Container() *state.Container { return s.container }

// Coordinator returns the session's sync coordinator
func (s *Session) Coordinator() *syncer.Coordinator { return s.coord }

// Monitor returns the session's connectivity monitor
func (s *Session) Monitor() *connectivity.Monitor { return s.monitor }

// State returns a snapshot of the current state
func (s *Session) State() state.State { return s.container.Snapshot() }

// UserID returns the active user, empty when logged out
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) onConnectivityChange(online bool) {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	if online && ready {
		s.coord.Trigger(syncer.ReasonReconnect)
	}
}

// Boot makes userID the active user and hydrates the state from the local
// store and, when reachable, the remote document. It starts no timers.
func (s *Session) Boot(ctx context.Context, userID string) (persistence.HydrateResult, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()

	s.container.Reset()
	if err := localstore.SetCurrentUser(s.store, userID); err != nil {
		return nil, err
	}

	var doc *models.UserDocument
	if s.monitor.CheckConnectivity(ctx) {
		fctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
		d, err := s.remote.FetchDocument(fctx)
		cancel()
		switch {
		case err == nil:
			doc = d
		case errors.Is(err, remote.ErrNoDocument):
			s.logger.Info("no remote document yet", "user_id", userID)
		default:
			s.logger.Warn("failed to fetch remote document, booting from local state", "user_id", userID, "error", err)
		}
	}

	result, err := persistence.Hydrate(s.store, s.container, userID, doc, s.logger)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.userID = userID
	s.ready = true
	s.mu.Unlock()
	s.coord.Activity().Touch()
	return result, nil
}

// Login boots the user, pushes the hydrated state and starts the timers
func (s *Session) Login(ctx context.Context, userID string) (persistence.HydrateResult, error) {
	result, err := s.Boot(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.coord.Trigger(syncer.ReasonLogin)

	if err := s.startTimers(userID); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Session) startTimers(userID string) error {
	var reminder scheduler.Reminder
	if s.opts.Notifier != nil {
		reminder = &scheduler.DueReminder{
			Container: s.container,
			Notifier:  s.opts.Notifier,
			UserID:    userID,
			StartHour: s.opts.NotificationStartHour,
			EndHour:   s.opts.NotificationEndHour,
			Now:       s.opts.Now,
			Logger:    s.logger,
		}
	}
	timers := scheduler.New(s.opts.Timers, s.monitor, s.coord, reminder, s.logger)
	if err := timers.Start(); err != nil {
		return fmt.Errorf("failed to start timers: %w", err)
	}

	s.mu.Lock()
	old := s.timers
	s.timers = timers
	s.mu.Unlock()
	if old != nil {
		old.Stop()
	}
	return nil
}

func (s *Session) stopTimers() {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	if timers != nil {
		timers.Stop()
	}
}

// Logout stops the timers, lets a pending push settle and clears the user
func (s *Session) Logout() error {
	s.stopTimers()
	s.coord.Wait()

	s.mu.Lock()
	s.userID = ""
	s.ready = false
	s.mu.Unlock()

	if err := localstore.ClearCurrentUser(s.store); err != nil {
		return err
	}
	s.container.Reset()
	return nil
}

// Close stops the timers and cancels a pending push
func (s *Session) Close() {
	s.stopTimers()
	s.coord.Close()
}

// Flush pushes the current state now
func (s *Session) Flush(ctx context.Context) error {
	return s.coord.SyncNow(ctx, syncer.ReasonManual)
}

// Touch records user activity
func (s *Session) Touch() {
	s.coord.Activity().Touch()
}

// Dispatch applies user actions
func (s *Session) Dispatch(actions ...state.Action) error {
	if s.UserID() == "" {
		return ErrNotLoggedIn
	}
	s.Touch()
	return s.container.Dispatch(actions...)
}

// CompleteTask completes a task and credits its reward
func (s *Session) CompleteTask(id string) error {
	if s.UserID() == "" {
		return ErrNotLoggedIn
	}
	s.Touch()
	return s.container.DispatchFunc(state.CompleteTask(id))
}

// ReviewFlashcard grades a flashcard with the session's review policy
func (s *Session) ReviewFlashcard(id string, grade int) error {
	if s.UserID() == "" {
		return ErrNotLoggedIn
	}
	if s.opts.Policy == nil {
		return errors.New("no review policy configured")
	}
	s.Touch()
	return s.container.DispatchFunc(state.ReviewFlashcard(id, grade, s.opts.Policy, s.opts.Now()))
}

// RecordActivity marks an activity done for date (today when empty). When
// online the gateway's streak counter is updated as well; that write is best
// effort since the next full push carries the same streak.
func (s *Session) RecordActivity(ctx context.Context, activity, date string) error {
	if s.UserID() == "" {
		return ErrNotLoggedIn
	}
	if date == "" {
		date = state.Today(s.opts.Now())
	}
	s.Touch()
	if err := s.container.DispatchFunc(state.RecordActivity(activity, date)); err != nil {
		return err
	}

	if s.container.Online() {
		uctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
		upd := models.ProgressUpdate{Activity: activity, Date: date, Completed: true}
		if err := s.remote.UpdateProgress(uctx, upd); err != nil {
			s.logger.Warn("failed to update remote streak", "activity", activity, "date", date, "error", err)
		}
	}
	return nil
}
