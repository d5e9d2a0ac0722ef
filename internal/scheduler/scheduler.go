// Package scheduler drives the session's timers: connectivity probes,
// periodic sync, the inactivity poll and due-flashcard reminders.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/syncer"
)

// Default intervals
const (
	DefaultProbeInterval       = 30 * time.Second
	DefaultSyncInterval        = 5 * time.Minute
	DefaultInactivityPoll      = time.Minute
	DefaultInactivityThreshold = 30 * time.Minute
	DefaultReminderInterval    = time.Hour
)

// Job tags
const (
	TagProbe      = "probe"
	TagSync       = "sync"
	TagInactivity = "inactivity"
	TagReminder   = "reminder"
)

// Prober checks whether the remote store is reachable
type Prober interface {
	CheckConnectivity(ctx context.Context) bool
}

// Syncer is the part of the sync coordinator the timers drive
type Syncer interface {
	Trigger(reason syncer.Reason) bool
	CheckInactivity(threshold time.Duration) bool
}

// Reminder sends a reminder about due work
type Reminder interface {
	Check(ctx context.Context) (int, error)
}

// Config holds the timer intervals
type Config struct {
	ProbeInterval       time.Duration
	SyncInterval        time.Duration
	InactivityPoll      time.Duration
	InactivityThreshold time.Duration
	ReminderInterval    time.Duration
	ProbeTimeout        time.Duration
}

// DefaultConfig returns the standard intervals
func DefaultConfig() Config {
	return Config{
		ProbeInterval:       DefaultProbeInterval,
		SyncInterval:        DefaultSyncInterval,
		InactivityPoll:      DefaultInactivityPoll,
		InactivityThreshold: DefaultInactivityThreshold,
		ReminderInterval:    DefaultReminderInterval,
		ProbeTimeout:        10 * time.Second,
	}
}

// Scheduler manages the timers of one session
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	prober    Prober
	syncer    Syncer
	reminder  Reminder
	logger    *slog.Logger
}

// New creates a scheduler. reminder may be nil.
func New(cfg Config, prober Prober, s Syncer, reminder Reminder, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	gs := gocron.NewScheduler(time.UTC)
	gs.SingletonModeAll()
	return &Scheduler{
		scheduler: gs,
		cfg:       cfg,
		prober:    prober,
		syncer:    s,
		reminder:  reminder,
		logger:    logger,
	}
}

// Start registers the jobs and runs them in the background. The probe runs
// immediately; the other jobs wait for their first interval.
func (s *Scheduler) Start() error {
	if s.cfg.ProbeInterval > 0 && s.prober != nil {
		if _, err := s.scheduler.Every(s.cfg.ProbeInterval).Tag(TagProbe).Do(s.probe); err != nil {
			return fmt.Errorf("failed to schedule connectivity probe: %w", err)
		}
	}
	if s.cfg.SyncInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.SyncInterval).WaitForSchedule().Tag(TagSync).Do(s.periodicSync); err != nil {
			return fmt.Errorf("failed to schedule periodic sync: %w", err)
		}
	}
	if s.cfg.InactivityPoll > 0 {
		if _, err := s.scheduler.Every(s.cfg.InactivityPoll).WaitForSchedule().Tag(TagInactivity).Do(s.inactivity); err != nil {
			return fmt.Errorf("failed to schedule inactivity poll: %w", err)
		}
	}
	if s.cfg.ReminderInterval > 0 && s.reminder != nil {
		if _, err := s.scheduler.Every(s.cfg.ReminderInterval).WaitForSchedule().Tag(TagReminder).Do(s.remind); err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled jobs
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.scheduler.Clear()
}

// Tags lists the tags of the registered jobs
func (s *Scheduler) Tags() []string {
	var tags []string
	for _, j := range s.scheduler.Jobs() {
		tags = append(tags, j.Tags()...)
	}
	return tags
}

func (s *Scheduler) probe() {
	timeout := s.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.prober.CheckConnectivity(ctx)
}

func (s *Scheduler) periodicSync() {
	s.syncer.Trigger(syncer.ReasonPeriodic)
}

func (s *Scheduler) inactivity() {
	threshold := s.cfg.InactivityThreshold
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	if s.syncer.CheckInactivity(threshold) {
		s.logger.Info("user inactive, flushing state", "threshold", threshold)
	}
}

func (s *Scheduler) remind() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.reminder.Check(ctx); err != nil {
		s.logger.Warn("reminder failed", "error", err)
	}
}
