// Package state holds the in-session business state of one user.
//
// The state is split into five slices (user, tasks, flashcards, streaks, ui).
// Slices are only changed by dispatching named actions through a Container;
// reducers are pure and copy-on-write, so a State value handed out by the
// container is never mutated afterwards.
package state

import (
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/progression"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// Slice names an independently addressable partition of the state
type Slice string

const (
	SliceUser       Slice = "user"
	SliceTasks      Slice = "tasks"
	SliceFlashcards Slice = "flashcards"
	SliceStreaks    Slice = "streaks"
	SliceUI         Slice = "ui"
)

// PersistedSlices are the slices mirrored into local durable storage.
var PersistedSlices = []Slice{SliceUser, SliceTasks, SliceFlashcards, SliceStreaks}

// Persisted reports whether the slice is mirrored into local durable storage
func (s Slice) Persisted() bool {
	for _, p := range PersistedSlices {
		if p == s {
			return true
		}
	}
	return false
}

// NotificationLevel classifies a transient notification
type NotificationLevel string

const (
	LevelInfo  NotificationLevel = "info"
	LevelError NotificationLevel = "error"
)

// Notification is a transient, auto-dismissing user-visible message
type Notification struct {
	ID        string
	Level     NotificationLevel
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// UIState is the transient slice; it is never persisted
type UIState struct {
	Syncing       bool
	LastSyncedAt  time.Time
	LastSyncError string
	Notifications []Notification
}

// State is the full in-memory state of a session
type State struct {
	User       models.UserProgress
	Tasks      map[string]models.Task
	Flashcards map[string]models.Flashcard
	Streaks    models.StreakState
	UI         UIState
}

// NewState returns the empty state a user starts with at first login
func NewState() State {
	s := State{
		Tasks:      make(map[string]models.Task),
		Flashcards: make(map[string]models.Flashcard),
		Streaks:    models.NewStreakState(),
	}
	progression.Apply(&s.User)
	return s
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	dup := s
	dup.Tasks = models.CloneTasks(s.Tasks)
	dup.Flashcards = models.CloneFlashcards(s.Flashcards)
	dup.Streaks = s.Streaks.Clone()
	if s.UI.Notifications != nil {
		dup.UI.Notifications = append([]Notification(nil), s.UI.Notifications...)
	}
	return dup
}

// Envelope builds the aggregate document pushed to the remote store.
func (s State) Envelope() models.SyncEnvelope {
	streaks := s.Streaks.Clone()
	return models.SyncEnvelope{
		XP:            s.User.XP,
		Money:         s.User.Money,
		Level:         s.User.Level,
		Rank:          s.User.Rank,
		PersonalData:  s.User.PersonalData,
		Profession:    s.User.Profession,
		Tasks:         models.CloneTasks(s.Tasks),
		FlashCards:    models.CloneFlashcards(s.Flashcards),
		Streaks:       streaks.Streaks,
		StreakHistory: streaks.History,
	}
}

// FromEnvelope splits a remote document into the persisted slices.
func FromEnvelope(env models.SyncEnvelope) (models.UserProgress, map[string]models.Task, map[string]models.Flashcard, models.StreakState) {
	user := models.UserProgress{
		XP:           env.XP,
		Money:        env.Money,
		Profession:   env.Profession,
		PersonalData: env.PersonalData,
	}
	progression.Apply(&user)

	streaks := models.StreakState{Streaks: env.Streaks, History: env.StreakHistory}.Clone()
	return user, models.CloneTasks(env.Tasks), models.CloneFlashcards(env.FlashCards), streaks
}

// PendingTasks returns the tasks that are not completed yet
func (s State) PendingTasks() []models.Task {
	var out []models.Task
	for _, t := range s.Tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// DueFlashcards returns the cards due for review at the given time
func (s State) DueFlashcards(now time.Time) []models.Flashcard {
	var out []models.Flashcard
	for _, c := range s.Flashcards {
		if c.IsDue(now) {
			out = append(out, c)
		}
	}
	return out
}
