package state

import (
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// Action is a named mutation of exactly one slice
type Action interface {
	Type() string
	Slice() Slice
}

// User slice

// SetUser replaces the user slice. Level and rank are recomputed from XP.
type SetUser struct{ User models.UserProgress }

// UserPatch is a partial update of the user slice. It deliberately has no
// Level or Rank field: those only change through XP.
type UserPatch struct {
	XP           *int
	Money        *int
	Profession   *string
	PersonalData *models.PersonalData
}

// UpdateUserStats merges a UserPatch into the user slice
type UpdateUserStats struct{ Patch UserPatch }

// SetOnline records the connectivity flag
type SetOnline struct{ Online bool }

func (SetUser) Type() string         { return "user/set" }
func (SetUser) Slice() Slice         { return SliceUser }
func (UpdateUserStats) Type() string { return "user/updateStats" }
func (UpdateUserStats) Slice() Slice { return SliceUser }
func (SetOnline) Type() string       { return "user/setOnline" }
func (SetOnline) Slice() Slice       { return SliceUser }

// Tasks slice

// TaskPatch is a shallow partial update of a task; nil fields are left alone
type TaskPatch struct {
	Title       *string
	Description *string
	XP          *int
	Money       *int
	Priority    *models.Priority
	StartTime   *time.Time
	EndTime     *time.Time
	Completed   *bool
}

// SetTasks replaces the tasks slice
type SetTasks struct{ Tasks map[string]models.Task }

// AddTask inserts a new task; the id must not exist yet
type AddTask struct{ Task models.Task }

// UpdateTask merges a patch into an existing task; a missing id is an error
type UpdateTask struct {
	ID    string
	Patch TaskPatch
}

// UpsertTask merges a patch into a task, creating it when missing
type UpsertTask struct {
	ID    string
	Patch TaskPatch
}

// DeleteTask removes a task by id
type DeleteTask struct{ ID string }

func (SetTasks) Type() string   { return "tasks/set" }
func (SetTasks) Slice() Slice   { return SliceTasks }
func (AddTask) Type() string    { return "tasks/add" }
func (AddTask) Slice() Slice    { return SliceTasks }
func (UpdateTask) Type() string { return "tasks/update" }
func (UpdateTask) Slice() Slice { return SliceTasks }
func (UpsertTask) Type() string { return "tasks/upsert" }
func (UpsertTask) Slice() Slice { return SliceTasks }
func (DeleteTask) Type() string { return "tasks/delete" }
func (DeleteTask) Slice() Slice { return SliceTasks }

// Flashcards slice

// FlashcardPatch is a shallow partial update of a flashcard
type FlashcardPatch struct {
	Question     *string
	Answer       *string
	GroupID      *string
	Difficulty   *models.Difficulty
	LastReviewed *time.Time
	NextReview   *time.Time
	ReviewCount  *int
	Marked       *bool
}

// SetFlashcards replaces the flashcards slice
type SetFlashcards struct{ Flashcards map[string]models.Flashcard }

// AddFlashcard inserts a new flashcard; the id must not exist yet
type AddFlashcard struct{ Flashcard models.Flashcard }

// UpdateFlashcard merges a patch into an existing flashcard
type UpdateFlashcard struct {
	ID    string
	Patch FlashcardPatch
}

// UpsertFlashcard merges a patch into a flashcard, creating it when missing
type UpsertFlashcard struct {
	ID    string
	Patch FlashcardPatch
}

// DeleteFlashcard removes a flashcard by id
type DeleteFlashcard struct{ ID string }

func (SetFlashcards) Type() string   { return "flashcards/set" }
func (SetFlashcards) Slice() Slice   { return SliceFlashcards }
func (AddFlashcard) Type() string    { return "flashcards/add" }
func (AddFlashcard) Slice() Slice    { return SliceFlashcards }
func (UpdateFlashcard) Type() string { return "flashcards/update" }
func (UpdateFlashcard) Slice() Slice { return SliceFlashcards }
func (UpsertFlashcard) Type() string { return "flashcards/upsert" }
func (UpsertFlashcard) Slice() Slice { return SliceFlashcards }
func (DeleteFlashcard) Type() string { return "flashcards/delete" }
func (DeleteFlashcard) Slice() Slice { return SliceFlashcards }

// Streaks slice

// SetStreaks replaces the streaks slice
type SetStreaks struct{ Streaks models.StreakState }

// IncrementStreak bumps the counter of one activity
type IncrementStreak struct{ Activity string }

// ResetStreak sets the counter of one activity back to zero
type ResetStreak struct{ Activity string }

// AddHistoryEntry records whether an activity was completed on a date
type AddHistoryEntry struct {
	Date      string
	Activity  string
	Completed bool
}

func (SetStreaks) Type() string      { return "streaks/set" }
func (SetStreaks) Slice() Slice      { return SliceStreaks }
func (IncrementStreak) Type() string { return "streaks/increment" }
func (IncrementStreak) Slice() Slice { return SliceStreaks }
func (ResetStreak) Type() string     { return "streaks/reset" }
func (ResetStreak) Slice() Slice     { return SliceStreaks }
func (AddHistoryEntry) Type() string { return "streaks/addHistory" }
func (AddHistoryEntry) Slice() Slice { return SliceStreaks }

// UI slice

// SetSyncStatus records the sync coordinator's state. A zero SyncedAt leaves
// the last successful sync time untouched.
type SetSyncStatus struct {
	Syncing  bool
	SyncedAt time.Time
	Error    string
}

// PushNotification appends a transient notification
type PushNotification struct{ Notification Notification }

// DismissNotification removes a notification by id
type DismissNotification struct{ ID string }

// PruneNotifications drops notifications that expired before Now
type PruneNotifications struct{ Now time.Time }

func (SetSyncStatus) Type() string       { return "ui/setSyncStatus" }
func (SetSyncStatus) Slice() Slice       { return SliceUI }
func (PushNotification) Type() string    { return "ui/pushNotification" }
func (PushNotification) Slice() Slice    { return SliceUI }
func (DismissNotification) Type() string { return "ui/dismissNotification" }
func (DismissNotification) Slice() Slice { return SliceUI }
func (PruneNotifications) Type() string  { return "ui/pruneNotifications" }
func (PruneNotifications) Slice() Slice  { return SliceUI }
