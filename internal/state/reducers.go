package state

import (
	"fmt"
	"strings"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/progression"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// reduce routes an action to the reducer of its slice. Reducers never modify
// their input: maps are cloned before being written.
func reduce(s State, a Action) (State, error) {
	var err error
	switch a.Slice() {
	case SliceUser:
		s.User, err = reduceUser(s.User, a)
	case SliceTasks:
		s.Tasks, err = reduceTasks(s.Tasks, a)
	case SliceFlashcards:
		s.Flashcards, err = reduceFlashcards(s.Flashcards, a)
	case SliceStreaks:
		s.Streaks, err = reduceStreaks(s.Streaks, a)
	case SliceUI:
		s.UI, err = reduceUI(s.UI, a)
	default:
		err = fmt.Errorf("%w: unknown slice %q", ErrInvalidAction, a.Slice())
	}
	return s, err
}

func reduceUser(u models.UserProgress, a Action) (models.UserProgress, error) {
	switch act := a.(type) {
	case SetUser:
		next := act.User
		if next.XP < 0 || next.Money < 0 {
			return u, fmt.Errorf("%w: negative xp or money", ErrInvalidAction)
		}
		next.IsOnline = u.IsOnline
		progression.Apply(&next)
		return next, nil

	case UpdateUserStats:
		p := act.Patch
		if p.XP != nil {
			if *p.XP < 0 {
				return u, fmt.Errorf("%w: negative xp", ErrInvalidAction)
			}
			u.XP = *p.XP
			progression.Apply(&u)
		}
		if p.Money != nil {
			if *p.Money < 0 {
				return u, fmt.Errorf("%w: negative money", ErrInvalidAction)
			}
			u.Money = *p.Money
		}
		if p.Profession != nil {
			u.Profession = *p.Profession
		}
		if p.PersonalData != nil {
			u.PersonalData = *p.PersonalData
		}
		return u, nil

	case SetOnline:
		u.IsOnline = act.Online
		return u, nil
	}
	return u, fmt.Errorf("%w: %s", ErrInvalidAction, a.Type())
}

func reduceTasks(tasks map[string]models.Task, a Action) (map[string]models.Task, error) {
	switch act := a.(type) {
	case SetTasks:
		if err := ValidateTasks(act.Tasks); err != nil {
			return tasks, err
		}
		if act.Tasks == nil {
			return make(map[string]models.Task), nil
		}
		return models.CloneTasks(act.Tasks), nil

	case AddTask:
		if err := validateTask(act.Task); err != nil {
			return tasks, err
		}
		if _, ok := tasks[act.Task.ID]; ok {
			return tasks, fmt.Errorf("task %s: %w", act.Task.ID, ErrDuplicate)
		}
		next := models.CloneTasks(tasks)
		next[act.Task.ID] = act.Task
		return next, nil

	case UpdateTask:
		t, ok := tasks[act.ID]
		if !ok {
			return tasks, fmt.Errorf("task %s: %w", act.ID, ErrNotFound)
		}
		return putTask(tasks, mergeTask(t, act.Patch))

	case UpsertTask:
		t, ok := tasks[act.ID]
		if !ok {
			t = models.Task{ID: act.ID, Priority: models.PriorityMedium}
		}
		return putTask(tasks, mergeTask(t, act.Patch))

	case DeleteTask:
		if _, ok := tasks[act.ID]; !ok {
			return tasks, fmt.Errorf("task %s: %w", act.ID, ErrNotFound)
		}
		next := models.CloneTasks(tasks)
		delete(next, act.ID)
		return next, nil
	}
	return tasks, fmt.Errorf("%w: %s", ErrInvalidAction, a.Type())
}

func putTask(tasks map[string]models.Task, t models.Task) (map[string]models.Task, error) {
	if err := validateTask(t); err != nil {
		return tasks, err
	}
	next := models.CloneTasks(tasks)
	next[t.ID] = t
	return next, nil
}

func mergeTask(t models.Task, p TaskPatch) models.Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.XP != nil {
		t.XP = *p.XP
	}
	if p.Money != nil {
		t.Money = *p.Money
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		t.EndTime = *p.EndTime
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// ValidateTasks checks every task of a whole slice
func ValidateTasks(tasks map[string]models.Task) error {
	for _, t := range tasks {
		if err := validateTask(t); err != nil {
			return err
		}
	}
	return nil
}

func validateTask(t models.Task) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: task id is empty", ErrInvalidAction)
	}
	if t.XP < 0 || t.Money < 0 {
		return fmt.Errorf("%w: task %s has negative reward", ErrInvalidAction, t.ID)
	}
	if t.Priority != "" && !t.Priority.Valid() {
		return fmt.Errorf("%w: task %s has unknown priority %q", ErrInvalidAction, t.ID, t.Priority)
	}
	return nil
}

func reduceFlashcards(cards map[string]models.Flashcard, a Action) (map[string]models.Flashcard, error) {
	switch act := a.(type) {
	case SetFlashcards:
		if err := ValidateFlashcards(act.Flashcards); err != nil {
			return cards, err
		}
		if act.Flashcards == nil {
			return make(map[string]models.Flashcard), nil
		}
		return models.CloneFlashcards(act.Flashcards), nil

	case AddFlashcard:
		if err := validateFlashcard(act.Flashcard); err != nil {
			return cards, err
		}
		if _, ok := cards[act.Flashcard.ID]; ok {
			return cards, fmt.Errorf("flashcard %s: %w", act.Flashcard.ID, ErrDuplicate)
		}
		next := models.CloneFlashcards(cards)
		next[act.Flashcard.ID] = act.Flashcard
		return next, nil

	case UpdateFlashcard:
		c, ok := cards[act.ID]
		if !ok {
			return cards, fmt.Errorf("flashcard %s: %w", act.ID, ErrNotFound)
		}
		return putFlashcard(cards, mergeFlashcard(c, act.Patch))

	case UpsertFlashcard:
		c, ok := cards[act.ID]
		if !ok {
			c = models.Flashcard{ID: act.ID, Difficulty: models.DifficultyMedium}
		}
		return putFlashcard(cards, mergeFlashcard(c, act.Patch))

	case DeleteFlashcard:
		if _, ok := cards[act.ID]; !ok {
			return cards, fmt.Errorf("flashcard %s: %w", act.ID, ErrNotFound)
		}
		next := models.CloneFlashcards(cards)
		delete(next, act.ID)
		return next, nil
	}
	return cards, fmt.Errorf("%w: %s", ErrInvalidAction, a.Type())
}

func putFlashcard(cards map[string]models.Flashcard, c models.Flashcard) (map[string]models.Flashcard, error) {
	if err := validateFlashcard(c); err != nil {
		return cards, err
	}
	next := models.CloneFlashcards(cards)
	next[c.ID] = c
	return next, nil
}

func mergeFlashcard(c models.Flashcard, p FlashcardPatch) models.Flashcard {
	if p.Question != nil {
		c.Question = *p.Question
	}
	if p.Answer != nil {
		c.Answer = *p.Answer
	}
	if p.GroupID != nil {
		c.GroupID = *p.GroupID
	}
	if p.Difficulty != nil {
		c.Difficulty = *p.Difficulty
	}
	if p.LastReviewed != nil {
		t := *p.LastReviewed
		c.LastReviewed = &t
	}
	if p.NextReview != nil {
		c.NextReview = *p.NextReview
	}
	if p.ReviewCount != nil {
		c.ReviewCount = *p.ReviewCount
	}
	if p.Marked != nil {
		c.Marked = *p.Marked
	}
	return c
}

// ValidateFlashcards checks every card of a whole slice
func ValidateFlashcards(cards map[string]models.Flashcard) error {
	for _, c := range cards {
		if err := validateFlashcard(c); err != nil {
			return err
		}
	}
	return nil
}

func validateFlashcard(c models.Flashcard) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: flashcard id is empty", ErrInvalidAction)
	}
	if c.ReviewCount < 0 {
		return fmt.Errorf("%w: flashcard %s has negative review count", ErrInvalidAction, c.ID)
	}
	if c.Difficulty != "" && !c.Difficulty.Valid() {
		return fmt.Errorf("%w: flashcard %s has unknown difficulty %q", ErrInvalidAction, c.ID, c.Difficulty)
	}
	return nil
}

// ValidateStreaks rejects negative counters and malformed history dates
func ValidateStreaks(st models.StreakState) error {
	for activity, n := range st.Streaks {
		if n < 0 {
			return fmt.Errorf("%w: streak %s is negative", ErrInvalidAction, activity)
		}
	}
	for date := range st.History {
		if !validDate(date) {
			return fmt.Errorf("%w: bad history date %q", ErrInvalidAction, date)
		}
	}
	return nil
}

func reduceStreaks(s models.StreakState, a Action) (models.StreakState, error) {
	switch act := a.(type) {
	case SetStreaks:
		if err := ValidateStreaks(act.Streaks); err != nil {
			return s, err
		}
		return act.Streaks.Clone(), nil

	case IncrementStreak:
		if strings.TrimSpace(act.Activity) == "" {
			return s, fmt.Errorf("%w: empty activity", ErrInvalidAction)
		}
		next := s.Clone()
		next.Streaks[act.Activity]++
		return next, nil

	case ResetStreak:
		next := s.Clone()
		next.Streaks[act.Activity] = 0
		return next, nil

	case AddHistoryEntry:
		if strings.TrimSpace(act.Activity) == "" {
			return s, fmt.Errorf("%w: empty activity", ErrInvalidAction)
		}
		if !validDate(act.Date) {
			return s, fmt.Errorf("%w: bad date %q", ErrInvalidAction, act.Date)
		}
		next := s.Clone()
		day, ok := next.History[act.Date]
		if !ok {
			day = make(map[string]bool)
			next.History[act.Date] = day
		}
		day[act.Activity] = act.Completed
		return next, nil
	}
	return s, fmt.Errorf("%w: %s", ErrInvalidAction, a.Type())
}

func reduceUI(ui UIState, a Action) (UIState, error) {
	switch act := a.(type) {
	case SetSyncStatus:
		ui.Syncing = act.Syncing
		ui.LastSyncError = act.Error
		if !act.SyncedAt.IsZero() {
			ui.LastSyncedAt = act.SyncedAt
		}
		return ui, nil

	case PushNotification:
		ui.Notifications = append(append([]Notification(nil), ui.Notifications...), act.Notification)
		return ui, nil

	case DismissNotification:
		ui.Notifications = filterNotifications(ui.Notifications, func(n Notification) bool {
			return n.ID != act.ID
		})
		return ui, nil

	case PruneNotifications:
		ui.Notifications = filterNotifications(ui.Notifications, func(n Notification) bool {
			return n.ExpiresAt.IsZero() || n.ExpiresAt.After(act.Now)
		})
		return ui, nil
	}
	return ui, fmt.Errorf("%w: %s", ErrInvalidAction, a.Type())
}

func filterNotifications(in []Notification, keep func(Notification) bool) []Notification {
	var out []Notification
	for _, n := range in {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
