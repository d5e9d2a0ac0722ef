package state

import (
	"fmt"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// ReviewXP is awarded for every flashcard review graded as a pass.
const ReviewXP = 5

// ReviewPolicy schedules the next review of a flashcard.
type ReviewPolicy interface {
	Next(card models.Flashcard, grade int, now time.Time) (models.Flashcard, error)
	Passed(grade int) bool
}

// CompleteTask marks a task completed and credits its XP and money to the
// user once. Completing an already completed task is a no-op.
func CompleteTask(id string) Thunk {
	return func(s State) ([]Action, error) {
		t, ok := s.Tasks[id]
		if !ok {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if t.Completed {
			return nil, nil
		}
		done := true
		xp := s.User.XP + t.XP
		money := s.User.Money + t.Money
		return []Action{
			UpdateTask{ID: id, Patch: TaskPatch{Completed: &done}},
			UpdateUserStats{Patch: UserPatch{XP: &xp, Money: &money}},
		}, nil
	}
}

// ReviewFlashcard grades a card, stores the schedule computed by policy
// verbatim and rewards passing reviews.
func ReviewFlashcard(id string, grade int, policy ReviewPolicy, now time.Time) Thunk {
	return func(s State) ([]Action, error) {
		card, ok := s.Flashcards[id]
		if !ok {
			return nil, fmt.Errorf("flashcard %s: %w", id, ErrNotFound)
		}
		next, err := policy.Next(card, grade, now)
		if err != nil {
			return nil, err
		}

		patch := FlashcardPatch{
			NextReview:  &next.NextReview,
			ReviewCount: &next.ReviewCount,
		}
		if next.LastReviewed != nil {
			patch.LastReviewed = next.LastReviewed
		}
		actions := []Action{UpdateFlashcard{ID: id, Patch: patch}}

		if policy.Passed(grade) {
			xp := s.User.XP + ReviewXP
			actions = append(actions, UpdateUserStats{Patch: UserPatch{XP: &xp}})
		}
		return actions, nil
	}
}

// RecordActivity marks an activity completed on a date and bumps its streak.
// Recording the same activity twice on one date counts once.
func RecordActivity(activity, date string) Thunk {
	return func(s State) ([]Action, error) {
		if s.Streaks.History[date][activity] {
			return nil, nil
		}
		return []Action{
			IncrementStreak{Activity: activity},
			AddHistoryEntry{Date: date, Activity: activity, Completed: true},
		}, nil
	}
}
