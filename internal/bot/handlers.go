package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/spacedrep"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/syncer"
)

// Read-only views still count as activity for the inactivity sync.

func (b *Bot) status() Reply {
	b.session.Touch()
	s := b.session.State()
	u := s.User

	var sb strings.Builder
	fmt.Fprintf(&sb, "Level %d, rank %s\n", u.Level, u.Rank)
	fmt.Fprintf(&sb, "XP: %d\nMoney: %d\n", u.XP, u.Money)
	fmt.Fprintf(&sb, "Pending tasks: %d\n", len(s.PendingTasks()))
	fmt.Fprintf(&sb, "Due cards: %d\n", len(s.DueFlashcards(b.now())))
	switch {
	case s.UI.Syncing:
		sb.WriteString("Sync: in progress")
	case s.UI.LastSyncError != "":
		fmt.Fprintf(&sb, "Sync: failed (%s)", s.UI.LastSyncError)
	case !s.UI.LastSyncedAt.IsZero():
		fmt.Fprintf(&sb, "Last sync: %s", s.UI.LastSyncedAt.Local().Format("02 Jan 15:04"))
	default:
		sb.WriteString("Not synced yet")
	}
	return Reply{Text: sb.String(), Keyboard: mainMenu()}
}

func (b *Bot) tasks() Reply {
	b.session.Touch()
	pending := b.session.State().PendingTasks()
	if len(pending) == 0 {
		return Reply{Text: "No pending tasks."}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].EndTime.Equal(pending[j].EndTime) {
			return pending[i].EndTime.Before(pending[j].EndTime)
		}
		return pending[i].ID < pending[j].ID
	})

	var sb strings.Builder
	var buttons [][]MenuButton
	for _, t := range pending {
		fmt.Fprintf(&sb, "• %s (+%d XP, +%d money)\n  id: %s\n", t.Title, t.XP, t.Money, t.ID)
		buttons = append(buttons, []MenuButton{{Text: "Done: " + t.Title, CallbackData: "done:" + t.ID}})
	}
	return Reply{Text: sb.String(), Keyboard: buttons}
}

func (b *Bot) completeTask(id string) Reply {
	if id == "" {
		return Reply{Text: "Usage: /done <task id>"}
	}
	s := b.session.State()
	if t, ok := s.Tasks[id]; ok && t.Completed {
		return Reply{Text: "That task is already done."}
	}
	before := s.User
	if err := b.session.CompleteTask(id); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return Reply{Text: "No such task."}
		}
		b.logger.Warn("failed to complete task", "task_id", id, "error", err)
		return Reply{Text: "Could not complete the task."}
	}
	after := b.session.State().User
	text := fmt.Sprintf("Done! +%d XP, +%d money.", after.XP-before.XP, after.Money-before.Money)
	if after.Level > before.Level {
		text += fmt.Sprintf("\nLevel up: %d, rank %s", after.Level, after.Rank)
	}
	return Reply{Text: text}
}

func (b *Bot) due() Reply {
	b.session.Touch()
	cards := spacedrep.DueQueue(b.session.State().Flashcards, b.now(), b.cfg.DueLimit)
	if len(cards) == 0 {
		return Reply{Text: "Nothing to review."}
	}
	var sb strings.Builder
	var buttons [][]MenuButton
	for i, c := range cards {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Question)
		buttons = append(buttons, []MenuButton{{Text: fmt.Sprintf("Answer %d", i+1), CallbackData: "show:" + c.ID}})
	}
	return Reply{Text: sb.String(), Keyboard: buttons}
}

func (b *Bot) showAnswer(id string) Reply {
	b.session.Touch()
	card, ok := b.session.State().Flashcards[id]
	if !ok {
		return Reply{Text: "No such card."}
	}
	return Reply{
		Text: fmt.Sprintf("%s\n\n%s\n\nHow well did you know it?", card.Question, card.Answer),
		Keyboard: [][]MenuButton{{
			{Text: "Forgot", CallbackData: reviewData(id, spacedrep.QualityIncorrect)},
			{Text: "Hard", CallbackData: reviewData(id, spacedrep.QualityCorrectDifficult)},
			{Text: "Good", CallbackData: reviewData(id, spacedrep.QualityCorrectHesitation)},
			{Text: "Easy", CallbackData: reviewData(id, spacedrep.QualityPerfect)},
		}},
	}
}

func reviewData(id string, q spacedrep.Quality) string {
	return fmt.Sprintf("review:%s:%d", id, q)
}

func (b *Bot) review(id string, grade int) Reply {
	if err := b.session.ReviewFlashcard(id, grade); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return Reply{Text: "No such card."}
		}
		b.logger.Warn("failed to review flashcard", "card_id", id, "error", err)
		return Reply{Text: "Could not record the review."}
	}
	card := b.session.State().Flashcards[id]
	return Reply{Text: fmt.Sprintf("Next review on %s.", card.NextReview.Local().Format("02 Jan"))}
}

func (b *Bot) recordActivity(ctx context.Context, activity string) Reply {
	if activity == "" {
		return Reply{Text: "Usage: /streak <activity>"}
	}
	if err := b.session.RecordActivity(ctx, activity, ""); err != nil {
		b.logger.Warn("failed to record activity", "activity", activity, "error", err)
		return Reply{Text: "Could not record the activity."}
	}
	count := b.session.State().Streaks.Streaks[activity]
	return Reply{Text: fmt.Sprintf("%s streak: %d", activity, count)}
}

func (b *Bot) sync(ctx context.Context) Reply {
	err := b.session.Flush(ctx)
	switch {
	case err == nil:
		return Reply{Text: "Synced."}
	case errors.Is(err, syncer.ErrOffline):
		return Reply{Text: "Offline, changes are saved locally."}
	case errors.Is(err, syncer.ErrSyncInFlight):
		return Reply{Text: "A sync is already running."}
	default:
		b.logger.Warn("manual sync failed", "error", err)
		return Reply{Text: "Sync failed, will retry later."}
	}
}
