package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/spacedrep"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/syncer"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeSession struct {
	c        *state.Container
	flushErr error
	flushes  int
	touches  int
}

func newFakeSession(t *testing.T) *fakeSession {
	t.Helper()
	c := state.NewContainer()
	require.NoError(t, c.Dispatch(
		state.AddTask{Task: models.Task{ID: "t1", Title: "Write report", XP: 700, Money: 10, Priority: models.PriorityHigh}},
		state.AddFlashcard{Flashcard: models.Flashcard{ID: "c1", Question: "2+2?", Answer: "4", Difficulty: models.DifficultyEasy, NextReview: now.Add(-time.Hour)}},
	))
	return &fakeSession{c: c}
}

func (f *fakeSession) State() state.State { return f.c.Snapshot() }

func (f *fakeSession) CompleteTask(id string) error {
	return f.c.DispatchFunc(state.CompleteTask(id))
}

func (f *fakeSession) ReviewFlashcard(id string, grade int) error {
	return f.c.DispatchFunc(state.ReviewFlashcard(id, grade, spacedrep.NewSM2(), now))
}

func (f *fakeSession) RecordActivity(_ context.Context, activity, date string) error {
	if date == "" {
		date = state.Today(now)
	}
	return f.c.DispatchFunc(state.RecordActivity(activity, date))
}

func (f *fakeSession) Touch() { f.touches++ }

func (f *fakeSession) Flush(context.Context) error {
	f.flushes++
	return f.flushErr
}

type fakeAPI struct {
	updates  chan tgbotapi.Update
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }
func (f *fakeAPI) StopReceivingUpdates()                                        {}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestBot(t *testing.T) (*Bot, *fakeSession, *fakeAPI) {
	sess := newFakeSession(t)
	a := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
	b := newBot(a, Config{ChatID: 7}, sess, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.now = func() time.Time { return now }
	return b, sess, a
}

func TestStatus(t *testing.T) {
	b, _, _ := newTestBot(t)

	r := b.HandleCommand(context.Background(), "status", "")

	assert.Contains(t, r.Text, "Level 1, rank E")
	assert.Contains(t, r.Text, "Pending tasks: 1")
	assert.Contains(t, r.Text, "Due cards: 1")
	assert.Contains(t, r.Text, "Not synced yet")
	assert.NotEmpty(t, r.Keyboard)
}

func TestReadOnlyViews_RecordActivity(t *testing.T) {
	tests := []struct {
		name string
		view func(b *Bot) Reply
	}{
		{"status command", func(b *Bot) Reply { return b.HandleCommand(context.Background(), "status", "") }},
		{"tasks command", func(b *Bot) Reply { return b.HandleCommand(context.Background(), "tasks", "") }},
		{"due command", func(b *Bot) Reply { return b.HandleCommand(context.Background(), "due", "") }},
		{"status button", func(b *Bot) Reply { return b.HandleCallback(context.Background(), "status") }},
		{"show answer", func(b *Bot) Reply { return b.HandleCallback(context.Background(), "show:c1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, sess, _ := newTestBot(t)
			before := sess.State()

			tt.view(b)

			assert.Equal(t, 1, sess.touches)
			assert.Equal(t, before.Tasks, sess.State().Tasks)
			assert.Equal(t, before.User, sess.State().User)
		})
	}
}

func TestDone_CreditsRewardOnce(t *testing.T) {
	b, sess, _ := newTestBot(t)

	r := b.HandleCommand(context.Background(), "done", "t1")
	assert.Contains(t, r.Text, "+700 XP, +10 money")
	assert.Contains(t, r.Text, "Level up")

	r = b.HandleCommand(context.Background(), "done", "t1")
	assert.Equal(t, "That task is already done.", r.Text)
	assert.Equal(t, 700, sess.State().User.XP)

	assert.Equal(t, "No such task.", b.HandleCommand(context.Background(), "done", "nope").Text)
	assert.Contains(t, b.HandleCommand(context.Background(), "done", "").Text, "Usage")
}

func TestReviewFlow(t *testing.T) {
	b, sess, _ := newTestBot(t)
	ctx := context.Background()

	due := b.HandleCommand(ctx, "due", "")
	require.Len(t, due.Keyboard, 1)
	assert.Equal(t, "show:c1", due.Keyboard[0][0].CallbackData)

	show := b.HandleCallback(ctx, "show:c1")
	assert.Contains(t, show.Text, "4")
	require.Len(t, show.Keyboard[0], 4)

	r := b.HandleCallback(ctx, fmt.Sprintf("review:c1:%d", spacedrep.QualityPerfect))
	assert.Contains(t, r.Text, "Next review on 11 Mar")

	s := sess.State()
	assert.Equal(t, 1, s.Flashcards["c1"].ReviewCount)
	assert.Equal(t, state.ReviewXP, s.User.XP)
	assert.Equal(t, "Nothing to review.", b.HandleCommand(ctx, "due", "").Text)
}

func TestStreakCommand(t *testing.T) {
	b, _, _ := newTestBot(t)

	r := b.HandleCommand(context.Background(), "streak", "gym")

	assert.Equal(t, "gym streak: 1", r.Text)
}

func TestSyncCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ok", nil, "Synced."},
		{"offline", syncer.ErrOffline, "Offline, changes are saved locally."},
		{"busy", syncer.ErrSyncInFlight, "A sync is already running."},
		{"failed", errors.New("boom"), "Sync failed, will retry later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, sess, _ := newTestBot(t)
			sess.flushErr = tt.err

			assert.Equal(t, tt.want, b.HandleCommand(context.Background(), "sync", "").Text)
			assert.Equal(t, 1, sess.flushes)
		})
	}
}

func TestRun_AnswersOnlyConfiguredChat(t *testing.T) {
	b, _, a := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	command := func(chatID int64, text string) tgbotapi.Update {
		return tgbotapi.Update{Message: &tgbotapi.Message{
			Text:     text,
			Chat:     &tgbotapi.Chat{ID: chatID},
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		}}
	}
	a.updates <- command(99, "/status")
	a.updates <- command(7, "/help")
	a.updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    "tasks",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}},
	}}
	close(a.updates)

	require.NoError(t, b.Run(ctx))
	cancel()

	require.Len(t, a.sent, 2)
	assert.Equal(t, helpText, a.sent[0].Text)
	assert.Contains(t, a.sent[1].Text, "Write report")
	assert.Equal(t, 1, a.requests)
}
