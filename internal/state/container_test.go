package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/progression"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func newTask(id string, xp int) models.Task {
	return models.Task{ID: id, Title: "task " + id, XP: xp, Money: 10, Priority: models.PriorityMedium}
}

func TestNewContainer_StartsEmpty(t *testing.T) {
	c := NewContainer()
	s := c.Snapshot()

	assert.Equal(t, 0, s.User.XP)
	assert.Equal(t, 1, s.User.Level)
	assert.Equal(t, models.RankE, s.User.Rank)
	assert.Empty(t, s.Tasks)
	assert.Empty(t, s.Flashcards)
	assert.Empty(t, s.Streaks.Streaks)
}

func TestCompleteTask_RecomputesLevel(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(
		SetUser{User: models.UserProgress{XP: 650}},
		AddTask{Task: newTask("t1", 100)},
	))

	require.NoError(t, c.DispatchFunc(CompleteTask("t1")))

	s := c.Snapshot()
	assert.Equal(t, 750, s.User.XP)
	assert.Equal(t, 2, s.User.Level)
	assert.Equal(t, models.RankE, s.User.Rank)
	assert.Equal(t, 10, s.User.Money)
	assert.True(t, s.Tasks["t1"].Completed)
}

func TestCompleteTask_OnlyRewardsOnce(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(AddTask{Task: newTask("t1", 100)}))

	require.NoError(t, c.DispatchFunc(CompleteTask("t1")))
	require.NoError(t, c.DispatchFunc(CompleteTask("t1")))

	assert.Equal(t, 100, c.Snapshot().User.XP)
}

func TestCompleteTask_Missing(t *testing.T) {
	c := NewContainer()
	err := c.DispatchFunc(CompleteTask("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserStats_LevelFollowsXP(t *testing.T) {
	c := NewContainer()
	xps := []int{0, 699, 700, 6999, 7000, 13_999, 14_000, 62_999, 63_000}

	for _, xp := range xps {
		require.NoError(t, c.Dispatch(UpdateUserStats{Patch: UserPatch{XP: intPtr(xp)}}))
		u := c.Snapshot().User
		assert.True(t, progression.Consistent(u), "xp=%d level=%d rank=%s", xp, u.Level, u.Rank)
	}
}

func TestUpdateUserStats_WithoutXPKeepsLevel(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(UpdateUserStats{Patch: UserPatch{XP: intPtr(7000)}}))
	require.NoError(t, c.Dispatch(UpdateUserStats{Patch: UserPatch{
		Money:      intPtr(30),
		Profession: strPtr("Mage"),
	}}))

	u := c.Snapshot().User
	assert.Equal(t, 11, u.Level)
	assert.Equal(t, models.RankD, u.Rank)
	assert.Equal(t, 30, u.Money)
	assert.Equal(t, "Mage", u.Profession)
}

func TestUpdateUserStats_RejectsNegative(t *testing.T) {
	c := NewContainer()
	err := c.Dispatch(UpdateUserStats{Patch: UserPatch{XP: intPtr(-1)}})
	assert.ErrorIs(t, err, ErrInvalidAction)

	err = c.Dispatch(UpdateUserStats{Patch: UserPatch{Money: intPtr(-1)}})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestSetUser_NormalizesDerivedFields(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(SetUser{User: models.UserProgress{XP: 1400, Level: 99, Rank: models.RankSS}}))

	u := c.Snapshot().User
	assert.Equal(t, 3, u.Level)
	assert.Equal(t, models.RankE, u.Rank)
}

func TestSetUser_KeepsOnlineFlag(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(SetOnline{Online: true}))
	require.NoError(t, c.Dispatch(SetUser{User: models.UserProgress{XP: 10}}))
	assert.True(t, c.Online())
}

func TestUpdateTask_MissingIsError(t *testing.T) {
	c := NewContainer()
	err := c.Dispatch(UpdateTask{ID: "ghost", Patch: TaskPatch{Title: strPtr("x")}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, c.Snapshot().Tasks)
}

func TestUpsertTask_CreatesWhenMissing(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(UpsertTask{ID: "t9", Patch: TaskPatch{Title: strPtr("new"), XP: intPtr(5)}}))

	task := c.Snapshot().Tasks["t9"]
	assert.Equal(t, "new", task.Title)
	assert.Equal(t, 5, task.XP)
	assert.Equal(t, models.PriorityMedium, task.Priority)
}

func TestUpdateTask_ShallowMerge(t *testing.T) {
	c := NewContainer()
	orig := newTask("t1", 40)
	orig.Description = "keep me"
	require.NoError(t, c.Dispatch(AddTask{Task: orig}))

	high := models.PriorityHigh
	require.NoError(t, c.Dispatch(UpdateTask{ID: "t1", Patch: TaskPatch{Title: strPtr("renamed"), Priority: &high}}))

	task := c.Snapshot().Tasks["t1"]
	assert.Equal(t, "renamed", task.Title)
	assert.Equal(t, "keep me", task.Description)
	assert.Equal(t, 40, task.XP)
	assert.Equal(t, models.PriorityHigh, task.Priority)
}

func TestAddTask_Validation(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
		want error
	}{
		{"empty id", models.Task{Title: "x"}, ErrInvalidAction},
		{"negative xp", models.Task{ID: "a", XP: -1}, ErrInvalidAction},
		{"bad priority", models.Task{ID: "a", Priority: "urgent"}, ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContainer()
			assert.ErrorIs(t, c.Dispatch(AddTask{Task: tt.task}), tt.want)
		})
	}

	c := NewContainer()
	require.NoError(t, c.Dispatch(AddTask{Task: newTask("a", 1)}))
	assert.ErrorIs(t, c.Dispatch(AddTask{Task: newTask("a", 1)}), ErrDuplicate)
}

func TestSetSlices_ValidateEveryItem(t *testing.T) {
	tests := []struct {
		name   string
		action Action
	}{
		{"negative task reward", SetTasks{Tasks: map[string]models.Task{"a": {ID: "a", Money: -5}}}},
		{"unknown priority", SetTasks{Tasks: map[string]models.Task{"a": {ID: "a", Priority: "urgent"}}}},
		{"task without id", SetTasks{Tasks: map[string]models.Task{"a": {Title: "a"}}}},
		{"negative review count", SetFlashcards{Flashcards: map[string]models.Flashcard{"f": {ID: "f", ReviewCount: -1}}}},
		{"unknown difficulty", SetFlashcards{Flashcards: map[string]models.Flashcard{"f": {ID: "f", Difficulty: "brutal"}}}},
		{"negative streak", SetStreaks{Streaks: models.StreakState{Streaks: map[string]int{"run": -1}}}},
		{"bad history date", SetStreaks{Streaks: models.StreakState{History: map[string]map[string]bool{"01/02/2026": {"run": true}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContainer()
			require.NoError(t, c.Dispatch(AddTask{Task: newTask("keep", 1)}))
			assert.ErrorIs(t, c.Dispatch(tt.action), ErrInvalidAction)
			assert.Contains(t, c.Snapshot().Tasks, "keep")
		})
	}

	c := NewContainer()
	require.NoError(t, c.Dispatch(
		SetTasks{Tasks: map[string]models.Task{"a": newTask("a", 5)}},
		SetFlashcards{Flashcards: map[string]models.Flashcard{"f": {ID: "f", Difficulty: models.DifficultyHard}}},
		SetStreaks{Streaks: models.StreakState{Streaks: map[string]int{"run": 3}}},
	))
	assert.Equal(t, 3, c.Snapshot().Streaks.Streaks["run"])
}

func TestDeleteTask(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(AddTask{Task: newTask("a", 1)}, AddTask{Task: newTask("b", 1)}))
	require.NoError(t, c.Dispatch(DeleteTask{ID: "a"}))

	s := c.Snapshot()
	assert.NotContains(t, s.Tasks, "a")
	assert.Contains(t, s.Tasks, "b")
	assert.ErrorIs(t, c.Dispatch(DeleteTask{ID: "a"}), ErrNotFound)
}

func TestDispatch_FailedBatchCommitsNothing(t *testing.T) {
	c := NewContainer()
	var seen []string
	c.Use(func(a Action, _ State) { seen = append(seen, a.Type()) })

	err := c.Dispatch(
		AddTask{Task: newTask("a", 1)},
		UpdateTask{ID: "missing", Patch: TaskPatch{Completed: boolPtr(true)}},
	)

	require.Error(t, err)
	assert.Empty(t, c.Snapshot().Tasks)
	assert.Empty(t, seen)
}

func TestDispatch_MiddlewareSeesEachStep(t *testing.T) {
	c := NewContainer()
	var counts []int
	c.Use(func(a Action, next State) { counts = append(counts, len(next.Tasks)) })

	require.NoError(t, c.Dispatch(
		AddTask{Task: newTask("a", 1)},
		AddTask{Task: newTask("b", 1)},
		DeleteTask{ID: "a"},
	))

	assert.Equal(t, []int{1, 2, 1}, counts)
}

func TestSnapshot_IsIsolated(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(AddTask{Task: newTask("a", 1)}))

	snap := c.Snapshot()
	snap.Tasks["b"] = newTask("b", 2)
	delete(snap.Tasks, "a")

	s := c.Snapshot()
	assert.Contains(t, s.Tasks, "a")
	assert.NotContains(t, s.Tasks, "b")
}

func TestDispatch_ConcurrentCompletionsAreSerialized(t *testing.T) {
	c := NewContainer()
	for i := 0; i < 50; i++ {
		require.NoError(t, c.Dispatch(AddTask{Task: newTask(string(rune('A'+i)), 10)}))
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = c.DispatchFunc(CompleteTask(id))
		}(string(rune('A' + i)))
	}
	wg.Wait()

	assert.Equal(t, 500, c.Snapshot().User.XP)
}

func TestRecordActivity_CountsOncePerDay(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.DispatchFunc(RecordActivity("reading", "2024-03-01")))
	require.NoError(t, c.DispatchFunc(RecordActivity("reading", "2024-03-01")))
	require.NoError(t, c.DispatchFunc(RecordActivity("reading", "2024-03-02")))

	s := c.Snapshot()
	assert.Equal(t, 2, s.Streaks.Streaks["reading"])
	assert.True(t, s.Streaks.History["2024-03-01"]["reading"])
	assert.True(t, s.Streaks.History["2024-03-02"]["reading"])
}

func TestAddHistoryEntry_RejectsBadDate(t *testing.T) {
	c := NewContainer()
	err := c.Dispatch(AddHistoryEntry{Date: "03/01/2024", Activity: "gym", Completed: true})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

type fixedPolicy struct {
	interval time.Duration
	err      error
}

func (p fixedPolicy) Next(card models.Flashcard, grade int, now time.Time) (models.Flashcard, error) {
	if p.err != nil {
		return card, p.err
	}
	card.LastReviewed = &now
	card.NextReview = now.Add(p.interval)
	card.ReviewCount++
	return card, nil
}

func (fixedPolicy) Passed(grade int) bool { return grade >= 3 }

func TestReviewFlashcard_StoresPolicyResult(t *testing.T) {
	c := NewContainer()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Dispatch(AddFlashcard{Flashcard: models.Flashcard{ID: "f1", Question: "q", Answer: "a"}}))

	require.NoError(t, c.DispatchFunc(ReviewFlashcard("f1", 4, fixedPolicy{interval: 48 * time.Hour}, now)))

	s := c.Snapshot()
	card := s.Flashcards["f1"]
	require.NotNil(t, card.LastReviewed)
	assert.True(t, card.LastReviewed.Equal(now))
	assert.True(t, card.NextReview.Equal(now.Add(48*time.Hour)))
	assert.Equal(t, 1, card.ReviewCount)
	assert.Equal(t, ReviewXP, s.User.XP)
}

func TestReviewFlashcard_FailedGradeNoReward(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(AddFlashcard{Flashcard: models.Flashcard{ID: "f1"}}))

	require.NoError(t, c.DispatchFunc(ReviewFlashcard("f1", 1, fixedPolicy{interval: time.Hour}, time.Now())))
	assert.Equal(t, 0, c.Snapshot().User.XP)

	boom := errors.New("boom")
	err := c.DispatchFunc(ReviewFlashcard("f1", 1, fixedPolicy{err: boom}, time.Now()))
	assert.ErrorIs(t, err, boom)
}

func TestNotifications_PushDismissPrune(t *testing.T) {
	c := NewContainer()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Dispatch(
		PushNotification{Notification: Notification{ID: "n1", ExpiresAt: now.Add(time.Second)}},
		PushNotification{Notification: Notification{ID: "n2", ExpiresAt: now.Add(time.Hour)}},
		PushNotification{Notification: Notification{ID: "n3"}},
	))

	require.NoError(t, c.Dispatch(PruneNotifications{Now: now.Add(time.Minute)}))
	require.NoError(t, c.Dispatch(DismissNotification{ID: "n2"}))

	ns := c.Snapshot().UI.Notifications
	require.Len(t, ns, 1)
	assert.Equal(t, "n3", ns[0].ID)
}

func TestEnvelope_RoundTripsThroughFromEnvelope(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(
		SetUser{User: models.UserProgress{XP: 2100, Money: 3, Profession: "Bard"}},
		AddTask{Task: newTask("t1", 5)},
		AddFlashcard{Flashcard: models.Flashcard{ID: "f1", Question: "q"}},
		IncrementStreak{Activity: "gym"},
	))

	env := c.Snapshot().Envelope()
	assert.Equal(t, 4, env.Level)
	assert.Equal(t, 1, env.Streaks["gym"])

	user, tasks, cards, streaks := FromEnvelope(env)
	assert.Equal(t, 2100, user.XP)
	assert.Equal(t, 4, user.Level)
	assert.Contains(t, tasks, "t1")
	assert.Contains(t, cards, "f1")
	assert.Equal(t, 1, streaks.Streaks["gym"])
}

func TestReset(t *testing.T) {
	c := NewContainer()
	require.NoError(t, c.Dispatch(AddTask{Task: newTask("a", 1)}))
	c.Reset()
	assert.Empty(t, c.Snapshot().Tasks)
}

func TestSliceConstants(t *testing.T) {
	assert.True(t, SliceTasks.Persisted())
	assert.False(t, SliceUI.Persisted())
	assert.Equal(t, "2024-05-06", Today(time.Date(2024, 5, 6, 23, 0, 0, 0, time.UTC)))
}
