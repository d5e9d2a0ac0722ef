package spacedrep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

var _ state.ReviewPolicy = (*SM2)(nil)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSM2_Next(t *testing.T) {
	sm := NewSM2()
	tests := []struct {
		name     string
		count    int
		grade    int
		wantDays int
	}{
		{"first pass", 0, 4, 1},
		{"second pass", 1, 3, 2},
		{"fourth pass", 3, 5, 7},
		{"fail resets to a day", 6, 2, 1},
		{"blackout", 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := models.Flashcard{ID: "c", Difficulty: models.DifficultyMedium, ReviewCount: tt.count}
			next, err := sm.Next(card, tt.grade, now)
			require.NoError(t, err)
			assert.Equal(t, tt.count+1, next.ReviewCount)
			require.NotNil(t, next.LastReviewed)
			assert.Equal(t, now, *next.LastReviewed)
			assert.Equal(t, now.AddDate(0, 0, tt.wantDays), next.NextReview)
		})
	}
}

func TestSM2_NextBeyondTableUsesDifficultyFactor(t *testing.T) {
	sm := NewSM2()
	last := now.AddDate(0, 0, -30)
	tests := []struct {
		difficulty models.Difficulty
		wantDays   int
	}{
		{models.DifficultyEasy, 75},
		{models.DifficultyMedium, 60},
		{models.DifficultyHard, 45},
	}
	for _, tt := range tests {
		t.Run(string(tt.difficulty), func(t *testing.T) {
			card := models.Flashcard{
				ID: "c", Difficulty: tt.difficulty, ReviewCount: 8,
				LastReviewed: &last, NextReview: now,
			}
			next, err := sm.Next(card, 5, now)
			require.NoError(t, err)
			assert.Equal(t, now.AddDate(0, 0, tt.wantDays), next.NextReview)
		})
	}
}

func TestSM2_NextCapsInterval(t *testing.T) {
	sm := NewSM2()
	last := now.AddDate(0, 0, -300)
	card := models.Flashcard{ID: "c", Difficulty: models.DifficultyEasy, ReviewCount: 20, LastReviewed: &last, NextReview: now}

	next, err := sm.Next(card, 5, now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 365), next.NextReview)
}

func TestSM2_NextRejectsBadGrade(t *testing.T) {
	_, err := NewSM2().Next(models.Flashcard{ID: "c"}, 6, now)
	assert.Error(t, err)
	_, err = NewSM2().Next(models.Flashcard{ID: "c"}, -1, now)
	assert.Error(t, err)
}

func TestSM2_Passed(t *testing.T) {
	sm := NewSM2()
	assert.False(t, sm.Passed(2))
	assert.True(t, sm.Passed(3))
	assert.True(t, sm.Passed(5))
}

func TestDueQueue(t *testing.T) {
	reviewed := now.AddDate(0, 0, -3)
	cards := map[string]models.Flashcard{
		"future": {ID: "future", Difficulty: models.DifficultyHard, NextReview: now.Add(time.Hour)},
		"new":    {ID: "new", Difficulty: models.DifficultyEasy, NextReview: now},
		"hard":   {ID: "hard", Difficulty: models.DifficultyHard, ReviewCount: 2, LastReviewed: &reviewed, NextReview: now.Add(-time.Hour)},
		"easy1":  {ID: "easy1", Difficulty: models.DifficultyEasy, ReviewCount: 2, LastReviewed: &reviewed, NextReview: now.Add(-48 * time.Hour)},
		"easy2":  {ID: "easy2", Difficulty: models.DifficultyEasy, ReviewCount: 2, LastReviewed: &reviewed, NextReview: now.Add(-time.Hour)},
	}

	var ids []string
	for _, c := range DueQueue(cards, now, 0) {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"new", "hard", "easy1", "easy2"}, ids)
	assert.Len(t, DueQueue(cards, now, 2), 2)
}

func TestIsMastered(t *testing.T) {
	last := now.AddDate(0, 0, -1)
	assert.True(t, IsMastered(models.Flashcard{ReviewCount: 6, LastReviewed: &last, NextReview: last.AddDate(0, 0, 30)}))
	assert.False(t, IsMastered(models.Flashcard{ReviewCount: 6, LastReviewed: &last, NextReview: last.AddDate(0, 0, 10)}))
	assert.False(t, IsMastered(models.Flashcard{ReviewCount: 2, LastReviewed: &last, NextReview: last.AddDate(0, 0, 60)}))
	assert.False(t, IsMastered(models.Flashcard{ReviewCount: 9}))
}
