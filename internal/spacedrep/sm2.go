// Package spacedrep schedules flashcard reviews with an SM-2 style interval
// table.
package spacedrep

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// Quality is the grade of a review answer, 0 to 5
type Quality int

const (
	// Complete blackout, unable to recall
	QualityBlackout Quality = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect Quality = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar Quality = 2
	// Correct response but required significant effort
	QualityCorrectDifficult Quality = 3
	// Correct response after some hesitation
	QualityCorrectHesitation Quality = 4
	// Perfect response with no hesitation
	QualityPerfect Quality = 5
)

const day = 24 * time.Hour

// SM2 computes the next review of a card from its review count and difficulty
type SM2 struct {
	PassThreshold    int
	MaxInterval      int   // days
	InitialIntervals []int // days, indexed by review count
	Factors          map[models.Difficulty]float64
}

// NewSM2 returns the default schedule
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    int(QualityCorrectDifficult),
		MaxInterval:      365,
		InitialIntervals: []int{1, 2, 3, 7, 10, 15, 20, 30},
		Factors: map[models.Difficulty]float64{
			models.DifficultyEasy:   2.5,
			models.DifficultyMedium: 2.0,
			models.DifficultyHard:   1.5,
		},
	}
}

// Passed reports whether grade counts as a correct answer
func (sm *SM2) Passed(grade int) bool {
	return grade >= sm.PassThreshold
}

// Next returns card with LastReviewed, NextReview and ReviewCount updated for
// a review graded at now. A failed review is due again the next day.
func (sm *SM2) Next(card models.Flashcard, grade int, now time.Time) (models.Flashcard, error) {
	if grade < int(QualityBlackout) || grade > int(QualityPerfect) {
		return card, fmt.Errorf("grade %d out of range 0-5", grade)
	}

	interval := 1
	if sm.Passed(grade) {
		interval = sm.passInterval(card)
	}

	reviewed := now
	card.LastReviewed = &reviewed
	card.NextReview = now.Add(time.Duration(interval) * day)
	card.ReviewCount++
	return card, nil
}

func (sm *SM2) passInterval(card models.Flashcard) int {
	if card.ReviewCount < len(sm.InitialIntervals) {
		return sm.InitialIntervals[card.ReviewCount]
	}

	prev := 1
	if card.LastReviewed != nil {
		if d := int(card.NextReview.Sub(*card.LastReviewed) / day); d > prev {
			prev = d
		}
	}
	factor, ok := sm.Factors[card.Difficulty]
	if !ok {
		factor = sm.Factors[models.DifficultyMedium]
	}
	next := int(math.Round(float64(prev) * factor))
	if next > sm.MaxInterval {
		next = sm.MaxInterval
	}
	return next
}

// DueQueue returns up to limit cards due at now. Never reviewed cards come
// first, then harder cards, then the most overdue.
func DueQueue(cards map[string]models.Flashcard, now time.Time, limit int) []models.Flashcard {
	var due []models.Flashcard
	for _, c := range cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if (a.ReviewCount == 0) != (b.ReviewCount == 0) {
			return a.ReviewCount == 0
		}
		if ra, rb := difficultyRank(a.Difficulty), difficultyRank(b.Difficulty); ra != rb {
			return ra > rb
		}
		if !a.NextReview.Equal(b.NextReview) {
			return a.NextReview.Before(b.NextReview)
		}
		return a.ID < b.ID
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}

// IsMastered reports whether a card has been reviewed at least 5 times and
// is scheduled at least 30 days out
func IsMastered(card models.Flashcard) bool {
	if card.LastReviewed == nil || card.ReviewCount < 5 {
		return false
	}
	return card.NextReview.Sub(*card.LastReviewed) >= 30*day
}

func difficultyRank(d models.Difficulty) int {
	switch d {
	case models.DifficultyHard:
		return 2
	case models.DifficultyMedium:
		return 1
	}
	return 0
}
