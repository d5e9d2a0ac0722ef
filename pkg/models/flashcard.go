package models

import (
	"strings"
	"time"
)

// Difficulty of a flashcard
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Flashcard represents a question/answer card scheduled for spaced review
type Flashcard struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	GroupID      string     `json:"groupId,omitempty"` // "group/subgroup"
	Difficulty   Difficulty `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	LastReviewed *time.Time `json:"lastReviewed"`
	NextReview   time.Time  `json:"nextReview"`
	ReviewCount  int        `json:"reviewCount" binding:"gte=0"`
	Marked       bool       `json:"marked"`
}

// GroupPath splits the hierarchical group id into its segments
func (f Flashcard) GroupPath() []string {
	if strings.TrimSpace(f.GroupID) == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(f.GroupID, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// IsDue reports whether the card should be reviewed at the given time
func (f Flashcard) IsDue(now time.Time) bool {
	return !f.NextReview.After(now)
}

// CloneFlashcards returns a copy of the flashcard mapping
func CloneFlashcards(cards map[string]Flashcard) map[string]Flashcard {
	dup := make(map[string]Flashcard, len(cards))
	for id, c := range cards {
		if c.LastReviewed != nil {
			t := *c.LastReviewed
			c.LastReviewed = &t
		}
		dup[id] = c
	}
	return dup
}
