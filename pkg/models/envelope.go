package models

import "time"

// SyncEnvelope is the aggregate per-user document pushed wholesale on every sync
type SyncEnvelope struct {
	XP            int                        `json:"xp" binding:"gte=0"`
	Money         int                        `json:"money" binding:"gte=0"`
	Level         int                        `json:"level"`
	Rank          Rank                       `json:"rank"`
	PersonalData  PersonalData               `json:"personalData"`
	Profession    string                     `json:"profession"`
	Tasks         map[string]Task            `json:"tasks" binding:"dive"`
	FlashCards    map[string]Flashcard       `json:"flashCards" binding:"dive"`
	Streaks       map[string]int             `json:"streaks" binding:"dive,gte=0"`
	StreakHistory map[string]map[string]bool `json:"streakHistory"`
}

// UserDocument is the stored remote document as returned to clients
type UserDocument struct {
	SyncEnvelope
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProgressUpdate records a single activity completion for a date
type ProgressUpdate struct {
	Activity  string `json:"activity" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Completed bool   `json:"completed"`
}

// StreaksResponse is the body of GET /progress/streaks
type StreaksResponse struct {
	Streaks map[string]int             `json:"streaks"`
	History map[string]map[string]bool `json:"history"`
}

// MessageResponse is the success body of gateway write endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the failure body of every gateway endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}
