package models

// Rank is the progression tier derived from a user's level
type Rank string

const (
	RankE  Rank = "E"
	RankD  Rank = "D"
	RankC  Rank = "C"
	RankB  Rank = "B"
	RankA  Rank = "A"
	RankS  Rank = "S"
	RankSS Rank = "SS"
)

// PersonalData holds the free-form profile fields of a user
type PersonalData struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
	Info string `json:"info"`
}

// UserProgress represents a user's progression: experience, currency and the
// level/rank derived from experience.
type UserProgress struct {
	XP           int          `json:"xp"`
	Money        int          `json:"money"`
	Level        int          `json:"level"` // derived from XP
	Rank         Rank         `json:"rank"`  // derived from Level
	Profession   string       `json:"profession"`
	PersonalData PersonalData `json:"personalData"`
	IsOnline     bool         `json:"-"` // ephemeral, never persisted
}
