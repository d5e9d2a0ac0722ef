package models

// DateLayout is the format of the dates used as streak history keys
const DateLayout = "2006-01-02"

// StreakState tracks per-activity streak counters and a dated completion log
type StreakState struct {
	Streaks map[string]int             `json:"streaks"`
	History map[string]map[string]bool `json:"history"` // date -> activity -> completed
}

// NewStreakState returns an empty streak state with initialized maps
func NewStreakState() StreakState {
	return StreakState{
		Streaks: make(map[string]int),
		History: make(map[string]map[string]bool),
	}
}

// Clone returns a deep copy of the streak state
func (s StreakState) Clone() StreakState {
	dup := NewStreakState()
	for activity, n := range s.Streaks {
		dup.Streaks[activity] = n
	}
	for date, entries := range s.History {
		day := make(map[string]bool, len(entries))
		for activity, done := range entries {
			day[activity] = done
		}
		dup.History[date] = day
	}
	return dup
}
