package models

import "time"

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a unit of work that rewards XP and money when completed
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XP          int       `json:"xp" binding:"gte=0"`
	Money       int       `json:"money" binding:"gte=0"`
	Priority    Priority  `json:"priority" binding:"omitempty,oneof=low medium high"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Completed   bool      `json:"completed"`
}

// CloneTasks returns a copy of the task mapping
func CloneTasks(tasks map[string]Task) map[string]Task {
	dup := make(map[string]Task, len(tasks))
	for id, t := range tasks {
		dup[id] = t
	}
	return dup
}
