package database

import "time"

type documentRow struct {
	UserID    string    `db:"user_id"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

type streakRow struct {
	Activity string `db:"activity"`
	Count    int    `db:"streak_count"`
}

type historyRow struct {
	Day       string `db:"day"`
	Activity  string `db:"activity"`
	Completed bool   `db:"completed"`
}
