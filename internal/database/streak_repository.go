package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// StreakRepository handles the per-activity counters and the daily history
type StreakRepository struct {
	db *sqlx.DB
}

// NewStreakRepository creates a new repository instance
func NewStreakRepository(db *sqlx.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get returns the user's streak counters and history
func (r *StreakRepository) Get(ctx context.Context, userID string) (models.StreakState, error) {
	out := models.NewStreakState()

	var streaks []streakRow
	query := r.db.Rebind("SELECT activity, streak_count FROM streaks WHERE user_id = ?")
	if err := r.db.SelectContext(ctx, &streaks, query, userID); err != nil {
		return out, fmt.Errorf("failed to get streaks: %w", err)
	}
	for _, s := range streaks {
		out.Streaks[s.Activity] = s.Count
	}

	var history []historyRow
	query = r.db.Rebind("SELECT day, activity, completed FROM streak_history WHERE user_id = ?")
	if err := r.db.SelectContext(ctx, &history, query, userID); err != nil {
		return out, fmt.Errorf("failed to get streak history: %w", err)
	}
	for _, h := range history {
		if out.History[h.Day] == nil {
			out.History[h.Day] = map[string]bool{}
		}
		out.History[h.Day][h.Activity] = h.Completed
	}
	return out, nil
}

// Increment records an activity for a date. The counter is bumped in the
// database, and only the first time the activity is completed for that date:
// the history upsert only touches a row that is not completed yet, so of two
// concurrent completions for the same day exactly one affects a row.
// It reports whether the counter changed.
func (r *StreakRepository) Increment(ctx context.Context, userID string, upd models.ProgressUpdate) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !upd.Completed {
		query := r.db.Rebind(`
			INSERT INTO streak_history (user_id, day, activity, completed) VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, day, activity) DO UPDATE SET completed = excluded.completed`)
		if _, err := tx.ExecContext(ctx, query, userID, upd.Date, upd.Activity, false); err != nil {
			return false, fmt.Errorf("failed to record streak history: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit streak update: %w", err)
		}
		return false, nil
	}

	query := r.db.Rebind(`
		INSERT INTO streak_history (user_id, day, activity, completed) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, day, activity) DO UPDATE SET completed = excluded.completed
		WHERE NOT streak_history.completed`)
	res, err := tx.ExecContext(ctx, query, userID, upd.Date, upd.Activity, true)
	if err != nil {
		return false, fmt.Errorf("failed to record streak history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read streak history result: %w", err)
	}

	bumped := n == 1
	if bumped {
		query = r.db.Rebind(`
			INSERT INTO streaks (user_id, activity, streak_count) VALUES (?, ?, 1)
			ON CONFLICT (user_id, activity) DO UPDATE SET streak_count = streaks.streak_count + 1`)
		if _, err := tx.ExecContext(ctx, query, userID, upd.Activity); err != nil {
			return false, fmt.Errorf("failed to increment streak: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit streak update: %w", err)
	}
	return bumped, nil
}

// replaceStreaks overwrites the user's streak rows inside tx
func replaceStreaks(ctx context.Context, tx *sqlx.Tx, userID string, s models.StreakState) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM streaks WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to clear streaks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM streak_history WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to clear streak history: %w", err)
	}

	insertStreak := tx.Rebind("INSERT INTO streaks (user_id, activity, streak_count) VALUES (?, ?, ?)")
	for activity, n := range s.Streaks {
		if _, err := tx.ExecContext(ctx, insertStreak, userID, activity, n); err != nil {
			return fmt.Errorf("failed to insert streak %s: %w", activity, err)
		}
	}
	insertHistory := tx.Rebind("INSERT INTO streak_history (user_id, day, activity, completed) VALUES (?, ?, ?, ?)")
	for day, acts := range s.History {
		for activity, done := range acts {
			if _, err := tx.ExecContext(ctx, insertHistory, userID, day, activity, done); err != nil {
				return fmt.Errorf("failed to insert streak history %s/%s: %w", day, activity, err)
			}
		}
	}
	return nil
}
