package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// DocumentRepository stores one aggregate document per user
type DocumentRepository struct {
	db      *sqlx.DB
	streaks *StreakRepository
}

// NewDocumentRepository creates a new repository instance
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db, streaks: NewStreakRepository(db)}
}

// Load returns the user's document with its streaks, or ErrNotFound
func (r *DocumentRepository) Load(ctx context.Context, userID string) (*models.UserDocument, error) {
	var row documentRow
	query := r.db.Rebind("SELECT user_id, data, updated_at FROM documents WHERE user_id = ?")
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc := &models.UserDocument{UpdatedAt: row.UpdatedAt.UTC()}
	if err := json.Unmarshal([]byte(row.Data), &doc.SyncEnvelope); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	streaks, err := r.streaks.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc.Streaks = streaks.Streaks
	doc.StreakHistory = streaks.History
	return doc, nil
}

// Save overwrites the user's document, streak rows included, in one
// transaction
func (r *DocumentRepository) Save(ctx context.Context, userID string, env models.SyncEnvelope, now time.Time) error {
	streaks := models.StreakState{Streaks: env.Streaks, History: env.StreakHistory}
	env.Streaks = nil
	env.StreakHistory = nil
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.db.Rebind(`
		INSERT INTO documents (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if _, err := tx.ExecContext(ctx, query, userID, string(data), now.UTC()); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	if err := replaceStreaks(ctx, tx, userID, streaks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}
