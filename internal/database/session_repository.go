package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepository maps bearer tokens to user ids
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create issues a new token for userID
func (r *SessionRepository) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	token := uuid.NewString()
	query := r.db.Rebind("INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, query, token, userID, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// UserID resolves a token, or returns ErrNotFound
func (r *SessionRepository) UserID(ctx context.Context, token string) (string, error) {
	var userID string
	query := r.db.Rebind("SELECT user_id FROM sessions WHERE token = ?")
	if err := r.db.GetContext(ctx, &userID, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}
	return userID, nil
}

// Delete revokes a token
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	query := r.db.Rebind("DELETE FROM sessions WHERE token = ?")
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
