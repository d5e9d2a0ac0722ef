// Package persistence mirrors the in-memory state into the local durable
// store and loads it back at boot.
package persistence

import (
	"log/slog"
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/localstore"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
)

// Mirror writes the slice touched by every committed action into the store,
// under the key of the currently active user.
type Mirror struct {
	store  localstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewMirror creates a Mirror writing into store
func NewMirror(store localstore.Store, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{store: store, logger: logger, now: time.Now}
}

// Middleware returns the state.Middleware to register on a container
func (m *Mirror) Middleware() state.Middleware {
	return func(action state.Action, next state.State) {
		// the online flag is not persisted
		if _, ok := action.(state.SetOnline); ok {
			return
		}
		m.persist(action.Slice(), next)
	}
}

// persist is best effort: failures are logged and never reach the dispatcher.
func (m *Mirror) persist(slice state.Slice, s state.State) {
	if !slice.Persisted() {
		return
	}
	userID, ok := localstore.CurrentUser(m.store)
	if !ok {
		return
	}

	key, err := localstore.SliceKey(string(slice), userID)
	if err != nil {
		m.logger.Warn("cannot build slice key", "slice", slice, "error", err)
		return
	}
	if err := localstore.PutRecord(m.store, key, sliceValue(slice, s), m.now()); err != nil {
		m.logger.Warn("failed to persist slice", "slice", slice, "user_id", userID, "error", err)
	}
}

// PersistAll writes every persisted slice of s for the active user.
func (m *Mirror) PersistAll(s state.State) {
	for _, slice := range state.PersistedSlices {
		m.persist(slice, s)
	}
}

func sliceValue(slice state.Slice, s state.State) interface{} {
	switch slice {
	case state.SliceUser:
		return s.User
	case state.SliceTasks:
		return s.Tasks
	case state.SliceFlashcards:
		return s.Flashcards
	case state.SliceStreaks:
		return s.Streaks
	}
	return nil
}
