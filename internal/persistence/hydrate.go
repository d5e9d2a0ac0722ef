package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/localstore"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// Source tells where a slice was loaded from at boot
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceEmpty  Source = "empty"
)

// HydrateResult reports the origin of every persisted slice
type HydrateResult map[state.Slice]Source

// Hydrate loads userID's state into c. remote may be nil when the remote
// document is unavailable (offline, first login, fetch failure).
//
// For each slice the local record wins when it holds edits the last
// successful push did not carry, i.e. its fingerprint differs from the sync
// marker or no marker exists. A local slice equal to what was last pushed
// yields to the remote document, which may carry newer edits from another
// device; the remote slice is then written into the local store and the
// marker. Unreadable or invalid local records are logged and skipped; an
// invalid remote slice fails the load. Slices are loaded with set-whole-slice
// actions in one dispatch.
func Hydrate(store localstore.Store, c *state.Container, userID string, remote *models.UserDocument, logger *slog.Logger) (HydrateResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if userID == "" {
		return nil, errors.New("empty user id")
	}

	var (
		rUser    models.UserProgress
		rTasks   map[string]models.Task
		rCards   map[string]models.Flashcard
		rStreaks models.StreakState
	)
	if remote != nil {
		rUser, rTasks, rCards, rStreaks = state.FromEnvelope(remote.SyncEnvelope)
	}

	marker, err := localstore.GetSyncMarker(store, userID)
	if err != nil {
		logger.Warn("discarding unreadable sync marker", "user_id", userID, "error", err)
		marker = localstore.SyncMarker{}
	}

	result := make(HydrateResult)
	var (
		user    models.UserProgress
		tasks   map[string]models.Task
		cards   map[string]models.Flashcard
		streaks models.StreakState
	)
	loaders := []struct {
		slice  state.Slice
		target interface{}
		remote interface{}
		reset  func()
		check  func() error
	}{
		{state.SliceUser, &user, rUser,
			func() { user = models.UserProgress{} },
			func() error { return nil }},
		{state.SliceTasks, &tasks, rTasks,
			func() { tasks = nil },
			func() error { return state.ValidateTasks(tasks) }},
		{state.SliceFlashcards, &cards, rCards,
			func() { cards = nil },
			func() error { return state.ValidateFlashcards(cards) }},
		{state.SliceStreaks, &streaks, rStreaks,
			func() { streaks = models.StreakState{} },
			func() error { return state.ValidateStreaks(streaks) }},
	}

	for _, l := range loaders {
		key, err := localstore.SliceKey(string(l.slice), userID)
		if err != nil {
			return nil, err
		}

		local := false
		dirty := true
		rec, err := localstore.GetRecord(store, key)
		switch {
		case errors.Is(err, localstore.ErrNotFound):
		case err != nil:
			logger.Warn("discarding unreadable local slice", "key", key, "error", err)
		default:
			if err := json.Unmarshal(rec.Data, l.target); err != nil {
				logger.Warn("discarding unreadable local slice", "key", key, "error", err)
				l.reset()
				break
			}
			if err := l.check(); err != nil {
				logger.Warn("discarding invalid local slice", "key", key, "error", err)
				l.reset()
				break
			}
			local = true
			if fp, err := fingerprint(l.target); err == nil && fp == marker[string(l.slice)] {
				dirty = false
			}
		}

		switch {
		case local && (remote == nil || dirty):
			result[l.slice] = SourceLocal

		case remote != nil:
			l.reset()
			raw, err := json.Marshal(l.remote)
			if err != nil {
				return nil, fmt.Errorf("failed to encode remote %s: %w", l.slice, err)
			}
			if err := json.Unmarshal(raw, l.target); err != nil {
				return nil, fmt.Errorf("failed to decode remote %s: %w", l.slice, err)
			}
			if err := l.check(); err != nil {
				return nil, fmt.Errorf("invalid remote %s: %w", l.slice, err)
			}
			if err := localstore.PutRecord(store, key, l.remote, remote.UpdatedAt); err != nil {
				logger.Warn("failed to store remote slice locally", "key", key, "error", err)
			}
			result[l.slice] = SourceRemote

		default:
			result[l.slice] = SourceEmpty
		}
	}

	err = c.Dispatch(
		state.SetUser{User: user},
		state.SetTasks{Tasks: tasks},
		state.SetFlashcards{Flashcards: cards},
		state.SetStreaks{Streaks: streaks},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	// slices taken from the remote document are in sync with it
	markerChanged := false
	snap := c.Snapshot()
	for _, slice := range state.PersistedSlices {
		if result[slice] != SourceRemote {
			continue
		}
		fp, err := fingerprint(sliceValue(slice, snap))
		if err != nil {
			logger.Warn("failed to fingerprint slice", "slice", slice, "error", err)
			continue
		}
		marker[string(slice)] = fp
		markerChanged = true
	}
	if markerChanged {
		if err := localstore.PutSyncMarker(store, userID, marker); err != nil {
			logger.Warn("failed to store sync marker", "user_id", userID, "error", err)
		}
	}
	logger.Info("state hydrated", "user_id", userID,
		"user", result[state.SliceUser], "tasks", result[state.SliceTasks],
		"flashcards", result[state.SliceFlashcards], "streaks", result[state.SliceStreaks])
	return result, nil
}

// LoadLocal hydrates from the local store only
func LoadLocal(store localstore.Store, c *state.Container, userID string, logger *slog.Logger) (HydrateResult, error) {
	return Hydrate(store, c, userID, nil, logger)
}
