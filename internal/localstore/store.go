// Package localstore is the per-device key-value store that survives process
// restarts. It holds one record per persisted state slice per user plus the id
// of the active user.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// CurrentUserKey identifies the active session's user id. Its absence means
// the session is anonymous and nothing is persisted or synced.
const CurrentUserKey = "currentUserId"

var sliceKeyPrefixes = map[string]string{
	"user":       "userState_",
	"tasks":      "tasksState_",
	"flashcards": "flashcardsState_",
	"streaks":    "streaksState_",
}

// SliceKey returns the storage key of a slice for a user, e.g. tasksState_u1.
func SliceKey(slice, userID string) (string, error) {
	prefix, ok := sliceKeyPrefixes[slice]
	if !ok {
		return "", fmt.Errorf("slice %q is not persisted", slice)
	}
	if userID == "" {
		return "", errors.New("empty user id")
	}
	return prefix + userID, nil
}

// SyncMarkerKey returns the key holding the fingerprints of the slices the
// last successful push carried for userID, e.g. lastSyncedState_u1.
func SyncMarkerKey(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	return "lastSyncedState_" + userID, nil
}

// SyncMarker maps a slice name to the fingerprint of its last pushed value
type SyncMarker map[string]string

// GetSyncMarker loads userID's marker. A missing marker is empty, not an error.
func GetSyncMarker(s Store, userID string) (SyncMarker, error) {
	key, err := SyncMarkerKey(userID)
	if err != nil {
		return nil, err
	}
	raw, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return SyncMarker{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := SyncMarker{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return m, nil
}

// PutSyncMarker stores userID's marker
func PutSyncMarker(s Store, userID string, m SyncMarker) error {
	key, err := SyncMarkerKey(userID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(key, raw)
}

// Record is the persisted form of one slice
type Record struct {
	SavedAt time.Time       `json:"savedAt"`
	Data    json.RawMessage `json:"data"`
}

// CurrentUser returns the active user id, if any
func CurrentUser(s Store) (string, bool) {
	v, err := s.Get(CurrentUserKey)
	if err != nil || len(v) == 0 {
		return "", false
	}
	return string(v), true
}

// SetCurrentUser marks userID as the active user
func SetCurrentUser(s Store, userID string) error {
	if userID == "" {
		return errors.New("empty user id")
	}
	return s.Set(CurrentUserKey, []byte(userID))
}

// ClearCurrentUser removes the active user marker
func ClearCurrentUser(s Store) error {
	err := s.Delete(CurrentUserKey)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// PutRecord marshals v into a Record stamped with savedAt and stores it
func PutRecord(s Store, key string, v interface{}, savedAt time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	raw, err := json.Marshal(Record{SavedAt: savedAt.UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}
	return s.Set(key, raw)
}

// GetRecord loads the record stored under key
func GetRecord(s Store, key string) (Record, error) {
	raw, err := s.Get(key)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode record %s: %w", key, err)
	}
	return rec, nil
}
