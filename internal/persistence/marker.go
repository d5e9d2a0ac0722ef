package persistence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/localstore"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/state"
)

// fingerprint identifies a slice value by the hash of its JSON encoding
func fingerprint(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// MarkSynced records s, the state a successful push carried, as the last
// synced state of userID. At the next boot a local slice that differs from
// it holds unpushed edits and wins over the remote document.
func MarkSynced(store localstore.Store, userID string, s state.State) error {
	m := make(localstore.SyncMarker, len(state.PersistedSlices))
	for _, slice := range state.PersistedSlices {
		fp, err := fingerprint(sliceValue(slice, s))
		if err != nil {
			return fmt.Errorf("failed to fingerprint %s: %w", slice, err)
		}
		m[string(slice)] = fp
	}
	return localstore.PutSyncMarker(store, userID, m)
}
