package localstore

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// Open opens the backend named by kind ("sqlite" or "badger") under dir
func Open(kind, dir string, logger *slog.Logger) (Store, error) {
	switch kind {
	case "", "sqlite":
		return OpenSQLite(filepath.Join(dir, "local.db"))
	case "badger":
		return OpenBadger(BadgerOptions{Path: filepath.Join(dir, "badger"), Logger: logger})
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown local store %q", kind)
	}
}
