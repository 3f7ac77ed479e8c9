package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"commons.ai/internal/persistence/indexdb"
)

// openRuntimeIndex opens the optional read-model index. It never affects
// simulation determinism; a nil index disables the episode endpoints.
func openRuntimeIndex(worldDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("COMMONS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported COMMONS_INDEX_BACKEND: %s", backend)
	}
}
