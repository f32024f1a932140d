package store

import (
	"fmt"

	"github.com/moorebrett0/tamapet/internal/pet"
)

// Open returns the stats store for a driver ("file" or "sqlite").
func Open(driver, path string) (pet.StatsStore, error) {
	switch driver {
	case "", "file":
		return NewFileStore(path), nil
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}
