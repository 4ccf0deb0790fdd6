package store

import (
	"fmt"

	"github.com/dkeye/huddle/internal/core"
)

// Store is every collaborator the hub needs from storage.
type Store interface {
	core.RoomStore
	core.MessageStore
	core.UserStore
	Close() error
}

// Open returns the store selected by driver ("memory" or "sqlite").
func Open(driver, path string, poolSize int) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(path, poolSize)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
