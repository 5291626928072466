// Package localstate keeps the serialized in-progress workout close to the
// server so a restart or a dropped client never loses a session.
package localstate

import (
	"context"
	"fmt"
)

// Store is a key/value slot store. Load returns nil data for an empty slot.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Open opens the store for driver at path. The memory driver ignores path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(path)
	case DriverBolt:
		return OpenBolt(path)
	case DriverMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown local state driver %q", driver)
}
