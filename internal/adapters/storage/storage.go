// Package storage persists opaque key/value pairs for the session across
// process restarts.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Store is durable key/value storage.
type Store interface {
	// Get returns the value at key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put writes every entry in one transaction. A nil value deletes the key.
	Put(ctx context.Context, entries map[string][]byte) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	Close() error
}

// Backend names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverTOML     = "toml"
	DriverMemory   = "memory"
)

// Open returns the backend named by driver. dsn is a file path for sqlite and
// toml, a connection string for postgres and ignored for memory.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3":
		return OpenSQL(ctx, DriverSQLite, dsn)
	case DriverPostgres, "postgresql":
		return OpenSQL(ctx, DriverPostgres, dsn)
	case DriverTOML, "file":
		return OpenFile(dsn)
	case DriverMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func deleteEntries(keys []string) map[string][]byte {
	entries := make(map[string][]byte, len(keys))
	for _, k := range keys {
		entries[k] = nil
	}
	return entries
}
