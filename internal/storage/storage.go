// Package storage provides the persistent key-value space backing session and
// preference data. Three backends ship: an in-process map, SQLite for mobile
// hosts, and Redis for shared development setups.
package storage

import "context"

// Store is a namespaced key-value space. Implementations must never panic on
// backend failure: writes report success as a bool, reads report absence.
type Store interface {
	// Get returns the stored value and true, or "" and false when the key is
	// absent or the backend is unreachable.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key, returning false if the write did not land.
	Set(ctx context.Context, key string, value string) bool

	// Remove deletes key. Removing an absent key is a successful no-op.
	Remove(ctx context.Context, key string) bool

	// Ping reports backend reachability for health checks.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
