package interfaces

import (
	"context"
)

// ResponseCache stores serialized tool responses for a bounded time
type ResponseCache interface {
	// Get returns the cached value and true when a fresh entry exists.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a value under key, replacing any existing entry.
	Set(ctx context.Context, key string, value string) error

	// Close releases the underlying store.
	Close() error
}
