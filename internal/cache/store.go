package cache

import (
	"context"
	"errors"
)

// ErrStoreClosed is returned by stores used after Close.
var ErrStoreClosed = errors.New("cache: store not initialised")

// Store is the key/value persistence backend of the local cache. Values are opaque JSON
// documents; the store never interprets them.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes every entry as one unit: readers observe either none or all of them.
	SetMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Pinger is implemented by stores that can report backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
