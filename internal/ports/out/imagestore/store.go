package imagestore

import "context"

// Store is a durable blob store for derived credential images, keyed by registration code.
//
// Entries are regenerable, so implementations may evict or lose them at any time.
// Writes for one key must never corrupt another key's entry.
type Store interface {
	// Get returns ok=false (and no error) on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
}
