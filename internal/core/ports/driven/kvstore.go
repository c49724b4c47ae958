package driven

import "context"

// KVStore is key-scoped scalar storage: the fast persistence path for
// small, frequently rewritten values such as the serialized grid index.
// Values are opaque strings; callers own the encoding.
type KVStore interface {
	// Get retrieves a value. Returns domain.ErrNotFound for absent keys.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value, replacing any previous one.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
