package keys

import (
	"context"
	"errors"
)

// ErrKeyExists is returned by Store.Create when a key is already persisted.
var ErrKeyExists = errors.New("key already exists")

// Store is durable storage for exactly one key.
type Store interface {
	// Load returns the stored bytes verbatim, or common.ErrKeyNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Create persists key. It never overwrites: if a key is already stored
	// it returns ErrKeyExists.
	Create(ctx context.Context, key []byte) error
	Exists(ctx context.Context) (bool, error)
	// Location describes where the key lives, for diagnostics.
	Location() string
}
