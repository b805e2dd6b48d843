package objectstore

import "context"

// Store is the object-store contract the workflow requires: stat, fetch,
// write, enumerate, and delete objects within one bucket.
type Store interface {
	// Head returns the size in bytes of the named object.
	Head(ctx context.Context, key string) (int64, error)
	// Get fetches the full object body.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes the object body, overwriting any existing object.
	Put(ctx context.Context, key string, body []byte) error
	// List returns the keys under the given prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the named object. Deleting a missing object is not an
	// error.
	Delete(ctx context.Context, key string) error
}
