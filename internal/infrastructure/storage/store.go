// Package storage persists registry documents as JSON objects in a flat
// blob store. The index lives in gb_index.json and each substance record
// in its own FCAnnnn.json object, mirroring the layout consumers of the
// published registry expect.
package storage

import "context"

// Store is a flat namespace of named blobs. Implementations back it with
// a local directory or an object storage bucket.
type Store interface {
	// Put writes data under name, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the content stored under name. A missing object yields
	// an error satisfying errors.IsNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether name is present without fetching its content.
	Exists(ctx context.Context, name string) (bool, error)
}
