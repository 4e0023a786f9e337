package substance

import (
	"context"
)

// Repository persists and retrieves positive-list documents: one JSON file
// per record plus the single global index document. Implementations live in
// internal/infrastructure/storage.
//
// Load methods return an error satisfying errors.IsNotFound when the
// requested document does not exist; in particular LoadIndex does so on a
// cold cache, which callers treat as the signal to run a full refresh.
type Repository interface {
	// SaveRecord writes one record document, replacing any previous
	// version.
	SaveRecord(ctx context.Context, rec *Record) error

	// LoadRecord reads one record document by FCA identifier.
	LoadRecord(ctx context.Context, id ID) (*Record, error)

	// SaveIndex writes the global index document, replacing any previous
	// version.
	SaveIndex(ctx context.Context, idx *Index) error

	// LoadIndex reads the global index document.
	LoadIndex(ctx context.Context) (*Index, error)
}
