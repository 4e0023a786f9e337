package pubchem

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/storage"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// MissObject is the name of the persisted miss-cache document.
const MissObject = "missing.pubchem.gb.json"

// MissCache remembers CAS numbers already tried against the compound
// database. A nil value marks a confirmed miss; a non-nil value is a
// manual CID override placed in the document by an operator, trusted
// without asking the database again.
type MissCache struct {
	store  storage.Store
	logger logging.Logger

	mu    sync.RWMutex
	known map[string]*int64
}

func NewMissCache(store storage.Store, log logging.Logger) *MissCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &MissCache{
		store:  store,
		logger: log.Named("misscache"),
		known:  make(map[string]*int64),
	}
}

// Load replaces the in-memory set with the persisted document. A missing
// document is a fresh start, not an error.
func (m *MissCache) Load(ctx context.Context) error {
	data, err := m.store.Get(ctx, MissObject)
	if err != nil {
		if errors.IsNotFound(err) {
			m.mu.Lock()
			m.known = make(map[string]*int64)
			m.mu.Unlock()
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeStorageIO, "read miss cache")
	}

	known := make(map[string]*int64)
	if err := json.Unmarshal(data, &known); err != nil {
		return errors.Wrap(err, errors.ErrCodeCorruptDocument, "decode miss cache")
	}

	m.mu.Lock()
	m.known = known
	m.mu.Unlock()
	m.logger.Debug("miss cache loaded", logging.Int("entries", len(known)))
	return nil
}

// Persist writes the current set back to the store.
func (m *MissCache) Persist(ctx context.Context) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.known, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode miss cache")
	}
	if err := m.store.Put(ctx, MissObject, data); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageIO, "write miss cache")
	}
	return nil
}

// Lookup reports whether cas has been tried before and, when an operator
// pinned a CID for it, which one.
func (m *MissCache) Lookup(cas string) (cid *int64, known bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cid, known = m.known[cas]
	return cid, known
}

// RecordMiss marks cas as confirmed absent from the compound database.
// An existing override is left untouched.
func (m *MissCache) RecordMiss(cas string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.known[cas]; !exists {
		m.known[cas] = nil
	}
}

// Len returns the number of remembered CAS numbers.
func (m *MissCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.known)
}
