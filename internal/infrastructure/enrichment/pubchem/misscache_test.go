package pubchem

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// memStore is an in-memory storage.Store for cache tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeObjectNotFound, "object %s", name)
	}
	return data, nil
}

func (s *memStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[name]
	return ok, nil
}

func TestMissCacheLoadFreshStore(t *testing.T) {
	cache := NewMissCache(newMemStore(), nil)
	require.NoError(t, cache.Load(context.Background()))
	assert.Equal(t, 0, cache.Len())
}

func TestMissCacheRoundTrip(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	cache := NewMissCache(store, nil)
	require.NoError(t, cache.Load(ctx))
	cache.RecordMiss("0-00-0")
	cache.RecordMiss("12772-68-8")
	require.NoError(t, cache.Persist(ctx))

	reloaded := NewMissCache(store, nil)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 2, reloaded.Len())

	cid, known := reloaded.Lookup("0-00-0")
	assert.True(t, known)
	assert.Nil(t, cid)

	_, known = reloaded.Lookup("75-07-0")
	assert.False(t, known)
}

func TestMissCacheOperatorOverride(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, MissObject, []byte(`{"50-00-0": 712, "0-00-0": null}`)))

	cache := NewMissCache(store, nil)
	require.NoError(t, cache.Load(ctx))

	cid, known := cache.Lookup("50-00-0")
	require.True(t, known)
	require.NotNil(t, cid)
	assert.Equal(t, int64(712), *cid)

	// Recording a miss must not clobber the pinned CID.
	cache.RecordMiss("50-00-0")
	cid, _ = cache.Lookup("50-00-0")
	require.NotNil(t, cid)
	assert.Equal(t, int64(712), *cid)
}

func TestMissCachePersistedShape(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	cache := NewMissCache(store, nil)
	cache.RecordMiss("0-00-0")
	require.NoError(t, cache.Persist(ctx))

	raw, err := store.Get(ctx, MissObject)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"0-00-0": null`)
}

func TestMissCacheLoadCorrupt(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, MissObject, []byte("not json")))

	cache := NewMissCache(store, nil)
	err := cache.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCorruptDocument))
}
