package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// MemRepository is an in-memory substance.Repository. Error fields inject
// failures for the paths under test.
type MemRepository struct {
	mu      sync.Mutex
	Records map[substance.ID]*substance.Record
	Index   *substance.Index

	SaveRecordErr error
	SaveIndexErr  error
	LoadCount     int
}

// NewMemRepository creates an empty MemRepository.
func NewMemRepository() *MemRepository {
	return &MemRepository{
		Records: make(map[substance.ID]*substance.Record),
	}
}

func (m *MemRepository) SaveRecord(_ context.Context, rec *substance.Record) error {
	if m.SaveRecordErr != nil {
		return m.SaveRecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[rec.FCA] = rec
	return nil
}

func (m *MemRepository) LoadRecord(_ context.Context, id substance.ID) (*substance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCount++
	rec, ok := m.Records[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeObjectNotFound, "no record document for FCA %s", id)
	}
	return rec, nil
}

func (m *MemRepository) SaveIndex(_ context.Context, idx *substance.Index) error {
	if m.SaveIndexErr != nil {
		return m.SaveIndexErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Index = idx
	return nil
}

func (m *MemRepository) LoadIndex(_ context.Context) (*substance.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Index == nil {
		return nil, errors.New(errors.ErrCodeIndexMissing, "registry index not built")
	}
	return m.Index, nil
}

// StubResolver is a canned substance.Resolver. CAS numbers absent from
// Known resolve to a typed not-found error; Err, when set, is returned for
// every call.
type StubResolver struct {
	mu    sync.Mutex
	Known map[string]substance.ChemicalInfo
	Err   error
	Calls []string
}

// NewStubResolver creates a StubResolver over the given compounds.
func NewStubResolver(known map[string]substance.ChemicalInfo) *StubResolver {
	if known == nil {
		known = make(map[string]substance.ChemicalInfo)
	}
	return &StubResolver{Known: known}
}

func (s *StubResolver) Resolve(_ context.Context, registryNumber string) (*substance.ChemicalInfo, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, registryNumber)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if info, ok := s.Known[registryNumber]; ok {
		out := info
		return &out, nil
	}
	return nil, errors.Newf(errors.ErrCodeChemicalNotFound,
		"no compound for CAS %s", registryNumber)
}

// CallCount returns how many lookups the resolver has served.
func (s *StubResolver) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
