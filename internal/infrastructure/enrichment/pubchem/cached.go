package pubchem

import (
	"context"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// CachedResolver consults the miss cache before the live resolver, so a
// full refresh only pays network calls for CAS numbers never seen before.
// It implements substance.Resolver and the ingestion service's miss
// journal.
type CachedResolver struct {
	resolver substance.Resolver
	cache    *MissCache
	logger   logging.Logger
}

func NewCachedResolver(resolver substance.Resolver, cache *MissCache, log logging.Logger) *CachedResolver {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachedResolver{
		resolver: resolver,
		cache:    cache,
		logger:   log.Named("enrichment"),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, registryNumber string) (*substance.ChemicalInfo, error) {
	if cid, known := r.cache.Lookup(registryNumber); known {
		if cid != nil {
			// Operator-pinned CID; molar mass stays unknown.
			return &substance.ChemicalInfo{CID: *cid}, nil
		}
		return nil, errors.Newf(errors.ErrCodeChemicalNotFound, "compound %q is a known miss", registryNumber)
	}

	info, err := r.resolver.Resolve(ctx, registryNumber)
	if err != nil {
		// Only a confirmed miss is remembered. Transport failures must
		// not poison the cache.
		if errors.IsNotFound(err) {
			r.cache.RecordMiss(registryNumber)
		}
		return nil, err
	}
	return info, nil
}

// Load primes the miss cache from its persisted document.
func (r *CachedResolver) Load(ctx context.Context) error {
	return r.cache.Load(ctx)
}

// Persist writes the miss cache back, keeping misses across refreshes.
func (r *CachedResolver) Persist(ctx context.Context) error {
	return r.cache.Persist(ctx)
}
