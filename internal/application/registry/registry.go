// Package registry is the read side of the positive list. It serves lookups
// over the four key spaces of the global index (FCA number, CAS number,
// compound CID, Chinese name), loading record documents through a cache and
// rebuilding the registry from the source table when no index exists yet.
package registry

import (
	"context"
	"strings"
	"sync"

	"github.com/turtacn/FCM-Registry/internal/application/ingestion"
	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/cache/memory"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// RecordCache memoizes record documents between index rebuilds. GetOrLoad
// returns the cached record for id or calls load and caches the result;
// Purge empties the cache after a rebuild so stale documents are not served.
type RecordCache interface {
	GetOrLoad(ctx context.Context, id substance.ID, load func(context.Context) (*substance.Record, error)) (*substance.Record, error)
	Purge(ctx context.Context) error
}

// Refresher rebuilds the registry from the source table and persists the
// result.
type Refresher interface {
	Refresh(ctx context.Context) (*ingestion.Result, error)
}

// Options collects the dependencies of a Registry. Repository is required.
// A nil Cache defaults to the in-process memory cache, a nil Resolver
// disables read-time property extension, and a nil Refresher makes Open fail
// on a cold repository instead of building it.
type Options struct {
	Repository substance.Repository
	Refresher  Refresher
	Resolver   substance.Resolver
	Cache      RecordCache
	Logger     logging.Logger
	Metrics    *prometheus.AppMetrics
}

// Registry answers lookups against the current index. The index is swapped
// atomically on Rebuild; in-flight lookups keep the snapshot they started
// with.
type Registry struct {
	repo      substance.Repository
	refresher Refresher
	resolver  substance.Resolver
	cache     RecordCache
	log       logging.Logger
	metrics   *prometheus.AppMetrics

	mu    sync.RWMutex
	index *substance.Index
}

// Open loads the persisted index and returns a ready Registry. When the
// repository has no index yet, Open runs one full refresh through the
// configured Refresher and serves the freshly built index.
func Open(ctx context.Context, opts Options) (*Registry, error) {
	if opts.Repository == nil {
		return nil, errors.Validation("registry: repository is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	cache := opts.Cache
	if cache == nil {
		cache = memory.NewCache()
	}
	r := &Registry{
		repo:      opts.Repository,
		refresher: opts.Refresher,
		resolver:  opts.Resolver,
		cache:     cache,
		log:       log.Named("registry"),
		metrics:   opts.Metrics,
	}

	idx, err := r.repo.LoadIndex(ctx)
	switch {
	case err == nil:
		r.log.Info("registry index loaded",
			logging.Int("records", idx.Len()),
			logging.String("built", idx.Date),
		)
	case errors.IsCode(err, errors.ErrCodeIndexMissing):
		if r.refresher == nil {
			return nil, err
		}
		r.log.Info("no index found, building registry from the source table")
		result, rerr := r.refresher.Refresh(ctx)
		if rerr != nil {
			return nil, rerr
		}
		idx = result.Index
	default:
		return nil, err
	}

	r.index = idx
	r.observeSize(idx)
	return r, nil
}

// snapshot returns the index current at call time. Lookups resolve keys and
// load records against one snapshot even if a rebuild swaps the index
// mid-flight.
func (r *Registry) snapshot() *substance.Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

// Index returns the current index document.
func (r *Registry) Index() *substance.Index {
	return r.snapshot()
}

// Len is the number of records in the registry.
func (r *Registry) Len() int {
	return r.snapshot().Len()
}

// resolveID maps an identifier to its index key, tolerating the padded and
// unpadded spellings of the same FCA number.
func resolveID(idx *substance.Index, id substance.ID) (substance.ID, bool) {
	if idx.Has(id) {
		return id, true
	}
	if n := id.Int(); n > 0 {
		if ids := idx.Between(n, n+1); len(ids) == 1 {
			return ids[0], true
		}
	}
	return "", false
}

// load fetches one record through the cache, verifying that the document
// carries the identity it is filed under.
func (r *Registry) load(ctx context.Context, id substance.ID) (*substance.Record, error) {
	total := r.snapshot().Len()
	return r.cache.GetOrLoad(ctx, id, func(ctx context.Context) (*substance.Record, error) {
		rec, err := r.repo.LoadRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec.FCA != id {
			return nil, errors.Newf(errors.ErrCodeCorruptDocument,
				"document %s carries FCA %s", id.FileName(), rec.FCA)
		}
		rec.Total = total
		return rec, nil
	})
}

// loadAll fetches the given records in order.
func (r *Registry) loadAll(ctx context.Context, ids []substance.ID) ([]*substance.Record, error) {
	recs := make([]*substance.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// fcaNotFound builds the not-found error for an FCA lookup, naming the valid
// range so a caller can correct the request.
func fcaNotFound(idx *substance.Index, id substance.ID) error {
	min, max, ok := idx.Bounds()
	if !ok {
		return errors.Newf(errors.ErrCodeRecordNotFound,
			"FCA number %s not found. The registry is empty.", id)
	}
	return errors.Newf(errors.ErrCodeRecordNotFound,
		"FCA number %s not found. Valid FCA numbers range from %d to %d.", id, min, max)
}

// ByFCA returns the record for one FCA number.
func (r *Registry) ByFCA(ctx context.Context, id substance.ID) (*substance.Record, error) {
	idx := r.snapshot()
	key, ok := resolveID(idx, id)
	if !ok {
		r.countLookup("fca", "miss")
		return nil, fcaNotFound(idx, id)
	}
	rec, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	r.countLookup("fca", "hit")
	return rec, nil
}

// Range returns the records whose FCA numbers lie in the half-open interval
// [start, stop), in ascending order. An interval covering no records is an
// ErrCodeRangeEmpty error.
func (r *Registry) Range(ctx context.Context, start, stop int) ([]*substance.Record, error) {
	idx := r.snapshot()
	ids := idx.Between(start, stop)
	if len(ids) == 0 {
		r.countLookup("range", "miss")
		min, max, ok := idx.Bounds()
		if !ok {
			return nil, errors.Newf(errors.ErrCodeRangeEmpty,
				"no FCA numbers in [%d, %d). The registry is empty.", start, stop)
		}
		return nil, errors.Newf(errors.ErrCodeRangeEmpty,
			"no FCA numbers in [%d, %d). Valid FCA numbers range from %d to %d.",
			start, stop, min, max)
	}
	recs, err := r.loadAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	r.countLookup("range", "hit")
	return recs, nil
}

// ByCAS returns every record listing the given CAS number. A CAS number the
// registry does not know yields an empty slice, not an error; distinct
// substances legitimately share CAS numbers, so absence is an answer.
func (r *Registry) ByCAS(ctx context.Context, cas string) ([]*substance.Record, error) {
	idx := r.snapshot()
	ids := idx.IDsForCAS(strings.TrimSpace(cas))
	if len(ids) == 0 {
		r.countLookup("cas", "miss")
		return []*substance.Record{}, nil
	}
	recs, err := r.loadAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	r.countLookup("cas", "hit")
	return recs, nil
}

// ByName returns every record carrying the given Chinese name. Unknown names
// yield an empty slice.
func (r *Registry) ByName(ctx context.Context, name string) ([]*substance.Record, error) {
	idx := r.snapshot()
	ids := idx.IDsForName(strings.TrimSpace(name))
	if len(ids) == 0 {
		r.countLookup("name", "miss")
		return []*substance.Record{}, nil
	}
	recs, err := r.loadAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	r.countLookup("name", "hit")
	return recs, nil
}

// ByCID returns the record a resolved compound CID maps to.
func (r *Registry) ByCID(ctx context.Context, cid int64) (*substance.Record, error) {
	idx := r.snapshot()
	id, ok := idx.IDForCID(cid)
	if !ok {
		r.countLookup("cid", "miss")
		return nil, errors.Newf(errors.ErrCodeCIDNotFound,
			"CID %d not found in the registry.", cid)
	}
	rec, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	r.countLookup("cid", "hit")
	return rec, nil
}

// Get resolves an untyped key, first as an FCA number ("71", "0071", or
// "FCA0071"), then as a CAS number. FCA keys return a single record, CAS
// keys every record listing the number.
func (r *Registry) Get(ctx context.Context, key string) ([]*substance.Record, error) {
	k := strings.TrimSpace(key)
	idx := r.snapshot()

	id := substance.ID(k)
	if parsed, ok := substance.ParseID(k); ok {
		id = parsed
	}
	if resolved, ok := resolveID(idx, id); ok {
		rec, err := r.load(ctx, resolved)
		if err != nil {
			return nil, err
		}
		r.countLookup("key", "hit")
		return []*substance.Record{rec}, nil
	}

	if ids := idx.IDsForCAS(k); len(ids) > 0 {
		recs, err := r.loadAll(ctx, ids)
		if err != nil {
			return nil, err
		}
		r.countLookup("key", "hit")
		return recs, nil
	}

	r.countLookup("key", "miss")
	return nil, errors.Newf(errors.ErrCodeKeyNotFound,
		"key %q matches neither an FCA number nor a CAS number.", k)
}

// ByKeys resolves a batch of untyped keys and splices the results in request
// order. Keys that match nothing are logged and skipped; infrastructure
// failures abort the batch.
func (r *Registry) ByKeys(ctx context.Context, keys []string) ([]*substance.Record, error) {
	out := []*substance.Record{}
	for _, key := range keys {
		recs, err := r.Get(ctx, key)
		if err != nil {
			if errors.IsNotFound(err) {
				r.log.Warn("lookup key skipped", logging.String("key", key), logging.Err(err))
				continue
			}
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// Each visits every record in ascending FCA order. Iteration stops at the
// first error from fn, the first load failure, or context cancellation.
func (r *Registry) Each(ctx context.Context, fn func(*substance.Record) error) error {
	idx := r.snapshot()
	for _, id := range idx.Order {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// HasFCA reports whether the registry knows the given FCA number.
func (r *Registry) HasFCA(id substance.ID) bool {
	_, ok := resolveID(r.snapshot(), id)
	return ok
}

// HasCAS reports whether any record lists the given CAS number.
func (r *Registry) HasCAS(cas string) bool {
	return len(r.snapshot().IDsForCAS(strings.TrimSpace(cas))) > 0
}

// HasName reports whether any record carries the given Chinese name.
func (r *Registry) HasName(name string) bool {
	return len(r.snapshot().IDsForName(strings.TrimSpace(name))) > 0
}

// HasCID reports whether any record maps to the given compound CID.
func (r *Registry) HasCID(cid int64) bool {
	_, ok := r.snapshot().IDForCID(cid)
	return ok
}

// Extended augments a record with properties resolved from the compound
// database at read time. Extension is best effort: with no resolver, no CAS
// number, or a failed resolution the record comes back unextended rather
// than erroring, so a flaky upstream never breaks plain lookups.
func (r *Registry) Extended(ctx context.Context, rec *substance.Record) *substance.ExtendedRecord {
	ext := &substance.ExtendedRecord{Record: rec}
	if r.resolver == nil {
		return ext
	}
	cas := rec.CAS.First()
	if cas == "" {
		return ext
	}
	info, err := r.resolver.Resolve(ctx, cas)
	if err != nil {
		r.countEnrichment("error")
		r.log.Warn("failed to resolve compound properties",
			logging.String("fca", string(rec.FCA)),
			logging.String("cas", cas),
			logging.Err(err),
		)
		return ext
	}
	if info.MolarMass > 0 {
		m := info.MolarMass
		ext.MolarMass = &m
	}
	r.countEnrichment("hit")
	return ext
}

// Rebuild runs one full refresh and swaps in the new index. The record
// cache is purged afterwards so subsequent lookups load the rewritten
// documents.
func (r *Registry) Rebuild(ctx context.Context) (*ingestion.Result, error) {
	if r.refresher == nil {
		return nil, errors.New(errors.ErrCodeValidation, "registry: no refresher configured")
	}
	result, err := r.refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.index = result.Index
	r.mu.Unlock()

	if err := r.cache.Purge(ctx); err != nil {
		// The new documents are durable; a stale cache entry only
		// survives until its TTL.
		r.log.Warn("failed to purge record cache after rebuild", logging.Err(err))
	}
	r.observeSize(result.Index)
	r.log.Info("registry rebuilt",
		logging.Int("records", result.Index.Len()),
		logging.Int("rows", result.Rows),
		logging.Int("skipped", result.Skipped),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

// Stats summarizes the registry for operators.
type Stats struct {
	Records    int    `json:"records"`
	CASNumbers int    `json:"cas_numbers"`
	Names      int    `json:"names"`
	CIDs       int    `json:"cids"`
	MinFCA     int    `json:"min_fca"`
	MaxFCA     int    `json:"max_fca"`
	CSVFile    string `json:"csv_file"`
	BuiltAt    string `json:"built_at"`
	RefreshID  string `json:"refresh_id"`
}

// Stats reports key-space sizes and build provenance of the current index.
func (r *Registry) Stats() Stats {
	idx := r.snapshot()
	min, max, _ := idx.Bounds()
	return Stats{
		Records:    idx.Len(),
		CASNumbers: len(idx.ByCAS),
		Names:      len(idx.ByName),
		CIDs:       len(idx.ByCID),
		MinFCA:     min,
		MaxFCA:     max,
		CSVFile:    idx.CSVFile,
		BuiltAt:    idx.Date,
		RefreshID:  idx.RefreshID,
	}
}

func (r *Registry) countLookup(space, outcome string) {
	if r.metrics != nil {
		r.metrics.Lookups.WithLabelValues(space, outcome).Inc()
	}
}

func (r *Registry) countEnrichment(outcome string) {
	if r.metrics != nil {
		r.metrics.Enrichments.WithLabelValues(outcome).Inc()
	}
}

func (r *Registry) observeSize(idx *substance.Index) {
	if r.metrics != nil {
		r.metrics.RecordsTotal.Set(float64(idx.Len()))
	}
}
