package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FCM-Registry/internal/application/ingestion"
	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/testutil"
	"github.com/turtacn/FCM-Registry/pkg/errors"
	"github.com/turtacn/FCM-Registry/pkg/types/gb"
)

type stubRefresher struct {
	result *ingestion.Result
	err    error
	calls  int
}

func (s *stubRefresher) Refresh(context.Context) (*ingestion.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type seedSubstance struct {
	id   substance.ID
	name string
	cas  string
	cid  *int64
}

func cid(v int64) *int64 { return &v }

// seedRepo persists five substances and their index. Two of them share a
// CAS number, two carry resolved CIDs, and one has neither.
func seedRepo(t *testing.T) *testutil.MemRepository {
	t.Helper()
	ctx := context.Background()
	repo := testutil.NewMemRepository()
	idx := substance.NewIndex("GB9685_2016.csv", "seed-refresh")

	seeds := []seedSubstance{
		{"71", "乙醛", "75-07-0", cid(177)},
		{"163", "甲醛", "50-00-0", cid(712)},
		{"201", "石蜡", "8002-74-2", nil},
		{"202", "微晶蜡", "8002-74-2", nil},
		{"818", "三氧化二锑", "1309-64-4", nil},
	}
	ids := make([]substance.ID, 0, len(seeds))
	for _, s := range seeds {
		rec := substance.NewRecord(s.id, s.name, gb.StringsOf(s.cas))
		rec.CID = s.cid
		rec.CSFile = idx.CSVFile
		rec.Date = idx.Date
		rec.Merge("塑料 plastics", gb.Entry{Materials: []string{"PE", "PP"}})
		require.NoError(t, repo.SaveRecord(ctx, rec))
		idx.Register(s.id, s.name, []string{s.cas})
		ids = append(ids, s.id)
		if s.cid != nil {
			idx.SetCID(*s.cid, s.id)
		}
	}
	idx.SetOrder(ids)
	require.NoError(t, repo.SaveIndex(ctx, idx))
	return repo
}

func openSeeded(t *testing.T, opts Options) *Registry {
	t.Helper()
	if opts.Repository == nil {
		opts.Repository = seedRepo(t)
	}
	reg, err := Open(context.Background(), opts)
	require.NoError(t, err)
	return reg
}

func fcaNumbers(recs []*substance.Record) []substance.ID {
	out := make([]substance.ID, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.FCA)
	}
	return out
}

func TestOpenLoadsPersistedIndex(t *testing.T) {
	reg := openSeeded(t, Options{})

	assert.Equal(t, 5, reg.Len())
	assert.Equal(t, "GB9685_2016.csv", reg.Index().CSVFile)
}

func TestOpenBuildsWhenIndexMissing(t *testing.T) {
	repo := seedRepo(t)
	idx := repo.Index
	// A repository that has never been refreshed has no index document.
	repo.Index = nil
	refresher := &stubRefresher{result: &ingestion.Result{Index: idx, Rows: 5}}

	reg, err := Open(context.Background(), Options{
		Repository: repo,
		Refresher:  refresher,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, reg.Len())
	assert.Equal(t, 1, refresher.calls)

	// A warm repository must not trigger a rebuild.
	idx.RefreshID = "persisted"
	repo.Index = idx
	reg, err = Open(context.Background(), Options{Repository: repo, Refresher: refresher})
	require.NoError(t, err)
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, "persisted", reg.Index().RefreshID)
}

func TestOpenColdWithoutRefresher(t *testing.T) {
	_, err := Open(context.Background(), Options{Repository: testutil.NewMemRepository()})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexMissing))
}

func TestOpenRequiresRepository(t *testing.T) {
	_, err := Open(context.Background(), Options{})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestByFCA(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	rec, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)
	assert.Equal(t, substance.ID("71"), rec.FCA)
	assert.Equal(t, "乙醛", rec.Name)
	assert.Equal(t, 5, rec.Total)

	// Zero-padded spelling resolves to the same record.
	padded, err := reg.ByFCA(ctx, "0071")
	require.NoError(t, err)
	assert.Same(t, rec, padded)
}

func TestByFCANotFound(t *testing.T) {
	reg := openSeeded(t, Options{})

	_, err := reg.ByFCA(context.Background(), "9999")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordNotFound))
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Valid FCA numbers range from 71 to 818.")
}

func TestByFCAEmptyRegistry(t *testing.T) {
	repo := testutil.NewMemRepository()
	repo.Index = substance.NewIndex("GB9685_2016.csv", "empty")
	reg := openSeeded(t, Options{Repository: repo})

	_, err := reg.ByFCA(context.Background(), "71")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordNotFound))
	assert.Contains(t, err.Error(), "The registry is empty.")
}

func TestByFCAIdentityMismatch(t *testing.T) {
	repo := seedRepo(t)
	// A document filed under FCA 71 that claims another identity is
	// corrupt, not a hit.
	repo.Records["71"] = substance.NewRecord("72", "乙醛", gb.StringsOf("75-07-0"))
	reg := openSeeded(t, Options{Repository: repo})

	_, err := reg.ByFCA(context.Background(), "71")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCorruptDocument))
}

func TestRange(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	recs, err := reg.Range(ctx, 71, 202)
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"71", "163", "201"}, fcaNumbers(recs))

	all, err := reg.Range(ctx, 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"71", "163", "201", "202", "818"}, fcaNumbers(all))
}

func TestRangeEmpty(t *testing.T) {
	reg := openSeeded(t, Options{})

	_, err := reg.Range(context.Background(), 900, 1000)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRangeEmpty))
	assert.Contains(t, err.Error(), "[900, 1000)")
	assert.Contains(t, err.Error(), "range from 71 to 818")
}

func TestByCAS(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	recs, err := reg.ByCAS(ctx, "75-07-0")
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"71"}, fcaNumbers(recs))

	// Paraffin and microcrystalline wax share a CAS number; both come back.
	shared, err := reg.ByCAS(ctx, "8002-74-2")
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"201", "202"}, fcaNumbers(shared))
}

func TestByCASUnknown(t *testing.T) {
	reg := openSeeded(t, Options{})

	recs, err := reg.ByCAS(context.Background(), "0000-00-0")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestByName(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	recs, err := reg.ByName(ctx, "乙醛")
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"71"}, fcaNumbers(recs))

	unknown, err := reg.ByName(ctx, "不存在")
	require.NoError(t, err)
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestByCID(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	rec, err := reg.ByCID(ctx, 177)
	require.NoError(t, err)
	assert.Equal(t, substance.ID("71"), rec.FCA)

	_, err = reg.ByCID(ctx, 999999)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCIDNotFound))
	assert.Contains(t, err.Error(), "CID 999999 not found in the registry.")
}

func TestGet(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	byNumber, err := reg.Get(ctx, "71")
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"71"}, fcaNumbers(byNumber))

	byCode, err := reg.Get(ctx, "FCA0071")
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"71"}, fcaNumbers(byCode))

	byCAS, err := reg.Get(ctx, "8002-74-2")
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"201", "202"}, fcaNumbers(byCAS))
}

func TestGetUnknownKey(t *testing.T) {
	reg := openSeeded(t, Options{})

	_, err := reg.Get(context.Background(), "no-such-key")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeKeyNotFound))
	assert.True(t, errors.IsNotFound(err))
}

func TestByKeys(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	recs, err := reg.ByKeys(ctx, []string{"818", "bogus", "8002-74-2"})
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"818", "201", "202"}, fcaNumbers(recs))

	none, err := reg.ByKeys(ctx, []string{"bogus", "also-bogus"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEach(t *testing.T) {
	reg := openSeeded(t, Options{})

	var visited []substance.ID
	err := reg.Each(context.Background(), func(rec *substance.Record) error {
		visited = append(visited, rec.FCA)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []substance.ID{"71", "163", "201", "202", "818"}, visited)
}

func TestEachStopsOnError(t *testing.T) {
	reg := openSeeded(t, Options{})

	count := 0
	err := reg.Each(context.Background(), func(*substance.Record) error {
		count++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, count)
}

func TestEachHonorsContext(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := reg.Each(ctx, func(*substance.Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHas(t *testing.T) {
	reg := openSeeded(t, Options{})

	assert.True(t, reg.HasFCA("71"))
	assert.True(t, reg.HasFCA("0071"))
	assert.False(t, reg.HasFCA("9999"))

	assert.True(t, reg.HasCAS("75-07-0"))
	assert.False(t, reg.HasCAS("0000-00-0"))

	assert.True(t, reg.HasName("甲醛"))
	assert.False(t, reg.HasName("不存在"))

	assert.True(t, reg.HasCID(712))
	assert.False(t, reg.HasCID(999999))
}

func TestRecordsAreMemoized(t *testing.T) {
	repo := seedRepo(t)
	reg := openSeeded(t, Options{Repository: repo})
	ctx := context.Background()

	first, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)
	second, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, repo.LoadCount)
}

func TestExtended(t *testing.T) {
	resolver := testutil.NewStubResolver(map[string]substance.ChemicalInfo{
		"75-07-0": {CID: 177, MolarMass: 44.05, Name: "Acetaldehyde"},
	})
	reg := openSeeded(t, Options{Resolver: resolver})
	ctx := context.Background()

	rec, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)

	ext := reg.Extended(ctx, rec)
	require.NotNil(t, ext.MolarMass)
	assert.InDelta(t, 44.05, *ext.MolarMass, 1e-9)
	assert.Equal(t, rec.Name, ext.Name)
}

func TestExtendedUnresolvedCompound(t *testing.T) {
	reg := openSeeded(t, Options{Resolver: testutil.NewStubResolver(nil)})
	ctx := context.Background()

	rec, err := reg.ByFCA(ctx, "818")
	require.NoError(t, err)

	ext := reg.Extended(ctx, rec)
	assert.Nil(t, ext.MolarMass)
}

func TestExtendedWithoutResolver(t *testing.T) {
	reg := openSeeded(t, Options{})
	ctx := context.Background()

	rec, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)

	ext := reg.Extended(ctx, rec)
	assert.Nil(t, ext.MolarMass)
	assert.Same(t, rec, ext.Record)
}

func TestExtendedResolverFailure(t *testing.T) {
	resolver := testutil.NewStubResolver(nil)
	resolver.Err = errors.New(errors.ErrCodeEnrichmentUnavailable, "compound database down")
	reg := openSeeded(t, Options{Resolver: resolver})
	ctx := context.Background()

	rec, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)

	// A broken upstream degrades the extension, never the lookup.
	ext := reg.Extended(ctx, rec)
	assert.Nil(t, ext.MolarMass)
}

func TestExtendedWithoutCAS(t *testing.T) {
	resolver := testutil.NewStubResolver(nil)
	repo := seedRepo(t)
	rec := substance.NewRecord("900", "未命名", gb.Strings{})
	require.NoError(t, repo.SaveRecord(context.Background(), rec))
	repo.Index.Register("900", "未命名", nil)
	repo.Index.SetOrder(append(repo.Index.Order, "900"))
	reg := openSeeded(t, Options{Repository: repo, Resolver: resolver})

	loaded, err := reg.ByFCA(context.Background(), "900")
	require.NoError(t, err)

	ext := reg.Extended(context.Background(), loaded)
	assert.Nil(t, ext.MolarMass)
	assert.Zero(t, resolver.CallCount())
}

func TestRebuild(t *testing.T) {
	repo := seedRepo(t)
	rebuilt := substance.NewIndex("GB9685_2016.csv", "rebuild")
	rebuilt.Register("71", "乙醛(修订)", []string{"75-07-0"})
	rebuilt.SetOrder([]substance.ID{"71"})
	refresher := &stubRefresher{result: &ingestion.Result{Index: rebuilt, Rows: 1}}
	reg := openSeeded(t, Options{Repository: repo, Refresher: refresher})
	ctx := context.Background()

	// Warm the cache, then change the stored document behind it.
	_, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)
	updated := substance.NewRecord("71", "乙醛(修订)", gb.StringsOf("75-07-0"))
	require.NoError(t, repo.SaveRecord(ctx, updated))

	result, err := reg.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "rebuild", reg.Index().RefreshID)

	// The purged cache reloads the rewritten document.
	rec, err := reg.ByFCA(ctx, "71")
	require.NoError(t, err)
	assert.Equal(t, "乙醛(修订)", rec.Name)
}

func TestRebuildFailureKeepsIndex(t *testing.T) {
	refresher := &stubRefresher{err: errors.New(errors.ErrCodeRefreshFailed, "source table unreadable")}
	reg := openSeeded(t, Options{Refresher: refresher})

	_, err := reg.Rebuild(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRefreshFailed))
	assert.Equal(t, 5, reg.Len())
}

func TestRebuildWithoutRefresher(t *testing.T) {
	reg := openSeeded(t, Options{})

	_, err := reg.Rebuild(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestStats(t *testing.T) {
	reg := openSeeded(t, Options{})

	stats := reg.Stats()
	assert.Equal(t, 5, stats.Records)
	assert.Equal(t, 4, stats.CASNumbers)
	assert.Equal(t, 5, stats.Names)
	assert.Equal(t, 2, stats.CIDs)
	assert.Equal(t, 71, stats.MinFCA)
	assert.Equal(t, 818, stats.MaxFCA)
	assert.Equal(t, "GB9685_2016.csv", stats.CSVFile)
	assert.Equal(t, "seed-refresh", stats.RefreshID)
}
