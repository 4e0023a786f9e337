package ingestion

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// MissJournal is the persisted memory of CAS numbers already tried against
// the compound database. Load primes it before a refresh so known misses
// cost no network calls; Persist writes the updated set once the refresh
// has finished.
type MissJournal interface {
	Load(ctx context.Context) error
	Persist(ctx context.Context) error
}

// Config collects the dependencies of a Service. Repository and CSVPath
// are required; a nil Resolver disables compound enrichment, a nil Journal
// disables miss persistence, and a nil Logger discards output.
type Config struct {
	Repository substance.Repository
	Resolver   substance.Resolver
	Journal    MissJournal
	CSVPath    string
	Logger     logging.Logger
	Metrics    *prometheus.AppMetrics
}

// Service rebuilds the registry from the source table: it parses every
// row, merges rows into per-substance records, resolves compound
// identifiers, and persists the records plus the global index.
type Service struct {
	repo     substance.Repository
	resolver substance.Resolver
	journal  MissJournal
	csvPath  string
	log      logging.Logger
	metrics  *prometheus.AppMetrics
}

// NewService constructs a Service from its dependencies.
func NewService(cfg Config) (*Service, error) {
	if cfg.Repository == nil {
		return nil, errors.Validation("ingestion: repository is required")
	}
	if cfg.CSVPath == "" {
		return nil, errors.Validation("ingestion: source table path is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		repo:     cfg.Repository,
		resolver: cfg.Resolver,
		journal:  cfg.Journal,
		csvPath:  cfg.CSVPath,
		log:      log.Named("ingestion"),
		metrics:  cfg.Metrics,
	}, nil
}

// Result summarizes one refresh run.
type Result struct {
	Index *substance.Index

	// Rows is the number of source rows merged into records.
	Rows int

	// Skipped is the number of structurally rejected rows.
	Skipped int

	Duration time.Duration
}

// Refresh performs one full rebuild. The whole source table is re-read,
// records are merged fresh, and every persisted document is replaced. The
// returned index is the same one written to storage.
//
// Refresh is not safe for concurrent invocation; callers serialize it.
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	start := time.Now()
	refreshID := uuid.NewString()
	log := s.log.With(logging.String("refresh_id", refreshID))

	if s.journal != nil {
		if err := s.journal.Load(ctx); err != nil {
			// A lost journal only costs repeat lookups.
			log.Warn("failed to load enrichment journal", logging.Err(err))
		}
	}

	f, err := os.Open(s.csvPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeSourceUnreadable,
			"failed to open source table %s", s.csvPath)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// The header row is present but carries no data.
	if _, err := reader.Read(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnreadable,
			"failed to read source table header")
	}

	idx := substance.NewIndex(filepath.Base(s.csvPath), refreshID)
	records := make(map[substance.ID]*substance.Record)
	res := &Result{Index: idx}

	for rowNum := 1; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRefreshFailed, "refresh canceled")
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeSourceUnreadable,
				"failed to read source row %d", rowNum)
		}

		rowRes, err := Normalize(row)
		if err != nil {
			res.Skipped++
			s.countRow("skipped")
			log.Debug("row skipped", logging.Int("row", rowNum), logging.Err(err))
			continue
		}

		rec, ok := records[rowRes.ID]
		if !ok {
			rec = substance.NewRecord(rowRes.ID, rowRes.Name, rowRes.CAS)
			rec.CSFile = idx.CSVFile
			rec.Date = idx.Date
			cid, err := s.resolveCID(ctx, rowRes, log)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrCodeRefreshFailed,
					"failed to resolve compound for FCA %s", rowRes.ID)
			}
			rec.CID = cid
			records[rowRes.ID] = rec
		}
		rec.Merge(rowRes.Category, rowRes.Entry)
		idx.Register(rowRes.ID, rowRes.Name, rowRes.CAS.Values)
		res.Rows++
		s.countRow("merged")
	}

	ids := make([]substance.ID, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	idx.SetOrder(ids)

	for _, id := range idx.Order {
		rec := records[id]
		if err := s.repo.SaveRecord(ctx, rec); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeRefreshFailed,
				"failed to persist record FCA %s", id)
		}
		if rec.CID != nil {
			idx.SetCID(*rec.CID, id)
		}
	}
	if err := s.repo.SaveIndex(ctx, idx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRefreshFailed,
			"failed to persist index")
	}

	if s.journal != nil {
		if err := s.journal.Persist(ctx); err != nil {
			// The index is already durable; the journal will be
			// rewritten by the next refresh.
			log.Error("failed to persist enrichment journal", logging.Err(err))
		}
	}

	res.Duration = time.Since(start)
	if s.metrics != nil {
		s.metrics.IngestDuration.Observe(res.Duration.Seconds())
		s.metrics.RecordsTotal.Set(float64(idx.Len()))
	}
	log.Info("refresh complete",
		logging.String("csv", idx.CSVFile),
		logging.Int("rows", res.Rows),
		logging.Int("skipped", res.Skipped),
		logging.Int("records", idx.Len()),
		logging.Duration("duration", res.Duration),
	)
	return res, nil
}

// resolveCID resolves the record's compound identifier from its first CAS
// number. Resolution happens once per record, on creation; a substance the
// database does not know yields a nil CID, any other failure aborts the
// refresh.
func (s *Service) resolveCID(ctx context.Context, row *RowResult, log logging.Logger) (*int64, error) {
	if s.resolver == nil {
		return nil, nil
	}
	cas := row.CAS.First()
	if cas == "" {
		return nil, nil
	}
	info, err := s.resolver.Resolve(ctx, cas)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Warn("substance not found in compound database",
				logging.String("name", row.Name),
				logging.String("cas", cas))
			return nil, nil
		}
		return nil, err
	}
	cid := info.CID
	return &cid, nil
}

func (s *Service) countRow(outcome string) {
	if s.metrics != nil {
		s.metrics.IngestRows.WithLabelValues(outcome).Inc()
	}
}
