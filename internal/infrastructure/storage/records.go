package storage

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// IndexObject is the name of the persisted global index document.
const IndexObject = "gb_index.json"

// RecordStore reads and writes substance records and the global index as
// pretty-printed JSON documents in a Store. It implements
// substance.Repository.
type RecordStore struct {
	store  Store
	logger logging.Logger
}

// NewRecordStore wraps store with the registry document encoding.
func NewRecordStore(store Store, log logging.Logger) *RecordStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RecordStore{
		store:  store,
		logger: log.Named("storage"),
	}
}

func (s *RecordStore) SaveRecord(ctx context.Context, rec *substance.Record) error {
	if rec == nil {
		return errors.New(errors.ErrCodeValidation, "record must not be nil")
	}
	data, err := encodeDocument(rec)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeSerialization, "encode record FCA %s", rec.FCA)
	}
	if err := s.store.Put(ctx, rec.FCA.FileName(), data); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageIO, "write record FCA %s", rec.FCA)
	}
	s.logger.Debug("record document written",
		logging.String("object", rec.FCA.FileName()),
		logging.Int("bytes", len(data)),
	)
	return nil
}

func (s *RecordStore) LoadRecord(ctx context.Context, id substance.ID) (*substance.Record, error) {
	data, err := s.store.Get(ctx, id.FileName())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageIO, "read record FCA %s", id)
	}
	var rec substance.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeCorruptDocument, "decode record FCA %s", id)
	}
	return &rec, nil
}

func (s *RecordStore) SaveIndex(ctx context.Context, idx *substance.Index) error {
	if idx == nil {
		return errors.New(errors.ErrCodeValidation, "index must not be nil")
	}
	data, err := encodeDocument(idx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode index")
	}
	if err := s.store.Put(ctx, IndexObject, data); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageIO, "write index")
	}
	s.logger.Debug("index document written",
		logging.String("object", IndexObject),
		logging.Int("records", idx.Len()),
	)
	return nil
}

// LoadIndex returns the persisted index. When no index document exists yet
// the error carries ErrCodeIndexMissing, which callers treat as the signal
// to run a full source refresh.
func (s *RecordStore) LoadIndex(ctx context.Context) (*substance.Index, error) {
	data, err := s.store.Get(ctx, IndexObject)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrCodeIndexMissing, "registry index has not been built")
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageIO, "read index")
	}
	var idx substance.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCorruptDocument, "decode index")
	}
	return &idx, nil
}

// Ping probes the backing store. Whether the index document exists yet is
// irrelevant, only that the store answered.
func (s *RecordStore) Ping(ctx context.Context) error {
	if _, err := s.store.Exists(ctx, IndexObject); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageIO, "storage probe failed")
	}
	return nil
}

// encodeDocument renders v the way published registry documents look:
// two-space indentation and no HTML escaping, so comparison operators in
// restriction comments survive verbatim.
func encodeDocument(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
