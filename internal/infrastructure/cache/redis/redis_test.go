package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
	"github.com/turtacn/FCM-Registry/pkg/types/gb"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	// ttl 0 keeps the jittered expiry deterministic for the mock.
	s.cache = &Cache{
		rdb:    db,
		logger: logging.NewNopLogger(),
		prefix: "test:record:",
	}
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *CacheTestSuite) record() *substance.Record {
	return substance.NewRecord("71", "乙醛", gb.StringsOf("75-07-0"))
}

func (s *CacheTestSuite) TestGetOrLoadHit() {
	rec := s.record()
	data, err := json.Marshal(rec)
	require.NoError(s.T(), err)
	s.mock.ExpectGet("test:record:FCA0071").SetVal(string(data))

	got, err := s.cache.GetOrLoad(context.Background(), "71", func(context.Context) (*substance.Record, error) {
		s.T().Error("loader must not run on a cache hit")
		return nil, nil
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), substance.ID("71"), got.FCA)
	assert.Equal(s.T(), "乙醛", got.Name)
}

func (s *CacheTestSuite) TestGetOrLoadMissLoadsAndCaches() {
	rec := s.record()
	data, err := json.Marshal(rec)
	require.NoError(s.T(), err)

	s.mock.ExpectGet("test:record:FCA0071").RedisNil()
	s.mock.ExpectSet("test:record:FCA0071", data, 0).SetVal("OK")

	loads := 0
	got, err := s.cache.GetOrLoad(context.Background(), "71", func(context.Context) (*substance.Record, error) {
		loads++
		return rec, nil
	})
	require.NoError(s.T(), err)
	assert.Same(s.T(), rec, got)
	assert.Equal(s.T(), 1, loads)
}

func (s *CacheTestSuite) TestGetOrLoadDropsCorruptEntry() {
	rec := s.record()
	data, err := json.Marshal(rec)
	require.NoError(s.T(), err)

	s.mock.ExpectGet("test:record:FCA0071").SetVal("not json")
	s.mock.ExpectDel("test:record:FCA0071").SetVal(1)
	s.mock.ExpectSet("test:record:FCA0071", data, 0).SetVal("OK")

	got, err := s.cache.GetOrLoad(context.Background(), "71", func(context.Context) (*substance.Record, error) {
		return rec, nil
	})
	require.NoError(s.T(), err)
	assert.Same(s.T(), rec, got)
}

func (s *CacheTestSuite) TestGetOrLoadLoaderError() {
	s.mock.ExpectGet("test:record:FCA9999").RedisNil()

	_, err := s.cache.GetOrLoad(context.Background(), "9999", func(context.Context) (*substance.Record, error) {
		return nil, errors.New(errors.ErrCodeObjectNotFound, "no document")
	})
	require.Error(s.T(), err)
	assert.True(s.T(), errors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGetOrLoadDegradesWhenRedisFails() {
	rec := s.record()
	data, err := json.Marshal(rec)
	require.NoError(s.T(), err)

	s.mock.ExpectGet("test:record:FCA0071").SetErr(assert.AnError)
	s.mock.ExpectSet("test:record:FCA0071", data, 0).SetErr(assert.AnError)

	got, err := s.cache.GetOrLoad(context.Background(), "71", func(context.Context) (*substance.Record, error) {
		return rec, nil
	})
	require.NoError(s.T(), err)
	assert.Same(s.T(), rec, got)
}

func (s *CacheTestSuite) TestPurge() {
	s.mock.ExpectScan(0, "test:record:*", 100).SetVal([]string{"test:record:FCA0001", "test:record:FCA0002"}, 0)
	s.mock.ExpectDel("test:record:FCA0001", "test:record:FCA0002").SetVal(2)

	require.NoError(s.T(), s.cache.Purge(context.Background()))
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}
