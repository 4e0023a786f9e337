package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/pkg/errors"
	"github.com/turtacn/FCM-Registry/pkg/types/gb"
)

func TestGetOrLoadMemoizes(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()
	loads := 0
	load := func(context.Context) (*substance.Record, error) {
		loads++
		return substance.NewRecord("71", "乙醛", gb.StringsOf("75-07-0")), nil
	}

	rec, err := cache.GetOrLoad(ctx, "71", load)
	require.NoError(t, err)
	assert.Equal(t, substance.ID("71"), rec.FCA)
	assert.Equal(t, 1, loads)

	again, err := cache.GetOrLoad(ctx, "71", load)
	require.NoError(t, err)
	assert.Same(t, rec, again)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, cache.Len())
}

func TestGetOrLoadErrorNotCached(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()
	loads := 0
	load := func(context.Context) (*substance.Record, error) {
		loads++
		return nil, errors.New(errors.ErrCodeObjectNotFound, "missing")
	}

	_, err := cache.GetOrLoad(ctx, "9999", load)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.GetOrLoad(ctx, "9999", load)
	require.Error(t, err)
	assert.Equal(t, 2, loads)
}

func TestPurge(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()
	_, err := cache.GetOrLoad(ctx, "71", func(context.Context) (*substance.Record, error) {
		return substance.NewRecord("71", "乙醛", gb.StringsOf("75-07-0")), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Purge(ctx))
	assert.Equal(t, 0, cache.Len())
}
