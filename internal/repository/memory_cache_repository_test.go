package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/oref-labs/placement-api/pkg/errors"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	repo := NewMemoryCacheRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "ref:list:tests", []string{"T-1", "T-2"}, time.Minute))

	var got []string
	require.NoError(t, repo.Get(ctx, "ref:list:tests", &got))
	assert.Equal(t, []string{"T-1", "T-2"}, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	repo := NewMemoryCacheRepository()

	var got []string
	err := repo.Get(context.Background(), "ref:list:periods", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	repo := NewMemoryCacheRepository()
	ctx := context.Background()

	now := time.Now()
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.Set(ctx, "ref:roster", []string{"a"}, 5*time.Minute))

	repo.now = func() time.Time { return now.Add(5*time.Minute + time.Second) }
	var got []string
	err := repo.Get(ctx, "ref:roster", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	repo := NewMemoryCacheRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "ref:roster", []string{"a"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "ref:list:tests", []string{"b"}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "*"))

	var got []string
	assert.ErrorIs(t, repo.Get(ctx, "ref:roster", &got), appErrors.ErrCacheMiss)
	assert.ErrorIs(t, repo.Get(ctx, "ref:list:tests", &got), appErrors.ErrCacheMiss)
}
