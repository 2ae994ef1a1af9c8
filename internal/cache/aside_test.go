package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedRecord struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	old := client
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(old) })
	return mr
}

func TestAsideMissThenHit(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedRecord) func() error {
		return func() error {
			calls++
			dest.ID = 7
			dest.Title = "midnight static"
			return nil
		}
	}

	var first cachedRecord
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "midnight static", first.Title)

	// Second read must be served from the cache without a fetch
	var second cachedRecord
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestAsideExpiry(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	var out cachedRecord
	fetch := func() error {
		calls++
		out.ID = 3
		return nil
	}

	require.NoError(t, Aside(ctx, UserKey(3), &out, time.Minute, fetch))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, Aside(ctx, UserKey(3), &out, time.Minute, fetch))
	assert.Equal(t, 2, calls)
}

func TestInvalidateUser(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(4), cachedRecord{ID: 4}, UserTTL))

	InvalidateUser(ctx, 4)

	assert.False(t, mr.Exists(UserKey(4)))
}

func TestInvalidateRankings(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, TrendingKey(20, 0), []cachedRecord{{ID: 1}}, TrendingTTL))
	require.NoError(t, SetJSON(ctx, PopularKey(20, 0), []cachedRecord{{ID: 2}}, PopularTTL))
	require.NoError(t, SetJSON(ctx, UserKey(9), cachedRecord{ID: 9}, UserTTL))

	InvalidateRankings(ctx)

	assert.False(t, mr.Exists(TrendingKey(20, 0)))
	assert.False(t, mr.Exists(PopularKey(20, 0)))
	assert.True(t, mr.Exists(UserKey(9)))
}

func TestGetJSONNilClient(t *testing.T) {
	old := client
	SetClient(nil)
	t.Cleanup(func() { SetClient(old) })

	var out cachedRecord
	found, err := GetJSON(context.Background(), UserKey(1), &out)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(context.Background(), UserKey(1), out, time.Minute))
}
