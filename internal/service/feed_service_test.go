package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedServiceFeedComposition(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	viewer := env.registerUser(t, "viewer")
	followed := env.registerUser(t, "followed")
	stranger := env.registerUser(t, "stranger")

	require.NoError(t, env.social.Follow(ctx, viewer.ID, followed.ID))

	env.uploadTrack(t, viewer.ID, "own")
	env.uploadTrack(t, followed.ID, "followed")
	env.uploadTrack(t, stranger.ID, "stranger")

	feed, err := env.feed.Feed(ctx, viewer.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	for _, track := range feed {
		assert.NotEqual(t, stranger.ID, track.UserID)
	}
}

func TestFeedServiceSuggestions(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	viewer := env.registerUser(t, "viewer")
	known := env.registerUser(t, "known")
	fresh := env.registerUser(t, "fresh")
	env.registerUser(t, "lurker")

	env.uploadTrack(t, known.ID, "k1")
	env.uploadTrack(t, fresh.ID, "f1")
	require.NoError(t, env.social.Follow(ctx, viewer.ID, known.ID))

	suggestions, err := env.feed.Suggestions(ctx, viewer.ID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, fresh.ID, suggestions[0].ID)
}

func TestFeedServiceRankingsForViewer(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	artist := env.registerUser(t, "artist")
	fan := env.registerUser(t, "fan")
	track := env.uploadTrack(t, artist.ID, "ranked")
	env.uploadTrack(t, artist.ID, "quiet")

	require.NoError(t, env.tracks.Like(ctx, fan.ID, track.ID))

	popular, err := env.feed.Popular(ctx, 20, 0, fan.ID)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, track.ID, popular[0].ID)
	require.NotNil(t, popular[0].Liked)
	assert.True(t, *popular[0].Liked)

	trending, err := env.feed.Trending(ctx, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, track.ID, trending[0].ID)

	recent, err := env.feed.Recent(ctx, 20, 0, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
