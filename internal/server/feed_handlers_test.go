package server

import (
	"fmt"
	"net/http"
	"testing"

	"underground/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedComposition(t *testing.T) {
	_, app := newTestServer(t)
	fanToken, _ := registerUser(t, app, "fan")
	artistToken, artistID := registerUser(t, app, "artist")
	strangerToken, _ := registerUser(t, app, "stranger")

	uploadTrack(t, app, artistToken, "Followed Cut")
	uploadTrack(t, app, strangerToken, "Stranger Cut")
	uploadTrack(t, app, fanToken, "Own Cut")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", artistID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("requires auth", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("followed plus own, never strangers", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed", fanToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var feed []models.Track
		decodeBody(t, resp, &feed)
		require.Len(t, feed, 2)
		titles := []string{feed[0].Title, feed[1].Title}
		assert.Contains(t, titles, "Followed Cut")
		assert.Contains(t, titles, "Own Cut")
	})
}

func TestRankedFeeds(t *testing.T) {
	_, app := newTestServer(t)
	artistToken, _ := registerUser(t, app, "artist")
	fanToken, _ := registerUser(t, app, "fan")

	uploadTrack(t, app, artistToken, "Quiet")
	loved := uploadTrack(t, app, artistToken, "Loved")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/tracks/%d/like", loved.ID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("popular ranks liked first", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed/popular", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tracks []models.Track
		decodeBody(t, resp, &tracks)
		require.Len(t, tracks, 2)
		assert.Equal(t, "Loved", tracks[0].Title)
		assert.Equal(t, 1, tracks[0].LikesCount)
		assert.Equal(t, "Quiet", tracks[1].Title)
	})

	t.Run("trending includes fresh uploads", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed/trending", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tracks []models.Track
		decodeBody(t, resp, &tracks)
		require.Len(t, tracks, 2)
		assert.Equal(t, "Loved", tracks[0].Title)
	})

	t.Run("recent is newest first", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed/recent", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tracks []models.Track
		decodeBody(t, resp, &tracks)
		require.Len(t, tracks, 2)
	})
}

func TestSuggestions(t *testing.T) {
	_, app := newTestServer(t)
	fanToken, _ := registerUser(t, app, "fan")
	followedToken, followedID := registerUser(t, app, "followed")
	freshToken, _ := registerUser(t, app, "fresh")
	registerUser(t, app, "lurker") // no tracks, never suggested

	uploadTrack(t, app, followedToken, "Old News")
	fresh := uploadTrack(t, app, freshToken, "New Voice")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", followedID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// record a play so most-played has an ordering
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/tracks/%d", fresh.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("authenticated viewer", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed/suggestions", fanToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Artists []models.User  `json:"artists"`
			Tracks  []models.Track `json:"tracks"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Artists, 1)
		assert.Equal(t, "fresh", body.Artists[0].Username)
		require.NotEmpty(t, body.Tracks)
		assert.Equal(t, "New Voice", body.Tracks[0].Title)
	})

	t.Run("anonymous viewer sees all artists", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed/suggestions", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Artists []models.User `json:"artists"`
		}
		decodeBody(t, resp, &body)
		assert.Len(t, body.Artists, 2)
	})
}
