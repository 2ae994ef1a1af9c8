package server

import (
	"fmt"
	"net/http"
	"testing"

	"underground/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowFlow(t *testing.T) {
	_, app := newTestServer(t)
	fanToken, fanID := registerUser(t, app, "fan")
	_, artistID := registerUser(t, app, "artist")

	followPath := fmt.Sprintf("/api/users/%d/follow", artistID)

	resp := doJSON(t, app, http.MethodPost, followPath, fanToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// duplicate follow conflicts
	resp = doJSON(t, app, http.MethodPost, followPath, fanToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// self-follow rejected
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", fanID), fanToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown target
	resp = doJSON(t, app, http.MethodPost, "/api/users/9999/follow", fanToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// follower list reflects the edge
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/followers", artistID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var followers []models.User
	decodeBody(t, resp, &followers)
	require.Len(t, followers, 1)
	assert.Equal(t, "fan", followers[0].Username)

	// profile annotation for the authenticated viewer
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", artistID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile models.Profile
	decodeBody(t, resp, &profile)
	assert.True(t, profile.IsFollowing)
	assert.EqualValues(t, 1, profile.Stats.Followers)

	// unfollow, then unfollow again conflicts
	resp = doJSON(t, app, http.MethodDelete, followPath, fanToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, http.MethodDelete, followPath, fanToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSearchUsers(t *testing.T) {
	_, app := newTestServer(t)
	registerUser(t, app, "nightdrive")
	registerUser(t, app, "nightowl")
	registerUser(t, app, "daytime")

	resp := doJSON(t, app, http.MethodGet, "/api/users/search?q=night", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []models.User
	decodeBody(t, resp, &users)
	assert.Len(t, users, 2)

	resp = doJSON(t, app, http.MethodGet, "/api/users/search?q=n", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserTracksAndProfile(t *testing.T) {
	_, app := newTestServer(t)
	token, userID := registerUser(t, app, "producer")
	uploadTrack(t, app, token, "Cut One")
	uploadTrack(t, app, token, "Cut Two")

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/tracks", userID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tracks []models.Track
	decodeBody(t, resp, &tracks)
	assert.Len(t, tracks, 2)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile models.Profile
	decodeBody(t, resp, &profile)
	assert.EqualValues(t, 2, profile.Stats.Tracks)
	assert.False(t, profile.IsFollowing)

	resp = doJSON(t, app, http.MethodGet, "/api/users/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
