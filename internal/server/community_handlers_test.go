package server

import (
	"fmt"
	"net/http"
	"testing"

	"underground/internal/models"
	"underground/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFlow(t *testing.T) {
	_, app := newTestServer(t)
	aliceToken, aliceID := registerUser(t, app, "alice")
	bobToken, bobID := registerUser(t, app, "bob")

	t.Run("send", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/community/messages", aliceToken, map[string]any{
			"receiver_id": bobID,
			"content":     "got a verse for you",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var message models.Message
		decodeBody(t, resp, &message)
		assert.Equal(t, aliceID, message.SenderID)
		assert.False(t, message.Read)
	})

	t.Run("self-message rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/community/messages", aliceToken, map[string]any{
			"receiver_id": aliceID,
			"content":     "note to self",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown receiver", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/community/messages", aliceToken, map[string]any{
			"receiver_id": 9999,
			"content":     "hello?",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("thread fetch is the read receipt", func(t *testing.T) {
		// bob reads the thread; alice's message flips to read
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/community/messages/%d", aliceID), bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var thread []models.Message
		decodeBody(t, resp, &thread)
		require.Len(t, thread, 1)
		assert.True(t, thread[0].Read)
	})

	t.Run("conversations summary", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/community/messages", bobToken, map[string]any{
			"receiver_id": aliceID,
			"content":     "send it over",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, app, http.MethodGet, "/api/community/conversations", aliceToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var conversations []models.Conversation
		decodeBody(t, resp, &conversations)
		require.Len(t, conversations, 1)
		assert.Equal(t, "bob", conversations[0].Username)
		assert.Equal(t, "send it over", conversations[0].LastMessage)
		assert.EqualValues(t, 1, conversations[0].UnreadCount)
	})
}

func TestNotificationEndpoints(t *testing.T) {
	_, app := newTestServer(t)
	ownerToken, ownerID := registerUser(t, app, "owner")
	fanToken, _ := registerUser(t, app, "fan")
	track := uploadTrack(t, app, ownerToken, "Noticed")

	// a like and a follow each produce one notification for the owner
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/tracks/%d/like", track.ID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", ownerID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unread_count"`
	}
	resp = doJSON(t, app, http.MethodGet, "/api/community/notifications", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listing)
	require.Len(t, listing.Notifications, 2)
	assert.EqualValues(t, 2, listing.UnreadCount)

	// mark one specific notification
	resp = doJSON(t, app, http.MethodPut, "/api/community/notifications/read", ownerToken, map[string]any{
		"ids": []uint{listing.Notifications[0].ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/community/notifications?unread_only=true", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listing)
	require.Len(t, listing.Notifications, 1)
	assert.EqualValues(t, 1, listing.UnreadCount)

	// fan cannot mark the owner's notification
	resp = doJSON(t, app, http.MethodPut, "/api/community/notifications/read", fanToken, map[string]any{
		"ids": []uint{listing.Notifications[0].ID},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// empty body marks everything
	resp = doJSON(t, app, http.MethodPut, "/api/community/notifications/read", ownerToken, map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/community/notifications", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listing)
	assert.EqualValues(t, 0, listing.UnreadCount)
}

func TestCollaborationEndpoints(t *testing.T) {
	_, app := newTestServer(t)
	posterToken, _ := registerUser(t, app, "poster")
	intruderToken, _ := registerUser(t, app, "intruder")

	resp := doJSON(t, app, http.MethodPost, "/api/community/collaborations", posterToken, map[string]string{
		"title":       "Need a vocalist",
		"description": "dream pop demo, two open hooks",
		"genre":       "dream-pop",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var collab models.Collaboration
	decodeBody(t, resp, &collab)
	assert.Equal(t, models.CollaborationStatusOpen, collab.Status)

	t.Run("blank title rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/community/collaborations", posterToken, map[string]string{
			"title": "   ",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	collabPath := fmt.Sprintf("/api/community/collaborations/%d", collab.ID)

	t.Run("only poster updates", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPut, collabPath, intruderToken, map[string]string{
			"status": "closed",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doJSON(t, app, http.MethodPut, collabPath, posterToken, map[string]string{
			"status": "closed",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated models.Collaboration
		decodeBody(t, resp, &updated)
		assert.Equal(t, "closed", updated.Status)
	})

	t.Run("default listing shows open only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/community/collaborations", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var open []models.Collaboration
		decodeBody(t, resp, &open)
		assert.Empty(t, open)

		resp = doJSON(t, app, http.MethodGet, "/api/community/collaborations?status=all", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var all []models.Collaboration
		decodeBody(t, resp, &all)
		assert.Len(t, all, 1)
	})

	t.Run("get and delete", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, collabPath, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doJSON(t, app, http.MethodDelete, collabPath, intruderToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doJSON(t, app, http.MethodDelete, collabPath, posterToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doJSON(t, app, http.MethodGet, collabPath, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCommunityStatsEndpoint(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := registerUser(t, app, "solo")
	track := uploadTrack(t, app, token, "Counted")

	// one play
	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/tracks/%d", track.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/community/collaborations", token, map[string]string{
		"title": "Open invite",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/community/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats repository.CommunityStats
	decodeBody(t, resp, &stats)
	assert.EqualValues(t, 1, stats.Artists)
	assert.EqualValues(t, 1, stats.Tracks)
	assert.EqualValues(t, 1, stats.Collaborations)
	assert.EqualValues(t, 1, stats.OpenCollaborations)
	assert.EqualValues(t, 1, stats.TotalPlays)
}
