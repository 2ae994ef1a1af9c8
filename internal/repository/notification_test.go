package repository

import (
	"context"
	"testing"

	"underground/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepositoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")

	first := &models.Notification{UserID: owner.ID, Type: models.NotificationTypeLike, Message: "fan liked your track", ReferenceID: 1}
	second := &models.Notification{UserID: owner.ID, Type: models.NotificationTypeFollow, Message: "fan followed you", ReferenceID: 2}
	foreign := &models.Notification{UserID: other.ID, Type: models.NotificationTypeMessage, Message: "dm", ReferenceID: 3}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, foreign))

	list, err := repo.ListByUser(ctx, owner.ID, false, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	unread, err := repo.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	// Cannot mark someone else's notification
	ok, err := repo.MarkRead(ctx, owner.ID, foreign.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkRead(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	flipped, err := repo.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, flipped)

	unread, err = repo.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)
}

func TestCollaborationRepositoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCollaborationRepository(db)
	ctx := context.Background()

	poster := createTestUser(t, db, "poster")

	collab := &models.Collaboration{UserID: poster.ID, Title: "need a vocalist", Genre: "trip-hop"}
	require.NoError(t, repo.Create(ctx, collab))
	assert.Equal(t, models.CollaborationStatusOpen, collab.Status)
	assert.Equal(t, "poster", collab.User.Username)

	other := &models.Collaboration{UserID: poster.ID, Title: "drummer wanted", Genre: "jazz"}
	require.NoError(t, repo.Create(ctx, other))

	byGenre, err := repo.List(ctx, CollaborationFilter{Genre: "jazz"}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, byGenre, 1)

	require.NoError(t, repo.UpdateStatus(ctx, collab.ID, "closed"))
	open, err := repo.List(ctx, CollaborationFilter{Status: models.CollaborationStatusOpen}, 20, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, other.ID, open[0].ID)

	require.NoError(t, repo.Delete(ctx, other.ID))
	_, err = repo.GetByID(ctx, other.ID)
	assert.Error(t, err)
}
