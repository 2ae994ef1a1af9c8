package service

import (
	"context"
	"sync"
	"testing"

	"underground/internal/models"
	"underground/internal/notifications"
	"underground/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingEmitter captures emitted notification events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingEmitter) Emit(_ context.Context, event notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) all() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

type serviceEnv struct {
	db      *gorm.DB
	emitter *recordingEmitter

	users    *UserService
	social   *SocialService
	tracks   *TrackService
	feed     *FeedService
	communal *CommunityService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.TrackCollaborator{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.Message{},
		&models.Collaboration{},
		&models.Notification{},
	))

	userRepo := repository.NewUserRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	socialRepo := repository.NewSocialRepository(db)
	rankingRepo := repository.NewRankingRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	collabRepo := repository.NewCollaborationRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	emitter := &recordingEmitter{}

	return &serviceEnv{
		db:      db,
		emitter: emitter,
		users:   NewUserService(userRepo, socialRepo),
		social:  NewSocialService(socialRepo, userRepo, emitter),
		tracks:  NewTrackService(trackRepo, commentRepo, userRepo, emitter),
		feed:    NewFeedService(rankingRepo, socialRepo),
		communal: NewCommunityService(
			collabRepo, messageRepo, notificationRepo, statsRepo, userRepo, emitter,
		),
	}
}

func (e *serviceEnv) registerUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	return user
}

func listAll() repository.TrackListFilter {
	return repository.TrackListFilter{}
}

func (e *serviceEnv) uploadTrack(t *testing.T, userID uint, title string) *models.Track {
	t.Helper()
	track, err := e.tracks.CreateTrack(context.Background(), CreateTrackInput{
		UserID:   userID,
		Title:    title,
		AudioURL: "/uploads/" + title + ".mp3",
	})
	require.NoError(t, err)
	return track
}
