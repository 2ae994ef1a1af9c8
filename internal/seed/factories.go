// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"underground/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions controls factory behavior.
type SeedOptions struct {
	// DryRun builds entities and assigns synthetic IDs without writing
	// to the database.
	DryRun bool
	// SkipBcrypt stores the plain password instead of hashing it. Much
	// faster when creating hundreds of users in development.
	SkipBcrypt bool
	// MaxDays bounds the created_at spread for generated content.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

var genres = []string{
	"lo-fi", "house", "techno", "ambient", "hip-hop", "drum and bass",
	"shoegaze", "post-rock", "synthwave", "jazz", "folk", "experimental",
	"dub", "breakbeat", "idm", "trap", "garage", "downtempo",
}

var titleMoods = []string{
	"Midnight", "Velvet", "Rust", "Neon", "Hollow", "Static", "Amber",
	"Fractured", "Slow", "Electric", "Paper", "Winter", "Glass", "Feral",
}

var titleSubjects = []string{
	"Transmission", "Orbit", "Echoes", "Tides", "Circuit", "Reverie",
	"Bloom", "Frequencies", "Drift", "Signal", "Horizon", "Undertow",
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // weak randomness is fine for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rng: rng, nextID: 1000}
}

// backdate returns a timestamp spread over the configured MaxDays window.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

func (f *Factory) genre() string {
	return genres[f.rng.Intn(len(genres))]
}

func (f *Factory) trackTitle() string {
	return fmt.Sprintf("%s %s",
		titleMoods[f.rng.Intn(len(titleMoods))],
		titleSubjects[f.rng.Intn(len(titleSubjects))])
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999))
	user := &models.User{
		Username:    username,
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.Name(),
		Bio:         gofakeit.Sentence(10),
		Location:    gofakeit.City(),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		CreatedAt:   f.backdate(),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildTrack constructs a track struct without persisting it. Useful for
// batching.
func (f *Factory) BuildTrack(user *models.User, overrides ...func(*models.Track)) *models.Track {
	track := &models.Track{
		UserID:      user.ID,
		Title:       f.trackTitle(),
		Description: gofakeit.Paragraph(1, 2, 8, "\n"),
		Genre:       f.genre(),
		Tags:        fmt.Sprintf("%s,%s", gofakeit.Word(), gofakeit.Word()),
		AudioURL:    fmt.Sprintf("/uploads/%s.mp3", gofakeit.UUID()),
		Duration:    gofakeit.Number(45, 420),
		Plays:       gofakeit.Number(0, 2000),
		CreatedAt:   f.backdate(),
	}
	if f.rng.Float32() < 0.6 {
		track.CoverURL = fmt.Sprintf("https://picsum.photos/seed/%s/600/600", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(track)
	}
	return track
}

// CreateTrack constructs and persists a sample `models.Track` owned by
// the given user.
func (f *Factory) CreateTrack(user *models.User, overrides ...func(*models.Track)) (*models.Track, error) {
	track := f.BuildTrack(user, overrides...)

	if f.opts.DryRun {
		f.nextID++
		track.ID = f.nextID
		log.Printf("[dry-run] CreateTrack: user=%d title=%q genre=%s", track.UserID, track.Title, track.Genre)
		return track, nil
	}

	if err := f.db.Create(track).Error; err != nil {
		return nil, err
	}
	return track, nil
}

// CreateTracksBatch persists multiple tracks in a single DB call.
func (f *Factory) CreateTracksBatch(tracks []*models.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, t := range tracks {
			f.nextID++
			t.ID = f.nextID
		}
		log.Printf("[dry-run] CreateTracksBatch: %d tracks (no DB write)", len(tracks))
		return nil
	}
	return f.db.Create(&tracks).Error
}

// CreateComment persists a comment from `user` on `track`.
func (f *Factory) CreateComment(user *models.User, track *models.Track, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:    user.ID,
		TrackID:   track.ID,
		Content:   gofakeit.Sentence(8),
		CreatedAt: f.backdate(),
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from `user` on `track`.
func (f *Factory) CreateLike(user *models.User, track *models.Track) error {
	like := &models.Like{
		UserID:    user.ID,
		TrackID:   track.ID,
		CreatedAt: f.backdate(),
	}
	return f.db.Create(like).Error
}

// CreateFollow persists a follow edge from `follower` to `following`.
func (f *Factory) CreateFollow(follower, following *models.User) error {
	follow := &models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		CreatedAt:   f.backdate(),
	}
	return f.db.Create(follow).Error
}

// CreateMessage persists a direct message between two users.
func (f *Factory) CreateMessage(sender, receiver *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Content:    gofakeit.Sentence(10),
		Read:       f.rng.Float32() < 0.5,
		CreatedAt:  f.backdate(),
	}

	for _, override := range overrides {
		override(message)
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// CreateCollaboration persists a collaboration call posted by `user`.
func (f *Factory) CreateCollaboration(user *models.User, status string, overrides ...func(*models.Collaboration)) (*models.Collaboration, error) {
	if status == "" {
		status = models.CollaborationStatusOpen
	}
	collab := &models.Collaboration{
		UserID:      user.ID,
		Title:       fmt.Sprintf("Looking for %s on %q", gofakeit.Word(), f.trackTitle()),
		Description: gofakeit.Paragraph(1, 2, 10, "\n"),
		Genre:       f.genre(),
		Status:      status,
		CreatedAt:   f.backdate(),
	}

	for _, override := range overrides {
		override(collab)
	}

	if err := f.db.Create(collab).Error; err != nil {
		return nil, err
	}
	return collab, nil
}
