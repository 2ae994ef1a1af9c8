package seed

import (
	"fmt"
	"log"
	"math/rand"

	"underground/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumTracks   int
	ShouldClean bool
	SkipBcrypt  bool
}

// Seeder populates the database with a realistic mesh of artists,
// tracks and social activity.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, SeedOptions{SkipBcrypt: opts.SkipBcrypt}),
	}
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d artists and %d tracks...", opts.NumUsers, opts.NumTracks)

	s := NewSeeder(db, opts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := s.SeedArtists(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create artists: %w", err)
	}
	log.Printf("✓ %d artists created", len(users))

	tracks, err := s.SeedCatalog(users, opts.NumTracks)
	if err != nil {
		return fmt.Errorf("failed to create tracks: %w", err)
	}
	log.Printf("✓ %d tracks created", len(tracks))

	if err := s.SeedEngagement(users, tracks); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Println("✓ follows, likes and comments created")

	if err := s.SeedCommunity(users); err != nil {
		return fmt.Errorf("failed to create community data: %w", err)
	}
	log.Println("✓ messages and collaborations created")

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// ClearAll removes all seeded data. On PostgreSQL this truncates with
// identity restart; on other dialects it deletes in dependency order.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		sql := `TRUNCATE TABLE notifications, collaborations, messages, comments, likes,
			follows, track_collaborators, tracks, users RESTART IDENTITY CASCADE;`
		return s.db.Exec(sql).Error
	}
	for _, model := range []any{
		&models.Notification{}, &models.Collaboration{}, &models.Message{},
		&models.Comment{}, &models.Like{}, &models.Follow{},
		&models.TrackCollaborator{}, &models.Track{}, &models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedArtists creates `count` users. The first few are well-known fixed
// accounts so developers always have credentials to log in with.
func (s *Seeder) SeedArtists(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	if count >= 3 {
		baseUsers := []string{"vera", "moth_collective", "test"}
		for _, name := range baseUsers {
			u := name
			user, err := s.factory.CreateUser(func(user *models.User) {
				user.Username = u
				user.Email = fmt.Sprintf("%s@underground.fm", u)
				user.Bio = "One of the OGs."
			})
			if err != nil {
				// likely already present from a previous run
				continue
			}
			users = append(users, user)
		}
	}

	for i := len(users); i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d artists...", i)
		}
	}

	return users, nil
}

// SeedCatalog creates `count` tracks spread across the given artists,
// persisted in batches.
func (s *Seeder) SeedCatalog(users []*models.User, count int) ([]*models.Track, error) {
	if len(users) == 0 {
		return nil, nil
	}

	const batchSize = 100
	tracks := make([]*models.Track, 0, count)
	batch := make([]*models.Track, 0, batchSize)

	for i := 0; i < count; i++ {
		user := users[s.factory.rng.Intn(len(users))]
		batch = append(batch, s.factory.BuildTrack(user))

		if len(batch) == batchSize {
			if err := s.factory.CreateTracksBatch(batch); err != nil {
				return nil, err
			}
			tracks = append(tracks, batch...)
			batch = batch[:0]
			log.Printf("Created %d tracks...", len(tracks))
		}
	}
	if err := s.factory.CreateTracksBatch(batch); err != nil {
		return nil, err
	}
	tracks = append(tracks, batch...)

	return tracks, nil
}

// SeedEngagement wires follows between artists and likes/comments on
// tracks. Density is proportional to the corpus size.
func (s *Seeder) SeedEngagement(users []*models.User, tracks []*models.Track) error {
	if len(users) < 2 || len(tracks) == 0 {
		return nil
	}
	rng := s.factory.rng

	// each user follows a handful of others
	for _, follower := range users {
		for _, target := range pickOthers(rng, users, follower, 1+rng.Intn(5)) {
			if err := s.factory.CreateFollow(follower, target); err != nil {
				continue // duplicate edge from a prior run
			}
		}
	}

	// likes: composite PK rejects duplicates, which is fine for seeding
	for i := 0; i < len(tracks)*3; i++ {
		user := users[rng.Intn(len(users))]
		track := tracks[rng.Intn(len(tracks))]
		_ = s.factory.CreateLike(user, track)
	}

	for i := 0; i < len(tracks); i++ {
		user := users[rng.Intn(len(users))]
		track := tracks[rng.Intn(len(tracks))]
		if _, err := s.factory.CreateComment(user, track); err != nil {
			return err
		}
	}

	return nil
}

// SeedCommunity seeds direct message threads and collaboration calls.
func (s *Seeder) SeedCommunity(users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	rng := s.factory.rng

	threads := len(users) / 2
	for i := 0; i < threads; i++ {
		a := users[rng.Intn(len(users))]
		b := users[rng.Intn(len(users))]
		for b.ID == a.ID {
			b = users[rng.Intn(len(users))]
		}
		// short back-and-forth thread
		for j := 0; j < 2+rng.Intn(4); j++ {
			sender, receiver := a, b
			if j%2 == 1 {
				sender, receiver = b, a
			}
			if _, err := s.factory.CreateMessage(sender, receiver); err != nil {
				return err
			}
		}
	}

	statuses := []string{
		models.CollaborationStatusOpen, models.CollaborationStatusOpen,
		models.CollaborationStatusOpen, "closed",
	}
	for i := 0; i < len(users)/3+1; i++ {
		user := users[rng.Intn(len(users))]
		status := statuses[rng.Intn(len(statuses))]
		if _, err := s.factory.CreateCollaboration(user, status); err != nil {
			return err
		}
	}

	return nil
}

func pickOthers(rng *rand.Rand, users []*models.User, self *models.User, n int) []*models.User {
	picked := make([]*models.User, 0, n)
	seen := map[uint]bool{self.ID: true}
	for attempts := 0; len(picked) < n && attempts < n*4; attempts++ {
		candidate := users[rng.Intn(len(users))]
		if seen[candidate.ID] {
			continue
		}
		seen[candidate.ID] = true
		picked = append(picked, candidate)
	}
	return picked
}
