// Package service contains the application's business logic.
package service

import (
	"context"
	"strings"

	"underground/internal/models"
	"underground/internal/repository"
	"underground/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles account and profile logic.
type UserService struct {
	userRepo   repository.UserRepository
	socialRepo repository.SocialRepository
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	UserID      uint
	DisplayName *string
	Bio         *string
	Location    *string
	AvatarURL   *string
}

func NewUserService(userRepo repository.UserRepository, socialRepo repository.SocialRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		socialRepo: socialRepo,
	}
}

// Register validates the input, hashes the password and creates the account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		Password:    string(hashedPassword),
		DisplayName: displayName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials by username or email. The error is identical for
// unknown users and wrong passwords.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.NewValidationError("Identifier and password are required")
	}

	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetProfile returns the user with aggregate stats. When viewerID is nonzero
// the follow edge from the viewer is annotated.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID uint) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.userRepo.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: *user, Stats: *stats}
	if viewerID != 0 && viewerID != userID {
		following, err := s.socialRepo.IsFollowing(ctx, viewerID, userID)
		if err != nil {
			return nil, err
		}
		profile.IsFollowing = following
	}
	return profile, nil
}

// UpdateProfile applies the provided fields. Nil pointers leave the field
// unchanged, so clients can clear a bio with an empty string.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Location != nil {
		user.Location = *in.Location
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Search finds users by username or display name, most followed first.
func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, models.NewValidationError("Search query must be at least 2 characters")
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// TopArtists ranks uploaders by follower count, then cumulative plays.
func (s *UserService) TopArtists(ctx context.Context, limit int) ([]*models.User, error) {
	return s.userRepo.TopArtists(ctx, limit)
}
