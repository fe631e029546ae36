package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/logger"
	"github.com/coursecatalyst/identity/internal/models"
	"github.com/coursecatalyst/identity/internal/repository"
	"github.com/coursecatalyst/identity/internal/service/auth"
)

// ProfileCache is the cache-first read path for public profiles.
// Implementations must return apperrors.ErrUserNotFound on a miss
type ProfileCache interface {
	Get(ctx context.Context, userID uuid.UUID) (models.PublicUser, error)
	Set(ctx context.Context, profile models.PublicUser) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo
	cache    ProfileCache
	logger   logger.Logger
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo, cache ProfileCache, l logger.Logger) *Service {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		hasher:   hasher,
		userRepo: userRepo,
		cache:    cache,
		logger:   l,
	}
}

// GetProfile serves the public profile cache-first. Cache failures are
// degraded to a miss: the database stays the source of truth
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (models.PublicUser, error) {
	profile, err := s.cache.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}

	if !errors.Is(err, apperrors.ErrUserNotFound) {
		s.logger.Warn("profile cache read failed", "userID", userID.String(), "error", err.Error())
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.PublicUser{}, err
	}

	profile = user.Public()

	if err := s.cache.Set(ctx, profile); err != nil {
		s.logger.Warn("profile cache write failed", "userID", userID.String(), "error", err.Error())
	}

	return profile, nil
}

// UpdateInfo changes name and/or email. Either field may be empty to
// keep the current value. The cached profile is invalidated so reads
// never serve the old name or email
func (s *Service) UpdateInfo(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error) {
	current, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if name == "" {
		name = current.Name
	}
	if email == "" {
		email = current.Email
	}

	if name == current.Name && email == current.Email {
		return current, nil
	}

	user, err := s.userRepo.UpdateUser(ctx, userID, name, email)
	if err != nil {
		return user, err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("profile cache invalidation failed", "userID", userID.String(), "error", err.Error())
	}

	return user, nil
}

// ChangePassword verifies the current password before storing the new hash
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, currentPassword); err != nil {
		return apperrors.ErrWrongPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, Err: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("profile cache invalidation failed", "userID", userID.String(), "error", err.Error())
	}

	return nil
}
