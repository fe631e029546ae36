package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user in unverified state
	// If user with the same email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, name string, email string, hashedPassword string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update name and email
	// Email uniqueness is enforced by the storage; violation has to
	// return apperrors.ErrUserAlreadyExists
	UpdateUser(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error)

	// Mark the user email as verified
	SetVerified(ctx context.Context, email string) (models.User, error)

	// Replace the stored password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// Storage aggregates all repositories backed by the same database
type Storage interface {
	User() UserRepo
}
