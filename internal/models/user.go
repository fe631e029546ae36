package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Name           string
	Email          string
	HashedPassword string
	IsVerified     bool
	Role           string
}

// Public is the user representation safe to return to clients.
// Password hash must never leave the service layer.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	Role       string    `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		CreatedAt:  u.CreatedAt,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		Role:       u.Role,
	}
}
