package models

import (
	"github.com/google/uuid"
)

// SessionRecord binds a device to its currently valid refresh token.
// At most one live record exists per (user, device) pair; a new login
// or a refresh rotation supersedes the previous one.
type SessionRecord struct {
	UserID       uuid.UUID
	DeviceID     string
	RefreshToken string
}
