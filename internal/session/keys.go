package session

import (
	"strings"

	"github.com/google/uuid"
)

// Key prefixes in the shared redis database. Every entity kind gets its
// own builder so a user id can never end up where a device id belongs
const (
	prefixSession     = "session"
	prefixInvalidated = "invalidated"
	prefixActivation  = "activation"
	prefixProfile     = "userProfile"

	keySep = "::"
)

// sanitizeParam strips characters meaningful to redis glob patterns so
// client-supplied values (device ids, emails) can't escape their key slot
func sanitizeParam(param string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '*', '?', '[', ']', ' ', '\n':
			return -1
		}
		return r
	}, param)
}

func sessionKey(userID uuid.UUID, deviceID string) string {
	return strings.Join([]string{prefixSession, userID.String(), sanitizeParam(deviceID)}, keySep)
}

// sessionKeyPattern matches every device session of one user
func sessionKeyPattern(userID uuid.UUID) string {
	return strings.Join([]string{prefixSession, userID.String(), "*"}, keySep)
}

func invalidatedKey(userID uuid.UUID) string {
	return strings.Join([]string{prefixInvalidated, userID.String()}, keySep)
}

func activationKey(email string) string {
	return strings.Join([]string{prefixActivation, sanitizeParam(email)}, keySep)
}

func profileKey(userID uuid.UUID) string {
	return strings.Join([]string{prefixProfile, userID.String()}, keySep)
}
