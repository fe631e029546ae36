package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/coursecatalyst/identity/internal/apperrors"
)

// RevocationLedger invalidates all previously issued access tokens of a
// user in O(1): it stores the moment of a mass logout, and the gate
// rejects any access token issued before that moment. The marker lives
// only as long as the access token TTL; older tokens expire on their own
type RevocationLedger struct {
	rdb *redis.Client

	// now is the clock, swappable in tests
	now func() time.Time
}

func NewRevocationLedger(rdb *redis.Client) *RevocationLedger {
	return &RevocationLedger{rdb: rdb, now: time.Now}
}

// MarkRevokedNow stores the current unix timestamp at the user's
// revocation key. ttl should equal the access token lifetime
func (l *RevocationLedger) MarkRevokedNow(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	ts := strconv.FormatInt(l.now().Unix(), 10)

	err := l.rdb.Set(ctx, invalidatedKey(userID), ts, ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

// IsRevoked reports whether a token issued at issuedAt was invalidated
// by a later mass logout. Comparison is whole-second: a token minted in
// the same second as the revocation stays valid
func (l *RevocationLedger) IsRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	value, err := l.rdb.Get(ctx, invalidatedKey(userID)).Result()

	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	marker, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed revocation marker: %w", err)
	}

	return issuedAt.Unix() < marker, nil
}
