package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/models"
)

const (
	fieldDeviceID     = "device_id"
	fieldRefreshToken = "refresh_token"
)

// Store is the per-device session ledger: a redis hash per
// (user, device) pair holding the currently valid refresh token.
// Writing the same key again supersedes the previous record
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Put writes or overwrites the session record and resets its TTL
func (s *Store) Put(ctx context.Context, userID uuid.UUID, deviceID string, refreshToken string, ttl time.Duration) error {
	key := sessionKey(userID, deviceID)

	// Del first so fields of a superseded record never survive the overwrite
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldDeviceID, deviceID, fieldRefreshToken, refreshToken)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

// Get returns the live session record for (user, device).
// A missing or expired record is apperrors.ErrSessionNotFound; a store
// outage is apperrors.ErrStoreUnavailable and must be treated as a
// failure, not as "not logged in"
func (s *Store) Get(ctx context.Context, userID uuid.UUID, deviceID string) (models.SessionRecord, error) {
	var record models.SessionRecord

	values, err := s.rdb.HGetAll(ctx, sessionKey(userID, deviceID)).Result()
	if err != nil {
		return record, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	// HGetAll returns an empty map (not redis.Nil) for a missing key
	if len(values) == 0 {
		return record, apperrors.ErrSessionNotFound
	}

	record.UserID = userID
	record.DeviceID = values[fieldDeviceID]
	record.RefreshToken = values[fieldRefreshToken]

	return record, nil
}

// Delete removes one device session. Deleting an absent key is not an error
func (s *Store) Delete(ctx context.Context, userID uuid.UUID, deviceID string) error {
	err := s.rdb.Del(ctx, sessionKey(userID, deviceID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

// DeleteAll removes every device session of the user. SCAN is used
// instead of KEYS so a large ledger doesn't block the server
func (s *Store) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	iter := s.rdb.Scan(ctx, 0, sessionKeyPattern(userID), 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}
