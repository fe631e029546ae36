package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/models"
)

// ProfileCache stores JSON-marshalled public profiles with a TTL.
// Reads degrade gracefully: a cache failure looks like a miss, the
// caller falls back to the database. Writes of profile mutations must
// call Invalidate, otherwise reads serve stale data until the TTL
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProfileCache(rdb *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached profile or apperrors.ErrUserNotFound on a miss
func (c *ProfileCache) Get(ctx context.Context, userID uuid.UUID) (models.PublicUser, error) {
	var profile models.PublicUser

	data, err := c.rdb.Get(ctx, profileKey(userID)).Bytes()

	switch {
	case errors.Is(err, redis.Nil):
		return profile, apperrors.ErrUserNotFound
	case err != nil:
		return profile, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("malformed cached profile: %w", err)
	}

	return profile, nil
}

func (c *ProfileCache) Set(ctx context.Context, profile models.PublicUser) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("cant marshal profile: %w", err)
	}

	err = c.rdb.Set(ctx, profileKey(profile.ID), data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	err := c.rdb.Del(ctx, profileKey(userID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}
