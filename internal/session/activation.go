package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursecatalyst/identity/internal/apperrors"
)

// ActivationStore keeps at most one pending activation token per email.
// A new registration or resend overwrites the previous token
type ActivationStore struct {
	rdb *redis.Client
}

func NewActivationStore(rdb *redis.Client) *ActivationStore {
	return &ActivationStore{rdb: rdb}
}

func (s *ActivationStore) Put(ctx context.Context, email string, token string, ttl time.Duration) error {
	err := s.rdb.Set(ctx, activationKey(email), token, ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *ActivationStore) Get(ctx context.Context, email string) (string, error) {
	token, err := s.rdb.Get(ctx, activationKey(email)).Result()

	switch {
	case errors.Is(err, redis.Nil):
		return "", apperrors.ErrActivationNotFound
	case err != nil:
		return "", fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return token, nil
}

func (s *ActivationStore) Delete(ctx context.Context, email string) error {
	err := s.rdb.Del(ctx, activationKey(email)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}
