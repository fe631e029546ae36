package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/models"
)

// In-memory doubles for the redis-backed ledgers and the user repo.
// They honor the same error contracts as the real implementations so
// the service can't tell the difference

type memSessionStore struct {
	mu      sync.Mutex
	records map[string]models.SessionRecord

	// unavailable simulates a store outage
	unavailable bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{records: map[string]models.SessionRecord{}}
}

func (s *memSessionStore) key(userID uuid.UUID, deviceID string) string {
	return userID.String() + "::" + deviceID
}

func (s *memSessionStore) Put(_ context.Context, userID uuid.UUID, deviceID string, refreshToken string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return apperrors.ErrStoreUnavailable
	}

	s.records[s.key(userID, deviceID)] = models.SessionRecord{
		UserID:       userID,
		DeviceID:     deviceID,
		RefreshToken: refreshToken,
	}
	return nil
}

func (s *memSessionStore) Get(_ context.Context, userID uuid.UUID, deviceID string) (models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return models.SessionRecord{}, apperrors.ErrStoreUnavailable
	}

	record, ok := s.records[s.key(userID, deviceID)]
	if !ok {
		return models.SessionRecord{}, apperrors.ErrSessionNotFound
	}
	return record, nil
}

func (s *memSessionStore) Delete(_ context.Context, userID uuid.UUID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return apperrors.ErrStoreUnavailable
	}

	delete(s.records, s.key(userID, deviceID))
	return nil
}

func (s *memSessionStore) DeleteAll(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return apperrors.ErrStoreUnavailable
	}

	for key := range s.records {
		if strings.HasPrefix(key, userID.String()+"::") {
			delete(s.records, key)
		}
	}
	return nil
}

type memRevocationLedger struct {
	mu      sync.Mutex
	markers map[uuid.UUID]int64
}

func newMemRevocationLedger() *memRevocationLedger {
	return &memRevocationLedger{markers: map[uuid.UUID]int64{}}
}

func (l *memRevocationLedger) MarkRevokedNow(_ context.Context, userID uuid.UUID, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.markers[userID] = time.Now().Unix()
	return nil
}

func (l *memRevocationLedger) IsRevoked(_ context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	marker, ok := l.markers[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() < marker, nil
}

type memActivationStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemActivationStore() *memActivationStore {
	return &memActivationStore{tokens: map[string]string{}}
}

func (s *memActivationStore) Put(_ context.Context, email string, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[email] = token
	return nil
}

func (s *memActivationStore) Get(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[email]
	if !ok {
		return "", apperrors.ErrActivationNotFound
	}
	return token, nil
}

func (s *memActivationStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, email)
	return nil
}

// memEmailSender records sent codes; fail makes every send error out
type memEmailSender struct {
	mu    sync.Mutex
	sent  map[string]string
	fail  bool
	count int
}

func newMemEmailSender() *memEmailSender {
	return &memEmailSender{sent: map[string]string{}}
}

func (s *memEmailSender) SendVerificationEmail(_ context.Context, email string, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return apperrors.ErrEmailSendFailed
	}

	s.sent[email] = code
	s.count++
	return nil
}

func (s *memEmailSender) lastCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[email]
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]models.User{}}
}

func (r *memUserRepo) CreateUser(_ context.Context, name string, email string, hashedPassword string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           models.RoleUser,
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func (r *memUserRepo) UpdateUser(_ context.Context, userID uuid.UUID, name string, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	for id, u := range r.users {
		if id != userID && u.Email == email {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	user.Name = name
	user.Email = email
	r.users[userID] = user
	return user, nil
}

func (r *memUserRepo) SetVerified(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.Email == email {
			u.IsVerified = true
			r.users[id] = u
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func (r *memUserRepo) UpdatePassword(_ context.Context, userID uuid.UUID, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	user.HashedPassword = hashedPassword
	r.users[userID] = user
	return nil
}
