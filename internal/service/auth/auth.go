package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/logger"
	"github.com/coursecatalyst/identity/internal/models"
	"github.com/coursecatalyst/identity/internal/repository"
	"github.com/coursecatalyst/identity/internal/service/auth/tokencodec"
)

const otpLength = 6

// Per-device session ledger
type SessionStore interface {
	Put(ctx context.Context, userID uuid.UUID, deviceID string, refreshToken string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID, deviceID string) (models.SessionRecord, error)
	Delete(ctx context.Context, userID uuid.UUID, deviceID string) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

// Mass-logout timestamp ledger
type RevocationLedger interface {
	MarkRevokedNow(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	IsRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error)
}

// Pending activation tokens keyed by email
type ActivationStore interface {
	Put(ctx context.Context, email string, token string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// Outbound email delivery
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email string, code string) error
}

type Config struct {
	// Hasher used during registration and login
	// Defaults to bcrypt if not set
	Hasher PasswordHasher
}

// Service orchestrates registration, login, email verification,
// refresh rotation and logout on top of the codec and the ledgers
type Service struct {
	codec       *tokencodec.Codec
	hasher      PasswordHasher
	userRepo    repository.UserRepo
	sessions    SessionStore
	revocations RevocationLedger
	activations ActivationStore
	email       EmailSender
	logger      logger.Logger
}

func NewService(
	cfg Config,
	codec *tokencodec.Codec,
	userRepo repository.UserRepo,
	sessions SessionStore,
	revocations RevocationLedger,
	activations ActivationStore,
	email EmailSender,
	l logger.Logger,
) (*Service, error) {
	if codec == nil || userRepo == nil || sessions == nil || revocations == nil || activations == nil || email == nil {
		return nil, errors.New("all auth service dependencies must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		codec:       codec,
		hasher:      hasher,
		userRepo:    userRepo,
		sessions:    sessions,
		revocations: revocations,
		activations: activations,
		email:       email,
		logger:      l,
	}, nil
}

// startActivation generates an OTP, wraps it into an activation token,
// emails the code and stores the token. Order matters: if the email
// can't be sent nothing is persisted
func (s *Service) startActivation(ctx context.Context, email string) error {
	otp, err := GenerateOTP(otpLength)
	if err != nil {
		return err
	}

	token, err := s.codec.IssueActivation(email, otp)
	if err != nil {
		return err
	}

	if err := s.email.SendVerificationEmail(ctx, email, otp); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrEmailSendFailed, err)
	}

	if err := s.activations.Put(ctx, email, token.Value, s.codec.TTL(tokencodec.TypeActivation)); err != nil {
		return err
	}

	return nil
}

// Register creates an unverified user and kicks off email verification.
// The user row is created only after the verification email went out
func (s *Service) Register(ctx context.Context, name string, email string, password string) (models.User, error) {
	var user models.User

	_, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return user, apperrors.ErrUserAlreadyExists
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return user, fmt.Errorf("cant check existing user. Err: %w", err)
	}

	if err := s.startActivation(ctx, email); err != nil {
		return user, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, name, email, hash)
	if err != nil {
		return user, err
	}

	s.logger.Info("user registered", "email", email)
	return user, nil
}

// Login checks credentials and opens a session for the device
func (s *Service) Login(ctx context.Context, email string, password string, deviceID string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return user, pair, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, pair, apperrors.ErrWrongPassword
	}

	if !user.IsVerified {
		return models.User{}, pair, apperrors.ErrUserNotVerified
	}

	pair, err = s.issuePair(ctx, user.ID, deviceID)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// SendVerificationEmail restarts activation for a registered but
// unverified user; the previous activation token is superseded
func (s *Service) SendVerificationEmail(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return apperrors.ErrUserAlreadyVerified
	}

	return s.startActivation(ctx, user.Email)
}

// Verify checks the OTP against the stored activation token and marks
// the user verified
func (s *Service) Verify(ctx context.Context, email string, otp string) (models.User, error) {
	var user models.User

	stored, err := s.activations.Get(ctx, email)
	if err != nil {
		return user, err
	}

	tokenEmail, tokenOTP, err := s.codec.VerifyActivation(stored)
	if err != nil {
		return user, err
	}

	if tokenEmail != email || tokenOTP != otp {
		return user, apperrors.ErrInvalidOTP
	}

	user, err = s.userRepo.SetVerified(ctx, email)
	if err != nil {
		return user, err
	}

	if err := s.activations.Delete(ctx, email); err != nil {
		// Verified already; the leftover token dies by TTL
		s.logger.Warn("cant delete activation record", "email", email, "error", err.Error())
	}

	s.logger.Info("user verified", "email", email)
	return user, nil
}

// Refresh rotates the token pair for one device. The presented token
// must be the exact token the session record holds: a superseded token
// fails here even though its signature is still valid (replay defense)
func (s *Service) Refresh(ctx context.Context, deviceID string, refreshToken string) (models.TokenPair, error) {
	var pair models.TokenPair

	userID, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return pair, err
	}

	record, err := s.sessions.Get(ctx, userID, deviceID)
	if err != nil {
		return pair, err
	}

	if record.DeviceID != deviceID || record.RefreshToken != refreshToken {
		return pair, fmt.Errorf("%w: session record mismatch", apperrors.ErrInvalidCredential)
	}

	// Delete first: two concurrent refreshes with the same token race
	// here and the loser observes the record gone, which is the point
	if err := s.sessions.Delete(ctx, userID, deviceID); err != nil {
		return pair, err
	}

	return s.issuePair(ctx, userID, deviceID)
}

// Logout closes one device session. Idempotent: logging out twice or
// with no session is not an error
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return s.sessions.Delete(ctx, userID, deviceID)
}

// LogoutAll closes every device session and invalidates all
// outstanding access tokens via the revocation ledger
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteAll(ctx, userID); err != nil {
		return err
	}

	if err := s.revocations.MarkRevokedNow(ctx, userID, s.codec.TTL(tokencodec.TypeAccess)); err != nil {
		return err
	}

	s.logger.Info("user logged out everywhere", "userID", userID.String())
	return nil
}

// AuthenticateAccess resolves a bearer access token to a user:
// signature and expiry, then the revocation ledger, then the user row.
// A store outage propagates as ErrStoreUnavailable and must not be
// mistaken for an invalid token
func (s *Service) AuthenticateAccess(ctx context.Context, accessToken string) (models.User, error) {
	var user models.User

	userID, issuedAt, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return user, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, userID, issuedAt)
	if err != nil {
		return user, err
	}
	if revoked {
		return user, fmt.Errorf("%w: token issued before mass logout", apperrors.ErrInvalidCredential)
	}

	return s.userRepo.GetUserByID(ctx, userID)
}

// issuePair mints a new access+refresh pair and records the session.
// The session record always holds the newly issued refresh token
func (s *Service) issuePair(ctx context.Context, userID uuid.UUID, deviceID string) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := s.codec.IssueAccess(userID)
	if err != nil {
		return pair, err
	}

	refresh, err := s.codec.IssueRefresh(userID)
	if err != nil {
		return pair, err
	}

	err = s.sessions.Put(ctx, userID, deviceID, refresh.Value, s.codec.TTL(tokencodec.TypeRefresh))
	if err != nil {
		return pair, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}
