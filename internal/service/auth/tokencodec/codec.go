package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/models"
)

// Token types. Each type is signed with its own secret, so leaking one
// secret never lets an attacker forge tokens of another type
type Type string

const (
	TypeAccess     Type = "access"
	TypeRefresh    Type = "refresh"
	TypeActivation Type = "activation"
)

const (
	defaultSigningMethod = "HS256"

	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 30 * 24 * time.Hour
	defaultActivationTTL = 10 * time.Minute

	// Expiry used by Disable: long enough for in-flight requests,
	// short enough to be effectively dead
	disabledTTL = time.Second
)

type Claims struct {
	jwt.RegisteredClaims

	// Type tag. Verification rejects a token whose tag doesn't match
	// the expected type even when the signature is valid
	TokenType Type `json:"typ"`

	// Subject user id for access/refresh tokens
	UserID string `json:"uid,omitempty"`

	// Activation payload: the email being verified and its OTP code
	Email string `json:"email,omitempty"`
	OTP   string `json:"otp,omitempty"`
}

// Codec config with sensible defaults. Secrets are required
type Config struct {
	AccessSecret     string
	RefreshSecret    string
	ActivationSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Per-type token lifetimes
	// If not set then defaults are used
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration
}

// Codec issues and verifies signed, typed, time-bound tokens. Tokens
// are self-contained: verification needs no storage lookup. Revocation
// state is layered on top by the session store and revocation ledger
type Codec struct {
	secrets map[Type][]byte
	ttls    map[Type]time.Duration
	alg     jwt.SigningMethod

	// now is the clock, swappable in tests
	now func() time.Time
}

func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" || cfg.ActivationSecret == "" {
		return nil, errors.New("all three token secrets must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTTL)
	setDefaultDuration(&cfg.ActivationTTL, defaultActivationTTL)

	return &Codec{
		secrets: map[Type][]byte{
			TypeAccess:     []byte(cfg.AccessSecret),
			TypeRefresh:    []byte(cfg.RefreshSecret),
			TypeActivation: []byte(cfg.ActivationSecret),
		},
		ttls: map[Type]time.Duration{
			TypeAccess:     cfg.AccessTTL,
			TypeRefresh:    cfg.RefreshTTL,
			TypeActivation: cfg.ActivationTTL,
		},
		alg: jwt.GetSigningMethod(cfg.Alg),
		now: time.Now,
	}, nil
}

func (c *Codec) TTL(t Type) time.Duration {
	return c.ttls[t]
}

func (c *Codec) issue(claims Claims, ttl time.Duration) (models.IssuedToken, error) {
	now := c.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(c.alg, claims)

	signed, err := token.SignedString(c.secrets[claims.TokenType])
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", claims.TokenType, err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (c *Codec) IssueAccess(userID uuid.UUID) (models.IssuedToken, error) {
	return c.issue(Claims{TokenType: TypeAccess, UserID: userID.String()}, c.ttls[TypeAccess])
}

func (c *Codec) IssueRefresh(userID uuid.UUID) (models.IssuedToken, error) {
	return c.issue(Claims{TokenType: TypeRefresh, UserID: userID.String()}, c.ttls[TypeRefresh])
}

func (c *Codec) IssueActivation(email string, otp string) (models.IssuedToken, error) {
	return c.issue(Claims{TokenType: TypeActivation, Email: email, OTP: otp}, c.ttls[TypeActivation])
}

// verify parses the token against the secret of the expected type.
// Every failure mode (bad signature, expiry, malformed input, type tag
// mismatch) funnels into apperrors.ErrInvalidCredential so
// attacker-controlled input can never crash or confuse a caller
func (c *Codec) verify(expected Type, tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return c.secrets[expected], nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredential, err)
	}

	if claims.TokenType != expected {
		return nil, fmt.Errorf("%w: token type %q where %q expected", apperrors.ErrInvalidCredential, claims.TokenType, expected)
	}

	return claims, nil
}

// VerifyAccess returns the subject and the issue time; the issue time
// is what the revocation ledger compares against
func (c *Codec) VerifyAccess(tokenString string) (userID uuid.UUID, issuedAt time.Time, err error) {
	claims, err := c.verify(TypeAccess, tokenString)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}

	userID, err = uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: bad subject: %w", apperrors.ErrInvalidCredential, err)
	}

	if claims.IssuedAt == nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: missing iat", apperrors.ErrInvalidCredential)
	}

	return userID, claims.IssuedAt.Time, nil
}

func (c *Codec) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	claims, err := c.verify(TypeRefresh, tokenString)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject: %w", apperrors.ErrInvalidCredential, err)
	}

	return userID, nil
}

func (c *Codec) VerifyActivation(tokenString string) (email string, otp string, err error) {
	claims, err := c.verify(TypeActivation, tokenString)
	if err != nil {
		return "", "", err
	}

	if claims.Email == "" || claims.OTP == "" {
		return "", "", fmt.Errorf("%w: missing activation payload", apperrors.ErrInvalidCredential)
	}

	return claims.Email, claims.OTP, nil
}

// Disable reissues a valid token of the same type with a 1 second
// expiry: a soft invalidation for flows that don't go through the
// session ledger
func (c *Codec) Disable(t Type, tokenString string) (models.IssuedToken, error) {
	claims, err := c.verify(t, tokenString)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return c.issue(Claims{
		TokenType: claims.TokenType,
		UserID:    claims.UserID,
		Email:     claims.Email,
		OTP:       claims.OTP,
	}, disabledTTL)
}
