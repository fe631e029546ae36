package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/handlers/middleware"
	"github.com/coursecatalyst/identity/internal/logger"
	"github.com/coursecatalyst/identity/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	profileService profileService,
	db Pinger,
	cache Pinger,
	l logger.Logger,
) http.Handler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	authMiddleware := middleware.AuthMiddleware(authService, l)
	requireVerified := middleware.RequireVerified()

	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withVerifiedAuth := func(h http.Handler) http.Handler {
		return authMiddleware(requireVerified(h))
	}

	users := http.NewServeMux()

	users.Handle("POST /register", handleRegister(authService, l))
	users.Handle("POST /login", handleLogin(authService, l))
	users.Handle("POST /verify", handleVerify(authService, l))
	users.Handle("POST /send-verification-email", handleSendVerificationEmail(authService, l))
	users.Handle("POST /refresh", handleTokenRefresh(authService, l))

	users.Handle("DELETE /logout", withAuth(handleLogout(authService, l)))
	users.Handle("DELETE /logout-all-devices", withAuth(handleLogoutAll(authService, l)))

	users.Handle("GET /profile", withVerifiedAuth(handleGetProfile(profileService, l)))
	users.Handle("GET /user-info", withAuth(handleUserInfo()))
	users.Handle("PATCH /update-info", withVerifiedAuth(handleUpdateInfo(profileService, l)))
	users.Handle("PATCH /change-password", withVerifiedAuth(handleChangePassword(profileService, l)))

	root := http.NewServeMux()
	root.Handle("/users/", http.StripPrefix("/users", users))
	root.Handle("GET /health", handleHealth(db, cache))

	handler := chain(root,
		middleware.LoggerMiddleware(l),
		middleware.DeviceMiddleware(),
	)

	return handler
}

type authService interface {
	// Register user, start email verification
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, name string, email string, password string) (models.User, error)

	// Login with email and password, open a session for the device
	// Has to return apperrors.ErrUserNotFound, ErrWrongPassword or
	// ErrUserNotVerified accordingly
	Login(ctx context.Context, email string, password string, deviceID string) (models.User, models.TokenPair, error)

	// Restart activation for an unverified user
	SendVerificationEmail(ctx context.Context, email string) error

	// Check the OTP and mark the user verified
	Verify(ctx context.Context, email string, otp string) (models.User, error)

	// Rotate the token pair for one device
	Refresh(ctx context.Context, deviceID string, refreshToken string) (models.TokenPair, error)

	// Close one device session (idempotent)
	Logout(ctx context.Context, userID uuid.UUID, deviceID string) error

	// Close every session and revoke outstanding access tokens
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// Resolve access token to user (used by the auth middleware)
	AuthenticateAccess(ctx context.Context, accessToken string) (models.User, error)
}

type profileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (models.PublicUser, error)
	UpdateInfo(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error
}
