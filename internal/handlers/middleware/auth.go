package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/handlers/render"
	"github.com/coursecatalyst/identity/internal/handlers/reqctx"
	"github.com/coursecatalyst/identity/internal/models"
)

const accessCookieName = "accessToken"

type authService interface {
	// Resolve access token to user
	// Has to return apperrors.ErrInvalidCredential for any bad token
	// and apperrors.ErrStoreUnavailable when the ledger can't be read
	AuthenticateAccess(ctx context.Context, accessToken string) (models.User, error)
}

type errorLogger interface {
	Error(msg string, args ...any)
}

// AccessTokenFromRequest prefers the Authorization bearer header and
// falls back to the access token cookie
func AccessTokenFromRequest(r *http.Request) string {
	const bearerPrefix = "Bearer "

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}

	cookie, err := r.Cookie(accessCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AuthMiddleware gates requests on a valid access token. The resolved
// user is stored in the request context. 401 is reserved for tokens
// proven bad; a ledger or database failure is not such proof and is
// reported as 503 or 500
func AuthMiddleware(as authService, l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessTokenFromRequest(r)
			if token == "" {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := as.AuthenticateAccess(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrInvalidCredential),
					errors.Is(err, apperrors.ErrUserNotFound):
					render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				case errors.Is(err, apperrors.ErrStoreUnavailable):
					render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
				default:
					l.Error("authenticate access failed", "error", err.Error())
					render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				}
				return
			}

			ctx := reqctx.NewWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified rejects authenticated but unverified users.
// Must run after AuthMiddleware
func RequireVerified() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := reqctx.UserFromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.IsVerified {
				render.ServiceError(w, "Email not verified", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
