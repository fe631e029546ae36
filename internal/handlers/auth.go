package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/handlers/render"
	"github.com/coursecatalyst/identity/internal/handlers/reqctx"
	"github.com/coursecatalyst/identity/internal/logger"
	"github.com/coursecatalyst/identity/internal/models"
)

// tokensResponse carries the issued pair in the response body. Cookies
// alone are not enough: header-based clients authenticate with a
// Bearer token and have to read it from somewhere
type tokensResponse struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func newTokensResponse(pair models.TokenPair) tokensResponse {
	return tokensResponse{
		AccessToken:      pair.Access.Value,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:     pair.Refresh.Value,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	}
}

func handleRegister(auth authService, logger logger.Logger) http.Handler {
	type RegisterRequest struct {
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type RegisterSuccessResponse struct {
		Message string            `json:"message"`
		User    models.PublicUser `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[RegisterRequest](w, r)
		if err != nil {
			return
		}

		user, err := auth.Register(r.Context(), data.Name, data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User with this email already exists", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrEmailSendFailed):
				render.ServiceError(w, "Could not send verification email", http.StatusInternalServerError)
			default:
				logger.Error("register failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, RegisterSuccessResponse{
			Message: "User registered. Check your email for the verification code",
			User:    user.Public(),
		})
	})
}

func handleLogin(auth authService, logger logger.Logger) http.Handler {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		Message string            `json:"message"`
		User    models.PublicUser `json:"user"`
		Tokens  tokensResponse    `json:"tokens"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		deviceID, ok := reqctx.DeviceIDFromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		user, pair, err := auth.Login(r.Context(), data.Email, data.Password, deviceID)
		if err != nil {
			switch {
			// Same status for unknown user and wrong password: don't
			// leak which emails are registered
			case errors.Is(err, apperrors.ErrUserNotFound),
				errors.Is(err, apperrors.ErrWrongPassword):
				render.ServiceError(w, "Wrong email or password", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserNotVerified):
				render.ServiceError(w, "Email not verified", http.StatusForbidden)
			case errors.Is(err, apperrors.ErrStoreUnavailable):
				render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			default:
				logger.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		setTokenCookies(w, pair)
		render.JSON(w, LoginSuccessResponse{
			Message: "User logged in successfully",
			User:    user.Public(),
			Tokens:  newTokensResponse(pair),
		})
	})
}

func handleVerify(auth authService, logger logger.Logger) http.Handler {
	type VerifyRequest struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required,len=6"`
	}
	type VerifySuccessResponse struct {
		Message string            `json:"message"`
		User    models.PublicUser `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[VerifyRequest](w, r)
		if err != nil {
			return
		}

		user, err := auth.Verify(r.Context(), data.Email, data.OTP)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrActivationNotFound),
				errors.Is(err, apperrors.ErrInvalidCredential),
				errors.Is(err, apperrors.ErrInvalidOTP):
				render.ServiceError(w, "Invalid or expired verification code", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusBadRequest)
			default:
				logger.Error("verify failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, VerifySuccessResponse{
			Message: "Email verified successfully",
			User:    user.Public(),
		})
	})
}

func handleSendVerificationEmail(auth authService, logger logger.Logger) http.Handler {
	type SendRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
	type SendSuccessResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[SendRequest](w, r)
		if err != nil {
			return
		}

		err = auth.SendVerificationEmail(r.Context(), data.Email)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserAlreadyVerified):
				render.ServiceError(w, "Email already verified", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrEmailSendFailed):
				render.ServiceError(w, "Could not send verification email", http.StatusInternalServerError)
			default:
				logger.Error("send verification email failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, SendSuccessResponse{Message: "Verification email sent"})
	})
}

func handleTokenRefresh(auth authService, logger logger.Logger) http.Handler {
	type RefreshSuccessResponse struct {
		Message string         `json:"message"`
		Tokens  tokensResponse `json:"tokens"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh := refreshTokenFromRequest(r)
		if refresh == "" {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		deviceID, ok := reqctx.DeviceIDFromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		pair, err := auth.Refresh(r.Context(), deviceID, refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrStoreUnavailable):
				render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			case errors.Is(err, apperrors.ErrInvalidCredential),
				errors.Is(err, apperrors.ErrSessionNotFound):
				clearTokenCookies(w)
				render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			default:
				logger.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		setTokenCookies(w, pair)
		render.JSON(w, RefreshSuccessResponse{
			Message: "Tokens refreshed successfully",
			Tokens:  newTokensResponse(pair),
		})
	})
}

func handleLogout(auth authService, logger logger.Logger) http.Handler {
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := reqctx.UserFromContext(r.Context())

		deviceID, ok := reqctx.DeviceIDFromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := auth.Logout(r.Context(), user.ID, deviceID); err != nil {
			logger.Error("logout failed", "userID", user.ID.String(), "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		clearTokenCookies(w)
		render.JSON(w, LogoutSuccessResponse{Message: "Logged out"})
	})
}

func handleLogoutAll(auth authService, logger logger.Logger) http.Handler {
	type LogoutAllSuccessResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := reqctx.UserFromContext(r.Context())

		if err := auth.LogoutAll(r.Context(), user.ID); err != nil {
			logger.Error("logout all failed", "userID", user.ID.String(), "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		clearTokenCookies(w)
		render.JSON(w, LogoutAllSuccessResponse{Message: "Logged out on all devices"})
	})
}
