package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/handlers/render"
	"github.com/coursecatalyst/identity/internal/handlers/reqctx"
	"github.com/coursecatalyst/identity/internal/logger"
	"github.com/coursecatalyst/identity/internal/models"
)

func handleGetProfile(profile profileService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := reqctx.UserFromContext(r.Context())

		p, err := profile.GetProfile(r.Context(), user.ID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				logger.Error("get profile failed", "userID", user.ID.String(), "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, p)
	})
}

// handleUserInfo serves the user already resolved by the auth gate,
// no extra lookups
func handleUserInfo() http.Handler {
	type response struct {
		ID         uuid.UUID `json:"id"`
		CreatedAt  time.Time `json:"createdAt"`
		Name       string    `json:"name"`
		Email      string    `json:"email"`
		IsVerified bool      `json:"isVerified"`
		Role       string    `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := reqctx.UserFromContext(r.Context())

		render.JSON(w, response{
			ID:         user.ID,
			CreatedAt:  user.CreatedAt,
			Name:       user.Name,
			Email:      user.Email,
			IsVerified: user.IsVerified,
			Role:       user.Role,
		})
	})
}

func handleUpdateInfo(profile profileService, logger logger.Logger) http.Handler {
	type UpdateInfoRequest struct {
		Name  string `json:"name" validate:"omitempty,min=2,max=100"`
		Email string `json:"email" validate:"omitempty,email"`
	}
	type UpdateInfoSuccessResponse struct {
		Message string            `json:"message"`
		User    models.PublicUser `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[UpdateInfoRequest](w, r)
		if err != nil {
			return
		}

		if data.Name == "" && data.Email == "" {
			render.ServiceError(w, "Nothing to update", http.StatusBadRequest)
			return
		}

		user, _ := reqctx.UserFromContext(r.Context())

		updated, err := profile.UpdateInfo(r.Context(), user.ID, data.Name, data.Email)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "Email is already taken", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				logger.Error("update info failed", "userID", user.ID.String(), "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, UpdateInfoSuccessResponse{
			Message: "User info updated",
			User:    updated.Public(),
		})
	})
}

func handleChangePassword(profile profileService, logger logger.Logger) http.Handler {
	type ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	type ChangePasswordSuccessResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
		if err != nil {
			return
		}

		user, _ := reqctx.UserFromContext(r.Context())

		err = profile.ChangePassword(r.Context(), user.ID, data.CurrentPassword, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrWrongPassword):
				render.ServiceError(w, "Current password is wrong", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				logger.Error("change password failed", "userID", user.ID.String(), "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, ChangePasswordSuccessResponse{Message: "Password changed"})
	})
}
