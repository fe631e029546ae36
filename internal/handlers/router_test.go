package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/models"
)

// Stub services with function fields: each test overrides only the
// operations it cares about

type stubAuthService struct {
	register  func(ctx context.Context, name, email, password string) (models.User, error)
	login     func(ctx context.Context, email, password, deviceID string) (models.User, models.TokenPair, error)
	sendEmail func(ctx context.Context, email string) error
	verify    func(ctx context.Context, email, otp string) (models.User, error)
	refresh   func(ctx context.Context, deviceID, refreshToken string) (models.TokenPair, error)
	logout    func(ctx context.Context, userID uuid.UUID, deviceID string) error
	logoutAll func(ctx context.Context, userID uuid.UUID) error
	authFn    func(ctx context.Context, accessToken string) (models.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	return s.register(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password, deviceID string) (models.User, models.TokenPair, error) {
	return s.login(ctx, email, password, deviceID)
}

func (s *stubAuthService) SendVerificationEmail(ctx context.Context, email string) error {
	return s.sendEmail(ctx, email)
}

func (s *stubAuthService) Verify(ctx context.Context, email, otp string) (models.User, error) {
	return s.verify(ctx, email, otp)
}

func (s *stubAuthService) Refresh(ctx context.Context, deviceID, refreshToken string) (models.TokenPair, error) {
	return s.refresh(ctx, deviceID, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return s.logout(ctx, userID, deviceID)
}

func (s *stubAuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.logoutAll(ctx, userID)
}

func (s *stubAuthService) AuthenticateAccess(ctx context.Context, accessToken string) (models.User, error) {
	return s.authFn(ctx, accessToken)
}

type stubProfileService struct {
	getProfile     func(ctx context.Context, userID uuid.UUID) (models.PublicUser, error)
	updateInfo     func(ctx context.Context, userID uuid.UUID, name, email string) (models.User, error)
	changePassword func(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

func (s *stubProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (models.PublicUser, error) {
	return s.getProfile(ctx, userID)
}

func (s *stubProfileService) UpdateInfo(ctx context.Context, userID uuid.UUID, name, email string) (models.User, error) {
	return s.updateInfo(ctx, userID, name, email)
}

func (s *stubProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	return s.changePassword(ctx, userID, currentPassword, newPassword)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testUser() models.User {
	return models.User{
		ID:         uuid.New(),
		CreatedAt:  time.Now().Truncate(time.Second),
		Name:       "Ada",
		Email:      "ada@example.com",
		IsVerified: true,
		Role:       models.RoleUser,
	}
}

func testPair() models.TokenPair {
	expires := time.Now().Add(15 * time.Minute)
	return models.TokenPair{
		Access:  models.IssuedToken{Value: "access-token", ExpiresAt: expires},
		Refresh: models.IssuedToken{Value: "refresh-token", ExpiresAt: time.Now().Add(720 * time.Hour)},
	}
}

func newTestServer(t *testing.T, auth *stubAuthService, profile *stubProfileService) *httptest.Server {
	t.Helper()

	okPing := pingFunc(func(context.Context) error { return nil })
	srv := httptest.NewServer(NewRouter(auth, profile, okPing, okPing, nil))
	t.Cleanup(srv.Close)
	return srv
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func Test_Router_Register(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		user := testUser()
		user.IsVerified = false

		auth := &stubAuthService{
			register: func(_ context.Context, name, email, password string) (models.User, error) {
				require.Equal(t, "Ada", name)
				require.Equal(t, "ada@example.com", email)
				require.Equal(t, "StrongEnoughPassword", password)
				return user, nil
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		data := `{"name": "Ada", "email": "ada@example.com", "password": "StrongEnoughPassword"}`
		resp, err := http.Post(srv.URL+"/users/register", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.Contains(t, string(body), "Check your email")
		require.Contains(t, string(body), user.ID.String())
		require.NotContains(t, string(body), "password", "response must not leak password data")

		require.Nil(t, cookieByName(resp, "accessToken"), "no auth cookies before verification")
	})

	t.Run("email taken", func(t *testing.T) {
		auth := &stubAuthService{
			register: func(context.Context, string, string, string) (models.User, error) {
				return models.User{}, apperrors.ErrUserAlreadyExists
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		data := `{"name": "Ada", "email": "ada@example.com", "password": "StrongEnoughPassword"}`
		resp, err := http.Post(srv.URL+"/users/register", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "User with this email already exists"
			}`, string(body))
	})

	t.Run("validation failed", func(t *testing.T) {
		srv := newTestServer(t, &stubAuthService{}, &stubProfileService{})

		data := `{"name": "Ada", "email": "not-an-email", "password": "short"}`
		resp, err := http.Post(srv.URL+"/users/register", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, string(body), "validation_failed")
		require.Contains(t, string(body), "email")
		require.Contains(t, string(body), "password")
	})
}

func Test_Router_Login(t *testing.T) {
	t.Parallel()

	t.Run("ok sets cookies", func(t *testing.T) {
		user := testUser()
		pair := testPair()

		auth := &stubAuthService{
			login: func(_ context.Context, email, password, deviceID string) (models.User, models.TokenPair, error) {
				require.Equal(t, "ada@example.com", email)
				require.NotEmpty(t, deviceID, "device middleware must provide an id")
				return user, pair, nil
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		data := `{"email": "ada@example.com", "password": "StrongEnoughPassword"}`
		resp, err := http.Post(srv.URL+"/users/login", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))

		// Tokens go to the body too: bearer clients never see cookies
		require.Contains(t, string(body), `"tokens"`)
		require.Contains(t, string(body), `"accessToken":"access-token"`)
		require.Contains(t, string(body), `"refreshToken":"refresh-token"`)

		access := cookieByName(resp, "accessToken")
		require.NotNil(t, access, "access cookie should be set")
		require.Equal(t, "access-token", access.Value)
		require.True(t, access.HttpOnly, "access cookie should be HttpOnly")
		require.Equal(t, "/", access.Path)
		require.Equal(t, http.SameSiteStrictMode, access.SameSite)
		require.InDelta(t, (15 * time.Minute).Seconds(), access.MaxAge, 2, "max age should be access TTL")

		refresh := cookieByName(resp, "refreshToken")
		require.NotNil(t, refresh, "refresh cookie should be set")
		require.Equal(t, "refresh-token", refresh.Value)
	})

	t.Run("wrong password and unknown user look alike", func(t *testing.T) {
		for _, sentinel := range []error{apperrors.ErrUserNotFound, apperrors.ErrWrongPassword} {
			auth := &stubAuthService{
				login: func(context.Context, string, string, string) (models.User, models.TokenPair, error) {
					return models.User{}, models.TokenPair{}, sentinel
				},
			}
			srv := newTestServer(t, auth, &stubProfileService{})

			data := `{"email": "ada@example.com", "password": "whatever1"}`
			resp, err := http.Post(srv.URL+"/users/login", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			_ = resp.Body.Close()

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Wrong email or password"
				}`, string(body))
			require.Nil(t, cookieByName(resp, "accessToken"), "no cookies on failed login")
		}
	})

	t.Run("unverified forbidden", func(t *testing.T) {
		auth := &stubAuthService{
			login: func(context.Context, string, string, string) (models.User, models.TokenPair, error) {
				return models.User{}, models.TokenPair{}, apperrors.ErrUserNotVerified
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		data := `{"email": "ada@example.com", "password": "whatever1"}`
		resp, err := http.Post(srv.URL+"/users/login", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func Test_Router_Verify(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		user := testUser()

		auth := &stubAuthService{
			verify: func(_ context.Context, email, otp string) (models.User, error) {
				require.Equal(t, "ada@example.com", email)
				require.Equal(t, "123456", otp)
				return user, nil
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		data := `{"email": "ada@example.com", "otp": "123456"}`
		resp, err := http.Post(srv.URL+"/users/verify", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.Contains(t, string(body), "Email verified successfully")
	})

	t.Run("wrong otp", func(t *testing.T) {
		auth := &stubAuthService{
			verify: func(context.Context, string, string) (models.User, error) {
				return models.User{}, apperrors.ErrInvalidOTP
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		data := `{"email": "ada@example.com", "otp": "654321"}`
		resp, err := http.Post(srv.URL+"/users/verify", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, string(body), "Invalid or expired verification code")
	})

	t.Run("otp must be 6 digits", func(t *testing.T) {
		srv := newTestServer(t, &stubAuthService{}, &stubProfileService{})

		data := `{"email": "ada@example.com", "otp": "12"}`
		resp, err := http.Post(srv.URL+"/users/verify", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func Test_Router_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("ok rotates cookies", func(t *testing.T) {
		pair := testPair()

		auth := &stubAuthService{
			refresh: func(_ context.Context, deviceID, refreshToken string) (models.TokenPair, error) {
				require.Equal(t, "device-1", deviceID)
				require.Equal(t, "old-refresh", refreshToken)
				return pair, nil
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/users/refresh", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "old-refresh"})
		req.AddCookie(&http.Cookie{Name: "deviceId", Value: "device-1"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.Contains(t, string(body), `"accessToken":"access-token"`)
		require.Contains(t, string(body), `"refreshToken":"refresh-token"`)

		access := cookieByName(resp, "accessToken")
		require.NotNil(t, access)
		require.Equal(t, "access-token", access.Value)
	})

	t.Run("no refresh cookie", func(t *testing.T) {
		srv := newTestServer(t, &stubAuthService{}, &stubProfileService{})

		resp, err := http.Post(srv.URL+"/users/refresh", "application/json", nil)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("replayed token clears cookies", func(t *testing.T) {
		auth := &stubAuthService{
			refresh: func(context.Context, string, string) (models.TokenPair, error) {
				return models.TokenPair{}, apperrors.ErrSessionNotFound
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/users/refresh", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "stolen"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		access := cookieByName(resp, "accessToken")
		require.NotNil(t, access, "access cookie should be cleared")
		require.Empty(t, access.Value)
		require.Equal(t, -1, access.MaxAge)
	})

	t.Run("store outage", func(t *testing.T) {
		auth := &stubAuthService{
			refresh: func(context.Context, string, string) (models.TokenPair, error) {
				return models.TokenPair{}, apperrors.ErrStoreUnavailable
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/users/refresh", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "valid"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func Test_Router_Logout(t *testing.T) {
	t.Parallel()

	user := testUser()

	authenticated := func(auth *stubAuthService) *stubAuthService {
		auth.authFn = func(_ context.Context, accessToken string) (models.User, error) {
			if accessToken != "valid-access" {
				return models.User{}, apperrors.ErrInvalidCredential
			}
			return user, nil
		}
		return auth
	}

	t.Run("logout clears cookies", func(t *testing.T) {
		loggedOut := false
		auth := authenticated(&stubAuthService{
			logout: func(_ context.Context, userID uuid.UUID, deviceID string) error {
				require.Equal(t, user.ID, userID)
				require.Equal(t, "device-1", deviceID)
				loggedOut = true
				return nil
			},
		})
		srv := newTestServer(t, auth, &stubProfileService{})

		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/users/logout", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access"})
		req.AddCookie(&http.Cookie{Name: "deviceId", Value: "device-1"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, loggedOut)

		access := cookieByName(resp, "accessToken")
		require.NotNil(t, access)
		require.Equal(t, -1, access.MaxAge, "access cookie should be cleared")
	})

	t.Run("logout all devices", func(t *testing.T) {
		loggedOut := false
		auth := authenticated(&stubAuthService{
			logoutAll: func(_ context.Context, userID uuid.UUID) error {
				require.Equal(t, user.ID, userID)
				loggedOut = true
				return nil
			},
		})
		srv := newTestServer(t, auth, &stubProfileService{})

		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/users/logout-all-devices", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, loggedOut)
	})

	t.Run("logout requires auth", func(t *testing.T) {
		srv := newTestServer(t, authenticated(&stubAuthService{}), &stubProfileService{})

		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/users/logout", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func Test_Router_ProfileRoutes(t *testing.T) {
	t.Parallel()

	user := testUser()

	authenticated := func(auth *stubAuthService) *stubAuthService {
		auth.authFn = func(_ context.Context, accessToken string) (models.User, error) {
			if accessToken != "valid-access" {
				return models.User{}, apperrors.ErrInvalidCredential
			}
			return user, nil
		}
		return auth
	}

	do := func(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
		t.Helper()

		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, srv.URL+path, reader)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("get profile", func(t *testing.T) {
		profile := &stubProfileService{
			getProfile: func(_ context.Context, userID uuid.UUID) (models.PublicUser, error) {
				require.Equal(t, user.ID, userID)
				return user.Public(), nil
			},
		}
		srv := newTestServer(t, authenticated(&stubAuthService{}), profile)

		resp := do(t, srv, http.MethodGet, "/users/profile", "")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.Contains(t, string(body), user.Email)
	})

	t.Run("user info comes from the gate", func(t *testing.T) {
		srv := newTestServer(t, authenticated(&stubAuthService{}), &stubProfileService{})

		resp := do(t, srv, http.MethodGet, "/users/user-info", "")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(body), user.ID.String())
		require.Contains(t, string(body), `"isVerified":true`)
	})

	t.Run("update info", func(t *testing.T) {
		profile := &stubProfileService{
			updateInfo: func(_ context.Context, userID uuid.UUID, name, email string) (models.User, error) {
				require.Equal(t, user.ID, userID)
				require.Equal(t, "Ada Lovelace", name)
				require.Empty(t, email)

				updated := user
				updated.Name = name
				return updated, nil
			},
		}
		srv := newTestServer(t, authenticated(&stubAuthService{}), profile)

		resp := do(t, srv, http.MethodPatch, "/users/update-info", `{"name": "Ada Lovelace"}`)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.Contains(t, string(body), "Ada Lovelace")
	})

	t.Run("update info with nothing to change", func(t *testing.T) {
		srv := newTestServer(t, authenticated(&stubAuthService{}), &stubProfileService{})

		resp := do(t, srv, http.MethodPatch, "/users/update-info", `{}`)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("change password", func(t *testing.T) {
		profile := &stubProfileService{
			changePassword: func(_ context.Context, userID uuid.UUID, current, newPassword string) error {
				require.Equal(t, "old-password", current)
				require.Equal(t, "new-password", newPassword)
				return nil
			},
		}
		srv := newTestServer(t, authenticated(&stubAuthService{}), profile)

		resp := do(t, srv, http.MethodPatch, "/users/change-password",
			`{"currentPassword": "old-password", "newPassword": "new-password"}`)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("change password with wrong current", func(t *testing.T) {
		profile := &stubProfileService{
			changePassword: func(context.Context, uuid.UUID, string, string) error {
				return apperrors.ErrWrongPassword
			},
		}
		srv := newTestServer(t, authenticated(&stubAuthService{}), profile)

		resp := do(t, srv, http.MethodPatch, "/users/change-password",
			`{"currentPassword": "nope-nope", "newPassword": "new-password"}`)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, string(body), "Current password is wrong")
	})

	t.Run("unverified user can't reach profile", func(t *testing.T) {
		unverified := user
		unverified.IsVerified = false

		auth := &stubAuthService{
			authFn: func(context.Context, string) (models.User, error) {
				return unverified, nil
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		resp := do(t, srv, http.MethodGet, "/users/profile", "")
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unverified user still gets user-info", func(t *testing.T) {
		unverified := user
		unverified.IsVerified = false

		auth := &stubAuthService{
			authFn: func(context.Context, string) (models.User, error) {
				return unverified, nil
			},
		}
		srv := newTestServer(t, auth, &stubProfileService{})

		resp := do(t, srv, http.MethodGet, "/users/user-info", "")
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func Test_Router_Health(t *testing.T) {
	t.Parallel()

	t.Run("all ok", func(t *testing.T) {
		srv := newTestServer(t, &stubAuthService{}, &stubProfileService{})

		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `
			{
				"status": "ok",
				"database": "ok",
				"cache": "ok"
			}`, string(body))
	})

	t.Run("degraded when a store is down", func(t *testing.T) {
		okPing := pingFunc(func(context.Context) error { return nil })
		downPing := pingFunc(func(context.Context) error { return context.DeadlineExceeded })

		srv := httptest.NewServer(NewRouter(&stubAuthService{}, &stubProfileService{}, okPing, downPing, nil))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.JSONEq(t, `
			{
				"status": "degraded",
				"database": "ok",
				"cache": "down"
			}`, string(body))
	})
}
