package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/coursecatalyst/identity/internal/handlers/reqctx"
)

const (
	deviceCookieName = "deviceId"
	deviceHeaderName = "Device-Id"

	deviceCookieMaxAge = int((365 * 24 * time.Hour) / time.Second)
)

// DeviceMiddleware resolves the device id for the request: the cookie
// wins, then the header, otherwise a fresh id is minted and set as a
// cookie so the browser keeps presenting the same identity
func DeviceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := ""

			if cookie, err := r.Cookie(deviceCookieName); err == nil && cookie.Value != "" {
				deviceID = cookie.Value
			} else if header := r.Header.Get(deviceHeaderName); header != "" {
				deviceID = header
			}

			if deviceID == "" {
				deviceID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     deviceCookieName,
				Value:    deviceID,
				Path:     "/",
				MaxAge:   deviceCookieMaxAge,
				HttpOnly: true,
				Secure:   true,
				SameSite: http.SameSiteStrictMode,
			})

			ctx := reqctx.NewWithDeviceID(r.Context(), deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
