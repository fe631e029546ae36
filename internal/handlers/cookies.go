package handlers

import (
	"net/http"
	"time"

	"github.com/coursecatalyst/identity/internal/models"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// authCookie builds the hardened cookie used for both tokens.
// HttpOnly keeps scripts away from tokens, SameSite=Strict stops
// cross-site sends
func authCookie(name string, token models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func setTokenCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, authCookie(accessCookieName, pair.Access))
	http.SetCookie(w, authCookie(refreshCookieName, pair.Refresh))
}

func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func refreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
