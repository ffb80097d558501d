package auth

import (
	"net/http"
	"strings"
)

const AccessTokenCookie = "access_token"

// ExtractAccessToken reads the bearer credential from the Authorization header,
// falling back to the access_token cookie used by browser clients.
func ExtractAccessToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}
