// Package sessioncookie centralizes dashboard session cookie behavior.
package sessioncookie

import (
	"net/http"
	"strings"
)

// Name is the canonical dashboard session cookie name.
const Name = "dashboard_session"

// Read returns the trimmed session cookie value when present.
func Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(Name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Write sets the session cookie for the current request context.
func Write(w http.ResponseWriter, r *http.Request, sessionID string) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    strings.TrimSpace(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie for the current request context.
func Clear(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func isHTTPS(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
