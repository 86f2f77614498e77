package auth

import (
	"net/http"
	"time"
)

// CookieWriter issues the dashboard's HttpOnly cookies with a consistent
// Secure/SameSite policy.
type CookieWriter struct {
	// Secure forces the Secure attribute. Requests that arrived over TLS
	// always get it.
	Secure bool
}

func (c CookieWriter) secure(r *http.Request) bool {
	return c.Secure || r.TLS != nil || r.URL.Scheme == "https"
}

// Set writes a cookie that expires after ttl.
func (c CookieWriter) Set(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires a cookie.
func (c CookieWriter) Clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession stores the session token cookie.
func (c CookieWriter) SetSession(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	c.Set(w, r, SessionCookieName, token, ttl)
}

// ClearSession removes the session token cookie.
func (c CookieWriter) ClearSession(w http.ResponseWriter, r *http.Request) {
	c.Clear(w, r, SessionCookieName)
}

// SessionToken reads the session token cookie, if any.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
