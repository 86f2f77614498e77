package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
)

const (
	flashCookieName = "dashboard.flash"
	flashTTL        = time.Minute
)

// setFlash queues a one-time notice for the next rendered page.
func setFlash(cookies auth.CookieWriter, w http.ResponseWriter, r *http.Request, message string) {
	cookies.Set(w, r, flashCookieName, url.QueryEscape(message), flashTTL)
}

// popFlash returns and clears the queued notice.
func popFlash(cookies auth.CookieWriter, w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	cookies.Clear(w, r, flashCookieName)

	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}
