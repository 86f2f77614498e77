package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/forms"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/guard"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/identity"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/session"
)

// SessionManager is the session lifecycle as used by the auth pages.
type SessionManager interface {
	Create(ctx context.Context, tokens *identity.Tokens, meta session.ClientMeta) (string, auth.Session, error)
	Destroy(ctx context.Context, rawToken string) error
	TTL() time.Duration
}

// FormValidator checks and decodes submitted forms.
type FormValidator interface {
	Decode(name string, values url.Values, out any) error
}

// PageDependencies bundles collaborators required by the page handlers.
type PageDependencies struct {
	Sessions SessionManager
	Identity identity.Provider
	Backend  BackendFactory
	Forms    FormValidator
	Guard    *guard.Guard
	Renderer *Renderer
	Cookies  auth.CookieWriter
	Logger   *zap.SugaredLogger
	// GoogleEnabled shows the Google sign-in button.
	GoogleEnabled bool
	// GoogleRedirectURI is passed to the identity provider with Google credentials.
	GoogleRedirectURI string
	// OAuthState generates the state of a Google authorization request.
	OAuthState func() (string, error)
	// LoadingRefresh is how long the loading page waits before reloading.
	LoadingRefresh time.Duration
}

func (d *PageDependencies) validate() error {
	switch {
	case d.Sessions == nil:
		return errors.New("page handlers require a session manager")
	case d.Identity == nil:
		return errors.New("page handlers require an identity provider")
	case d.Backend == nil:
		return errors.New("page handlers require a backend")
	case d.Forms == nil:
		return errors.New("page handlers require a form validator")
	case d.Guard == nil:
		return errors.New("page handlers require a guard")
	case d.Renderer == nil:
		return errors.New("page handlers require a renderer")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	if d.OAuthState == nil {
		d.OAuthState = auth.GenerateNonce
	}
	if d.LoadingRefresh <= 0 {
		d.LoadingRefresh = 2 * time.Second
	}
	return nil
}

// page builds the common template data for the current request.
func (d *PageDependencies) page(w http.ResponseWriter, r *http.Request, title string) Page {
	s := auth.GetSessionFromContext(r.Context())
	return Page{
		Title:   title,
		Path:    r.URL.Path,
		Session: s,
		Nav:     d.Guard.NavFor(s),
		Flash:   popFlash(d.Cookies, w, r),
	}
}

func (d *PageDependencies) render(w http.ResponseWriter, status int, name string, p Page) {
	d.Renderer.Render(w, status, name, p)
}

func (d *PageDependencies) backendFor(r *http.Request) Backend {
	return d.Backend(auth.GetSessionFromContext(r.Context()).IDToken)
}

// redirectHome sends an authenticated session to its landing page, or back
// to login when the role is not granted yet.
func redirectHome(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if s.Role.Valid() {
		http.Redirect(w, r, auth.LandingPath(s.Role), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

func clientMeta(r *http.Request) session.ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return session.ClientMeta{UserAgent: r.UserAgent(), IP: ip}
}

// HandleLoading renders the neutral page shown while a role change settles.
func HandleLoading(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := deps.page(w, r, "Loading")
		p.Nav = nil
		p.RefreshSeconds = int(deps.LoadingRefresh.Round(time.Second) / time.Second)
		if p.RefreshSeconds < 1 {
			p.RefreshSeconds = 1
		}
		w.Header().Set("Cache-Control", "no-store")
		deps.render(w, http.StatusOK, "loading", p)
	}
}

// HandleNotFound renders the 404 page.
func HandleNotFound(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.render(w, http.StatusNotFound, "not_found", deps.page(w, r, "Not Found"))
	}
}

// HandleHome renders the landing page.
func HandleHome(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.render(w, http.StatusOK, "home", deps.page(w, r, "StartupVerse"))
	}
}

func decodeForm(deps *PageDependencies, r *http.Request, name string, out any) (url.Values, map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, nil, err
	}
	err := deps.Forms.Decode(name, r.PostForm, out)
	if verr, ok := forms.AsValidationError(err); ok {
		return r.PostForm, verr.Fields, nil
	}
	return r.PostForm, nil, err
}
