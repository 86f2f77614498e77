package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/logging"
	dashmiddleware "github.com/startupverse/dashboard/cmd/dashboard/internal/middleware"
)

// RouterOptions controls the construction of the dashboard HTTP router.
type RouterOptions struct {
	Pages *PageDependencies
	// Sessions resolves the session cookie on every request.
	Sessions dashmiddleware.SessionResolver
	// RelyingParty enables Google sign-in when set.
	RelyingParty *auth.RelyingParty
	CORSOptions  *cors.Options
	Logger       *zap.SugaredLogger
	Middleware   []func(http.Handler) http.Handler
	ExtraRoutes  func(chi.Router)
}

// DefaultCORSOptions returns the development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles a chi.Router with the shared middleware, the session
// and guard middleware, and every dashboard page mounted.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	if opts.Pages == nil {
		return nil, errors.New("router requires page dependencies")
	}
	if opts.Sessions == nil {
		return nil, errors.New("router requires a session resolver")
	}
	if err := opts.Pages.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = opts.Pages.Logger
	}

	sessionMW, err := dashmiddleware.NewSessionMiddleware(dashmiddleware.SessionDependencies{
		Sessions: opts.Sessions,
		Cookies:  opts.Pages.Cookies,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session middleware: %w", err)
	}
	guardMW, err := dashmiddleware.NewGuardMiddleware(dashmiddleware.GuardDependencies{
		Guard:   opts.Pages.Guard,
		Loading: HandleLoading(opts.Pages),
	})
	if err != nil {
		return nil, fmt.Errorf("guard middleware: %w", err)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/health", HandleHealth())

	r.Group(func(r chi.Router) {
		r.Use(sessionMW)
		r.Use(guardMW)

		deps := opts.Pages
		r.Get("/", HandleHome(deps))
		r.Get("/login", HandleLoginPage(deps))
		r.Post("/login", HandleLogin(deps))
		r.Get("/signup", HandleSignupPage(deps))
		r.Post("/signup", HandleSignup(deps))
		r.Post("/logout", HandleLogout(deps))

		if opts.RelyingParty != nil {
			r.Get("/login/google", HandleGoogleLogin(opts.RelyingParty, deps))
			r.Get("/login/google/callback", HandleGoogleCallback(opts.RelyingParty, deps))
		}

		r.Get("/admin", HandleAdmin(deps))
		r.Get("/investor", HandleInvestor(deps))
		r.Get("/founder", HandleFounder(deps))
		r.Get("/founder/submit", HandleFounderSubmitPage(deps))
		r.Post("/founder/submit", HandleFounderSubmit(deps))
		r.Get("/meet", HandleMeetPage(deps))
		r.Post("/meet", HandleMeet(deps))
		r.Get("/memo/{id}", HandleMemo(deps))

		r.Get("/api/session", HandleSessionAPI())

		if opts.ExtraRoutes != nil {
			opts.ExtraRoutes(r)
		}

		r.NotFound(HandleNotFound(deps))
	})

	return r, nil
}
