package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/forms"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/guard"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/identity"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/logging"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/session"
	"github.com/startupverse/dashboard/pkg/sdk"
)

type mockBackend struct {
	ListStartupsFn     func(ctx context.Context) ([]sdk.Startup, error)
	GetStartupFn       func(ctx context.Context, id string) (*sdk.Startup, error)
	CreateStartupFn    func(ctx context.Context, input sdk.CreateStartupInput) (*sdk.Startup, error)
	GetMemoFn          func(ctx context.Context, id string) (*sdk.Memo, error)
	ListMemosFn        func(ctx context.Context) ([]sdk.Memo, error)
	FounderDashboardFn func(ctx context.Context) (*sdk.FounderDashboard, error)
	SignupFn           func(ctx context.Context, input sdk.SignupInput) error
	GoogleSignInFn     func(ctx context.Context) error
	MeFn               func(ctx context.Context) (*sdk.Me, error)
	ListUsersFn        func(ctx context.Context) ([]sdk.User, error)
	ListMeetingsFn     func(ctx context.Context) ([]sdk.Meeting, error)
	CreateMeetingFn    func(ctx context.Context, input sdk.CreateMeetingInput) (*sdk.Meeting, error)
}

var _ Backend = (*mockBackend)(nil)

func (m *mockBackend) ListStartups(ctx context.Context) ([]sdk.Startup, error) {
	if m.ListStartupsFn == nil {
		return nil, nil
	}
	return m.ListStartupsFn(ctx)
}

func (m *mockBackend) GetStartup(ctx context.Context, id string) (*sdk.Startup, error) {
	if m.GetStartupFn == nil {
		return &sdk.Startup{ID: id}, nil
	}
	return m.GetStartupFn(ctx, id)
}

func (m *mockBackend) CreateStartup(ctx context.Context, input sdk.CreateStartupInput) (*sdk.Startup, error) {
	if m.CreateStartupFn == nil {
		return &sdk.Startup{ID: "startup-new", Name: input.Name}, nil
	}
	return m.CreateStartupFn(ctx, input)
}

func (m *mockBackend) GetMemo(ctx context.Context, id string) (*sdk.Memo, error) {
	if m.GetMemoFn == nil {
		return nil, &sdk.NetworkError{Op: "get memo", StatusCode: http.StatusNotFound}
	}
	return m.GetMemoFn(ctx, id)
}

func (m *mockBackend) ListMemos(ctx context.Context) ([]sdk.Memo, error) {
	if m.ListMemosFn == nil {
		return nil, nil
	}
	return m.ListMemosFn(ctx)
}

func (m *mockBackend) FounderDashboard(ctx context.Context) (*sdk.FounderDashboard, error) {
	if m.FounderDashboardFn == nil {
		return &sdk.FounderDashboard{}, nil
	}
	return m.FounderDashboardFn(ctx)
}

func (m *mockBackend) Signup(ctx context.Context, input sdk.SignupInput) error {
	if m.SignupFn == nil {
		return nil
	}
	return m.SignupFn(ctx, input)
}

func (m *mockBackend) GoogleSignIn(ctx context.Context) error {
	if m.GoogleSignInFn == nil {
		return nil
	}
	return m.GoogleSignInFn(ctx)
}

func (m *mockBackend) Me(ctx context.Context) (*sdk.Me, error) {
	if m.MeFn == nil {
		return &sdk.Me{}, nil
	}
	return m.MeFn(ctx)
}

func (m *mockBackend) ListUsers(ctx context.Context) ([]sdk.User, error) {
	if m.ListUsersFn == nil {
		return nil, nil
	}
	return m.ListUsersFn(ctx)
}

func (m *mockBackend) ListMeetings(ctx context.Context) ([]sdk.Meeting, error) {
	if m.ListMeetingsFn == nil {
		return nil, nil
	}
	return m.ListMeetingsFn(ctx)
}

func (m *mockBackend) CreateMeeting(ctx context.Context, input sdk.CreateMeetingInput) (*sdk.Meeting, error) {
	if m.CreateMeetingFn == nil {
		return &sdk.Meeting{ID: "meeting-1", Title: input.Title}, nil
	}
	return m.CreateMeetingFn(ctx, input)
}

type mockSessions struct {
	CreateFn  func(ctx context.Context, tokens *identity.Tokens, meta session.ClientMeta) (string, auth.Session, error)
	DestroyFn func(ctx context.Context, rawToken string) error
}

func (m *mockSessions) Create(ctx context.Context, tokens *identity.Tokens, meta session.ClientMeta) (string, auth.Session, error) {
	if m.CreateFn == nil {
		return "raw-token", auth.Session{UserID: tokens.UserID, Email: tokens.Email}, nil
	}
	return m.CreateFn(ctx, tokens, meta)
}

func (m *mockSessions) Destroy(ctx context.Context, rawToken string) error {
	if m.DestroyFn == nil {
		return nil
	}
	return m.DestroyFn(ctx, rawToken)
}

func (m *mockSessions) TTL() time.Duration {
	return time.Hour
}

type mockProvider struct {
	SignInWithPasswordFn func(ctx context.Context, email, password string) (*identity.Tokens, error)
	SignUpFn             func(ctx context.Context, email, password string) (*identity.Tokens, error)
	SignInWithIDPFn      func(ctx context.Context, providerID, idToken, requestURI string) (*identity.Tokens, error)
}

var _ identity.Provider = (*mockProvider)(nil)

func (m *mockProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Tokens, error) {
	return m.SignInWithPasswordFn(ctx, email, password)
}

func (m *mockProvider) SignUp(ctx context.Context, email, password string) (*identity.Tokens, error) {
	return m.SignUpFn(ctx, email, password)
}

func (m *mockProvider) SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*identity.Tokens, error) {
	return m.SignInWithIDPFn(ctx, providerID, idToken, requestURI)
}

func (m *mockProvider) Refresh(context.Context, string) (*identity.Tokens, error) {
	return nil, identity.NewAuthError("INVALID_REFRESH_TOKEN")
}

// fixedResolver hands every request the same session.
type fixedResolver struct {
	session auth.Session
}

func (f fixedResolver) Resolve(context.Context, string) (auth.Session, error) {
	return f.session, nil
}

type harness struct {
	backend  *mockBackend
	sessions *mockSessions
	provider *mockProvider
	idTokens []string
	deps     *PageDependencies
	handler  http.Handler
}

func newHarness(t *testing.T, s auth.Session) *harness {
	t.Helper()

	validator, err := forms.NewValidator()
	require.NoError(t, err)
	renderer, err := NewRenderer(logging.Nop())
	require.NoError(t, err)

	h := &harness{
		backend:  &mockBackend{},
		sessions: &mockSessions{},
		provider: &mockProvider{},
	}
	deps := &PageDependencies{
		Sessions: h.sessions,
		Identity: h.provider,
		Backend: func(idToken string) Backend {
			h.idTokens = append(h.idTokens, idToken)
			return h.backend
		},
		Forms:    validator,
		Guard:    guard.MustNew(guard.DefaultRoutes()),
		Renderer: renderer,
		Logger:   logging.Nop(),

		GoogleRedirectURI: "http://localhost:8080/login/google/callback",
	}
	h.deps = deps

	router, err := NewRouter(RouterOptions{Pages: deps, Sessions: fixedResolver{session: s}})
	require.NoError(t, err)
	h.handler = router
	return h
}

func (h *harness) get(target string) *httptest.ResponseRecorder {
	return serve(h, newGet(target))
}

func (h *harness) post(target string, form url.Values) *httptest.ResponseRecorder {
	return serve(h, newPost(target, form))
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var (
	adminSession    = auth.Session{ID: "s-admin", UserID: "uid-admin", Email: "admin@example.com", Role: auth.RoleAdmin, IDToken: "tok-admin"}
	investorSession = auth.Session{ID: "s-inv", UserID: "uid-inv", Email: "inv@example.com", Role: auth.RoleInvestor, IDToken: "tok-inv"}
	founderSession  = auth.Session{ID: "s-founder", UserID: "uid-founder", Email: "founder@example.com", Role: auth.RoleFounder, IDToken: "tok-founder"}
)

func newGet(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func newPost(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(h *harness, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}
